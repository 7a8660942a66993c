package web

import (
	"bytes"
	"context"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalkafox/ionia-img/internal/auth/apikey"
	"github.com/kalkafox/ionia-img/internal/config"
	"github.com/kalkafox/ionia-img/internal/domain"
	"github.com/kalkafox/ionia-img/internal/infra/memory"
	"github.com/kalkafox/ionia-img/internal/metrics"
	postsvc "github.com/kalkafox/ionia-img/internal/service/post"
	v1 "github.com/kalkafox/ionia-img/internal/transport/web/v1"
)

const testKey = "test-key"

type testServer struct {
	h     http.Handler
	repo  *memory.Repo
	blobs *memory.BlobStore
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>ionia</html>"), 0o644))

	repo := memory.NewRepo()
	require.NoError(t, repo.AddKey(context.Background(), testKey))
	blobs := memory.NewBlobStore()
	m := metrics.New()

	svc := &postsvc.Service{
		Auth:    apikey.New(repo, logger),
		Repo:    repo,
		Blobs:   blobs,
		Metrics: m,
		Log:     logger,
	}
	cfg := &config.Config{Port: "0", MaxUploadBytes: maxUpload, AssetsPath: dir}
	srv := New(logger, cfg, Deps{Posts: svc, DB: repo, Storage: blobs, Metrics: m})
	return &testServer{h: srv.Handler(), repo: repo, blobs: blobs}
}

type part struct {
	name, ct, body string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+p.name+`"; filename="upload.bin"`)
		if p.ct != "" {
			hdr.Set("Content-Type", p.ct)
		}
		w, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = io.WriteString(w, p.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, key string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	if key != "" {
		req.Header.Set(v1.HeaderAPIKey, key)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestUploadAndFetch(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.upload(t, testKey, part{name: "data", ct: "text/plain", body: "hello-test"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	url := rec.Body.String()
	require.True(t, strings.HasPrefix(url, domain.DefaultURLPrefix+"/"), url)
	id := strings.TrimPrefix(url, domain.DefaultURLPrefix+"/")
	assert.Len(t, id, 16)

	rec = s.do(http.MethodGet, "/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Equal(t, "hello-test", rec.Body.String())

	rec = s.do(http.MethodHead, "/"+id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Zero(t, rec.Body.Len())
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		parts  []part
		status int
	}{
		{"missing key", "", []part{{name: "data", ct: "text/plain", body: "x"}}, http.StatusUnauthorized},
		{"wrong key", "nope", []part{{name: "data", ct: "text/plain", body: "x"}}, http.StatusUnauthorized},
		{"missing content type", testKey, []part{{name: "data", body: "x"}}, http.StatusBadRequest},
		{"unknown part", testKey, []part{{name: "file", ct: "text/plain", body: "x"}}, http.StatusNotFound},
		{"no parts", testKey, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, 1<<20)
			rec := s.upload(t, tt.key, tt.parts...)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Zero(t, s.repo.PostCount())
			assert.Zero(t, s.blobs.PutCalls())
		})
	}
}

func TestUploadNotMultipart(t *testing.T) {
	s := newTestServer(t, 1<<20)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("raw"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(v1.HeaderAPIKey, testKey)
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, s.repo.PostCount())
}

func TestUploadOverCap(t *testing.T) {
	const limit = 1024
	s := newTestServer(t, limit)

	rec := s.upload(t, testKey, part{name: "data", ct: "application/octet-stream", body: strings.Repeat("a", limit+1)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Zero(t, s.repo.PostCount())
	assert.Zero(t, s.blobs.PutCalls())
}

func TestUploadWrongKeyOverCapIsUnauthorized(t *testing.T) {
	const limit = 1024
	s := newTestServer(t, limit)

	rec := s.upload(t, "nope", part{name: "data", ct: "text/plain", body: strings.Repeat("a", limit*4)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFetchNotFound(t *testing.T) {
	s := newTestServer(t, 1<<20)
	require.NoError(t, s.repo.CreatePost(context.Background(), domain.Post{ID: "abc.png", BlobHandle: "mem-1", MIME: "image/png"}))

	for _, target := range []string{"/abc.png", "/unknownid123456", "/a.b.c"} {
		rec := s.do(http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestServiceRoutes(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(http.MethodGet, "/v1/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/v1/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>ionia</html>", rec.Body.String())

	rec = s.do(http.MethodGet, "/assets/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/swagger/doc.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/upload")

	_ = s.upload(t, testKey, part{name: "data", ct: "text/plain", body: "x"})
	rec = s.do(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ionia_uploads_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "ionia_http_request_duration_seconds")
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, 1<<20)
	rec := s.do(http.MethodGet, "/v1/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
