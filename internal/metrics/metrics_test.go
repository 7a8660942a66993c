package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalkafox/ionia-img/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordUpload(t *testing.T) {
	m := metrics.New()
	m.RecordUpload(metrics.OutcomeOK, 10)
	m.RecordUpload(metrics.OutcomeOK, 5)
	m.RecordUpload(metrics.OutcomeUnauth, 0)

	body := scrape(t, m)
	assert.Contains(t, body, `ionia_uploads_total{outcome="ok"} 2`)
	assert.Contains(t, body, `ionia_uploads_total{outcome="unauthorized"} 1`)
	assert.Contains(t, body, "ionia_upload_bytes_total 15")
}

func TestRecordDownloadAndCache(t *testing.T) {
	m := metrics.New()
	m.RecordDownload(metrics.OutcomeNotFound)
	m.RecordCacheLookup("post", true)
	m.RecordCacheLookup("post", false)

	body := scrape(t, m)
	assert.Contains(t, body, `ionia_downloads_total{outcome="not_found"} 1`)
	assert.Contains(t, body, `ionia_cache_lookups_total{kind="post",result="hit"} 1`)
	assert.Contains(t, body, `ionia_cache_lookups_total{kind="post",result="miss"} 1`)
}

func TestRecordRequest(t *testing.T) {
	m := metrics.New()
	m.RecordRequest(http.MethodGet, 404, 0.01)

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, "ionia_http_request_duration_seconds"))
	assert.Contains(t, body, `method="GET",status="404"`)
}

func TestNoopObserver(t *testing.T) {
	var o metrics.Observer = metrics.NoopObserver{}
	o.RecordUpload(metrics.OutcomeOK, 1)
	o.RecordDownload(metrics.OutcomeOK)
	o.RecordCacheLookup("post", true)
	o.RecordRequest(http.MethodGet, 200, 0)
}
