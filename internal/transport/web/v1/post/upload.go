package post

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/kalkafox/ionia-img/internal/domain"
	postsvc "github.com/kalkafox/ionia-img/internal/service/post"
	"github.com/kalkafox/ionia-img/internal/transport/web/logx"
	"github.com/kalkafox/ionia-img/internal/transport/web/mw"
	v1 "github.com/kalkafox/ionia-img/internal/transport/web/v1"
)

// Upload godoc
// @Summary     Upload a post
// @Description Принимает multipart/form-data с единственной частью "data" и возвращает ссылку "<url_prefix>/<id>".
// @Description Ключ проверяется до чтения тела.
// @Tags        posts
// @Accept      multipart/form-data
// @Produce     plain
// @Param       X-API-Key  header    string  true  "Ключ загрузки"
// @Param       data       formData  file    true  "Содержимое; Content-Type части сохраняется"
// @Success     200  {string}  string  "https://i.ionia.pw/AbCdEfGh12345678"
// @Failure     400  {object}  domain.APIEnvelope  "нет части, нет Content-Type или битый multipart"
// @Failure     401  {object}  domain.APIEnvelope
// @Failure     404  {object}  domain.APIEnvelope  "неизвестное имя части"
// @Failure     413  {object}  domain.APIEnvelope
// @Failure     500  {object}  domain.APIEnvelope
// @Router      /upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "post.upload"
	reqID := mw.RequestIDFromCtx(r.Context())

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	url, err := h.Posts.Upload(r.Context(), v1.APIKeyFromRequest(r), &requestParts{r: r})
	if err != nil {
		logx.Error(h.Log, reqID, op, "upload failed", err, "content_length", r.ContentLength)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "url", url)
	v1.WriteText(w, http.StatusOK, url)
}

// requestParts: multipart-ридер создаётся лениво, на первом NextPart
type requestParts struct {
	r  *http.Request
	mr *multipart.Reader
}

func (p *requestParts) NextPart() (postsvc.Part, error) {
	if p.mr == nil {
		mr, err := p.r.MultipartReader()
		if err != nil {
			return nil, fmt.Errorf("multipart reader: %v: %w", err, domain.ErrBadParams)
		}
		p.mr = mr
	}
	part, err := p.mr.NextPart()
	if err != nil {
		return nil, bodyErr(err)
	}
	return formPart{part}, nil
}

type formPart struct{ *multipart.Part }

func (p formPart) Read(b []byte) (int, error) {
	n, err := p.Part.Read(b)
	return n, bodyErr(err)
}

func (p formPart) ContentType() string { return p.Header.Get("Content-Type") }

// bodyErr: упор в MaxBytesReader → ErrTooLarge, остальное (в т.ч. io.EOF) как есть
func bodyErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("body over %d bytes: %w: %w", mbe.Limit, domain.ErrTooLarge, err)
	}
	return err
}
