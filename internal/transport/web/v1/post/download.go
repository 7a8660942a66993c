package post

import (
	"io"
	"net/http"
	"strconv"

	"github.com/kalkafox/ionia-img/internal/transport/web/logx"
	"github.com/kalkafox/ionia-img/internal/transport/web/mw"
	v1 "github.com/kalkafox/ionia-img/internal/transport/web/v1"
)

// Download godoc
// @Summary     Fetch a post
// @Description Отдаёт сохранённые байты с исходным Content-Type. Авторизация не нужна.
// @Tags        posts
// @Produce     octet-stream
// @Param       id   path      string  true  "id поста (16 символов, без точек)"
// @Success     200  {file}    file
// @Failure     404  {object}  domain.APIEnvelope
// @Failure     500  {object}  domain.APIEnvelope
// @Router      /{id} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	const op = "post.download"
	reqID := mw.RequestIDFromCtx(r.Context())
	id := r.PathValue("id")

	blob, err := h.Posts.Download(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "download failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	defer blob.Body.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", blob.MIME)
	if blob.Size >= 0 {
		hdr.Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	}
	// посты неизменяемы
	hdr.Set("Cache-Control", "public, max-age=31536000, immutable")
	hdr.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		logx.Info(h.Log, reqID, op, "head ok", "id", id, "mime", blob.MIME)
		return
	}

	n, err := io.Copy(w, blob.Body)
	if err != nil {
		// заголовки уже ушли, остаётся только оборвать ответ
		logx.Error(h.Log, reqID, op, "stream interrupted", err, "id", id, "written", n)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "id", id, "mime", blob.MIME, "len", n)
}
