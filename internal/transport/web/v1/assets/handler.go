// Package assets отдаёт собранный фронтенд: корневую страницу и файлы из assets/.
package assets

import (
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"

	"github.com/kalkafox/ionia-img/internal/domain"
	"github.com/kalkafox/ionia-img/internal/transport/web/logx"
	"github.com/kalkafox/ionia-img/internal/transport/web/mw"
	v1 "github.com/kalkafox/ionia-img/internal/transport/web/v1"
)

type Handler struct {
	Log *log.Logger
	FS  fs.FS
}

func New(root string, logger *log.Logger) *Handler {
	return &Handler{Log: logger, FS: os.DirFS(root)}
}

// Index отдаёт index.html
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "assets.index", "index.html")
}

// File отдаёт assets/<file>; тип определяется по расширению
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "assets.file", path.Join("assets", r.PathValue("file")))
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, op, name string) {
	reqID := mw.RequestIDFromCtx(r.Context())

	// fs.ValidPath отсекает "..", абсолютные пути и пустые сегменты
	if !fs.ValidPath(name) {
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}
	st, err := fs.Stat(h.FS, name)
	if err != nil || st.IsDir() {
		logx.Error(h.Log, reqID, op, "asset not found", err, "name", name)
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}
	http.ServeFileFS(w, r, h.FS, name)
}
