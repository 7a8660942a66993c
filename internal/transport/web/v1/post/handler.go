package post

import (
	"context"
	"log"

	"github.com/kalkafox/ionia-img/internal/domain"
	postsvc "github.com/kalkafox/ionia-img/internal/service/post"
)

type Service interface {
	Upload(ctx context.Context, key string, parts postsvc.PartReader) (string, error)
	Download(ctx context.Context, id domain.PostID) (domain.Blob, error)
}

type Handler struct {
	Log   *log.Logger
	Posts Service

	MaxUploadBytes int64
}
