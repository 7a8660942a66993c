package domain

import (
	"context"
	"io"
)

// BlobStorage: хранилище бинарного контента (GridFS, S3/MinIO, память).
// Put атомарен с точки зрения вызывающего: либо весь payload сохранён и вернулся handle,
// либо ошибка и ничего видимого не осталось.
type BlobStorage interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, mime string) (BlobHandle, error)
	// Open возвращает поток и размер; ErrNotFound, если blob отсутствует.
	Open(ctx context.Context, h BlobHandle) (io.ReadCloser, int64, error)
	// Delete используется только для уборки осиротевших blob после неудачной вставки Post.
	Delete(ctx context.Context, h BlobHandle) error
	Ping(ctx context.Context) error
}
