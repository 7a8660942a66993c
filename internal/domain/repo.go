package domain

import "context"

type PostsRepo interface {
	// CreatePost возвращает ErrConflict, если id уже занят. Существующую запись не перезаписывает.
	CreatePost(ctx context.Context, p Post) error
	// PostByID возвращает ErrNotFound, если записи нет.
	PostByID(ctx context.Context, id PostID) (Post, error)
	PostExists(ctx context.Context, id PostID) (bool, error)
}

type KeysRepo interface {
	HasKey(ctx context.Context, key string) (bool, error)
	// AddKey нужен только для админских команд
	AddKey(ctx context.Context, key string) error
}

type SiteConfigRepo interface {
	// SiteConfig: found=false, если singleton ещё не заведён
	SiteConfig(ctx context.Context) (cfg SiteConfig, found bool, err error)
	SetURLPrefix(ctx context.Context, prefix string) error
}

// Repo: хранилище метаданных целиком (Mongo, Postgres, память)
type Repo interface {
	PostsRepo
	KeysRepo
	SiteConfigRepo
	Ping(context.Context) error
	Close()
}
