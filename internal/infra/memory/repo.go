// Package memory: хранилища в памяти процесса для локального запуска (DATABASE_URL=memory://) и тестов.
package memory

import (
	"context"
	"sync"

	"github.com/kalkafox/ionia-img/internal/domain"
)

type Repo struct {
	mu     sync.RWMutex
	posts  map[domain.PostID]domain.Post
	keys   map[string]struct{}
	cfg    domain.SiteConfig
	hasCfg bool
}

var _ domain.Repo = (*Repo)(nil)

func NewRepo() *Repo {
	return &Repo{
		posts: make(map[domain.PostID]domain.Post),
		keys:  make(map[string]struct{}),
	}
}

func (r *Repo) CreatePost(ctx context.Context, p domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[p.ID]; ok {
		return domain.ErrConflict
	}
	r.posts[p.ID] = p
	return nil
}

func (r *Repo) PostByID(ctx context.Context, id domain.PostID) (domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return domain.Post{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *Repo) PostExists(ctx context.Context, id domain.PostID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.posts[id]
	return ok, nil
}

// PostCount нужен тестам для проверки «никаких записей не появилось»
func (r *Repo) PostCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts)
}

func (r *Repo) HasKey(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[key]
	return ok, nil
}

func (r *Repo) AddKey(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key] = struct{}{}
	return nil
}

func (r *Repo) SiteConfig(context.Context) (domain.SiteConfig, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg, r.hasCfg, nil
}

func (r *Repo) SetURLPrefix(_ context.Context, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = domain.SiteConfig{URLPrefix: prefix}
	r.hasCfg = true
	return nil
}

func (r *Repo) Ping(context.Context) error { return nil }
func (r *Repo) Close()                     {}
