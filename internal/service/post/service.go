// Package post: сценарии загрузки и отдачи постов поверх портов domain.
package post

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/kalkafox/ionia-img/internal/domain"
	"github.com/kalkafox/ionia-img/internal/metrics"
	"github.com/kalkafox/ionia-img/internal/shortid"
)

// DataField: единственное имя multipart-части, которое принимает загрузка.
const DataField = "data"

// сколько раз перегенерируем id, если вставка упёрлась в уникальный индекс
const maxInsertAttempts = 3

// Part: одна часть multipart-тела.
type Part interface {
	io.Reader
	FormName() string
	ContentType() string
}

// PartReader отдаёт части по очереди; io.EOF, когда частей больше нет.
type PartReader interface {
	NextPart() (Part, error)
}

type Authorizer interface {
	Check(ctx context.Context, key string) error
}

type Service struct {
	Auth    Authorizer
	Repo    domain.Repo
	Blobs   domain.BlobStorage
	Cache   domain.Cache     // nil = без кеша
	Metrics metrics.Observer // nil = без метрик
	Log     *log.Logger

	// DefaultURLPrefix: если в хранилище нет SiteConfig; пусто = domain.DefaultURLPrefix
	DefaultURLPrefix string
	CacheTTLSeconds  int
}

// Upload: ключ → часть data → id → blob → Post → "<url_prefix>/<id>".
// До успешной проверки ключа из parts не читается ни байта.
func (s *Service) Upload(ctx context.Context, key string, parts PartReader) (string, error) {
	url, size, err := s.upload(ctx, key, parts)
	s.observer().RecordUpload(uploadOutcome(err), size)
	return url, err
}

func (s *Service) upload(ctx context.Context, key string, parts PartReader) (string, int64, error) {
	if err := s.Auth.Check(ctx, key); err != nil {
		return "", 0, err
	}

	part, err := parts.NextPart()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", 0, fmt.Errorf("no %q part: %w", DataField, domain.ErrBadParams)
		}
		return "", 0, classifyBodyErr(err)
	}
	if name := part.FormName(); name != DataField {
		return "", 0, fmt.Errorf("part %q: %w", name, domain.ErrUnknownField)
	}
	mime := part.ContentType()
	if mime == "" {
		return "", 0, fmt.Errorf("part %q without content type: %w", DataField, domain.ErrBadParams)
	}

	// тело части копится в памяти и уходит в хранилище одной записью
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, part); err != nil {
		return "", 0, classifyBodyErr(err)
	}
	size := int64(buf.Len())

	prefix, err := s.urlPrefix(ctx)
	if err != nil {
		return "", 0, err
	}

	id, err := s.newID(ctx)
	if err != nil {
		return "", 0, err
	}

	handle, err := s.Blobs.Put(ctx, id, bytes.NewReader(buf.Bytes()), size, mime)
	if err != nil {
		s.Log.Printf("blob put failed id=%s: %v", id, err)
		return "", 0, fmt.Errorf("blob put: %v: %w", err, domain.ErrUnexpected)
	}

	p := domain.Post{ID: id, BlobHandle: handle, MIME: mime, SizeBytes: size, CreatedAt: time.Now().UTC()}
	if err := s.insertPost(ctx, &p); err != nil {
		s.dropOrphan(handle)
		return "", 0, err
	}

	s.Log.Printf("upload ok id=%s mime=%q size=%d", p.ID, p.MIME, size)
	return prefix + "/" + p.ID, size, nil
}

// insertPost пишет Post; при конфликте id перегенерирует его ограниченное число раз.
func (s *Service) insertPost(ctx context.Context, p *domain.Post) error {
	for attempt := 1; ; attempt++ {
		err := s.Repo.CreatePost(ctx, *p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			s.Log.Printf("create post failed id=%s: %v", p.ID, err)
			return fmt.Errorf("create post: %v: %w", err, domain.ErrUnexpected)
		}
		if attempt >= maxInsertAttempts {
			return fmt.Errorf("id collisions after %d attempts: %w", attempt, domain.ErrUnexpected)
		}
		s.Log.Printf("id collision on insert id=%s, regenerating", p.ID)
		id, err := s.newID(ctx)
		if err != nil {
			return err
		}
		p.ID = id
	}
}

func (s *Service) newID(ctx context.Context) (string, error) {
	id, err := shortid.Unique(shortid.Length, func(id string) (bool, error) {
		return s.Repo.PostExists(ctx, id)
	})
	if err != nil {
		s.Log.Printf("id generation failed: %v", err)
		return "", fmt.Errorf("generate id: %v: %w", err, domain.ErrUnexpected)
	}
	return id, nil
}

// dropOrphan: blob без Post никому не виден, удаляем без гарантий
func (s *Service) dropOrphan(h domain.BlobHandle) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Blobs.Delete(ctx, h); err != nil {
		s.Log.Printf("orphan blob %s not deleted: %v", h, err)
	}
}

func (s *Service) urlPrefix(ctx context.Context) (string, error) {
	cfg, found, err := s.Repo.SiteConfig(ctx)
	if err != nil {
		s.Log.Printf("site config read failed: %v", err)
		return "", fmt.Errorf("site config: %v: %w", err, domain.ErrUnexpected)
	}
	prefix := s.DefaultURLPrefix
	if prefix == "" {
		prefix = domain.DefaultURLPrefix
	}
	if found && cfg.URLPrefix != "" {
		prefix = cfg.URLPrefix
	}
	return strings.TrimRight(prefix, "/"), nil
}

// Download: id → Post → поток blob. Без авторизации.
func (s *Service) Download(ctx context.Context, id domain.PostID) (domain.Blob, error) {
	b, err := s.download(ctx, id)
	s.observer().RecordDownload(downloadOutcome(err))
	return b, err
}

func (s *Service) download(ctx context.Context, id domain.PostID) (domain.Blob, error) {
	if !domain.ValidPostID(id) {
		return domain.Blob{}, fmt.Errorf("id %q: %w", id, domain.ErrNotFound)
	}
	// все выданные id имеют форму shortid; прочее не ищем в хранилище
	if !shortid.Valid(id) {
		return domain.Blob{}, fmt.Errorf("id %q: %w", id, domain.ErrNotFound)
	}

	p, err := s.lookup(ctx, id)
	if err != nil {
		return domain.Blob{}, err
	}

	body, size, err := s.Blobs.Open(ctx, p.BlobHandle)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.Log.Printf("blob missing for post id=%s handle=%s", id, p.BlobHandle)
			return domain.Blob{}, err
		}
		s.Log.Printf("blob open failed id=%s: %v", id, err)
		return domain.Blob{}, fmt.Errorf("blob open: %v: %w", err, domain.ErrUnexpected)
	}
	return domain.Blob{Body: body, Size: size, MIME: p.MIME}, nil
}

// lookup читает Post через кеш: посты неизменяемы, инвалидация не нужна.
func (s *Service) lookup(ctx context.Context, id domain.PostID) (domain.Post, error) {
	ck := domain.CacheKeyPost(id)
	if s.Cache != nil {
		raw, err := s.Cache.Get(ctx, ck)
		switch {
		case err != nil:
			s.Log.Printf("cache get %s failed: %v", ck, err)
		case raw != nil:
			var p domain.Post
			if err := json.Unmarshal(raw, &p); err == nil && p.BlobHandle != "" {
				s.observer().RecordCacheLookup("post", true)
				return p, nil
			}
			s.Log.Printf("cache entry %s is malformed, ignoring", ck)
		}
		s.observer().RecordCacheLookup("post", false)
	}

	p, err := s.Repo.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Post{}, err
		}
		s.Log.Printf("post lookup failed id=%s: %v", id, err)
		return domain.Post{}, fmt.Errorf("post lookup: %v: %w", err, domain.ErrUnexpected)
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(p); err == nil {
			if err := s.Cache.Set(ctx, ck, raw, s.CacheTTLSeconds); err != nil {
				s.Log.Printf("cache set %s failed: %v", ck, err)
			}
		}
	}
	return p, nil
}

// classifyBodyErr: ErrTooLarge от транспорта пропускаем, прочее (битый multipart, обрыв) → ErrBadParams.
func classifyBodyErr(err error) error {
	if errors.Is(err, domain.ErrTooLarge) || errors.Is(err, domain.ErrBadParams) {
		return err
	}
	return fmt.Errorf("read body: %v: %w", err, domain.ErrBadParams)
}

func (s *Service) observer() metrics.Observer {
	if s.Metrics == nil {
		return metrics.NoopObserver{}
	}
	return s.Metrics
}

func uploadOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrUnauth):
		return metrics.OutcomeUnauth
	case errors.Is(err, domain.ErrTooLarge):
		return metrics.OutcomeTooLarge
	case errors.Is(err, domain.ErrBadParams), errors.Is(err, domain.ErrUnknownField):
		return metrics.OutcomeBadRequest
	default:
		return metrics.OutcomeError
	}
}

func downloadOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
