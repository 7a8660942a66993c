package s3

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kalkafox/ionia-img/internal/domain"
)

const keyPrefix = "posts/"

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

type Storage struct {
	cl     *minio.Client
	bucket string
	logger *log.Logger
}

var _ domain.BlobStorage = (*Storage)(nil)

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	s := &Storage{cl: cl, bucket: cfg.Bucket, logger: logger}
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context, region string) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	s.logger.Printf("bucket %q not found, creating", s.bucket)
	if err := s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put загружает поток под новым ключом "posts/<name>/<uuid>".
// Ключ уникален на каждую запись, поэтому существующий объект не перезаписывается.
func (s *Storage) Put(ctx context.Context, name string, r io.Reader, size int64, mime string) (domain.BlobHandle, error) {
	key := keyPrefix + sanitize(name) + "/" + uuid.NewString()

	start := time.Now()
	info, err := s.cl.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: mime,
	})
	if err != nil {
		s.logger.Printf("put %q failed after %s: %v", key, time.Since(start), err)
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	s.logger.Printf("put %q ok in %s size=%d", key, time.Since(start), info.Size)
	return domain.BlobHandle(key), nil
}

// Open: сначала HEAD (размер, наличие), потом ленивый GET.
func (s *Storage) Open(ctx context.Context, h domain.BlobHandle) (io.ReadCloser, int64, error) {
	key := h.String()
	if !strings.HasPrefix(key, keyPrefix) {
		return nil, 0, fmt.Errorf("s3 handle %q: %w", key, domain.ErrNotFound)
	}

	info, err := s.cl.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, fmt.Errorf("s3 stat %s: %w", key, domain.ErrNotFound)
		}
		return nil, 0, fmt.Errorf("s3 stat %s: %w", key, err)
	}

	obj, err := s.cl.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("s3 get %s: %w", key, err)
	}
	return obj, info.Size, nil
}

func (s *Storage) Delete(ctx context.Context, h domain.BlobHandle) error {
	return s.cl.RemoveObject(ctx, s.bucket, h.String(), minio.RemoveObjectOptions{})
}

func (s *Storage) Ping(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	default:
		return false
	}
}

func sanitize(name string) string {
	u := url.PathEscape(name)
	return strings.ReplaceAll(u, "%2F", "_")
}
