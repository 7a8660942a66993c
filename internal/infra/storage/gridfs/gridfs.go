// Package gridfs: blob-хранилище поверх MongoDB GridFS (чанки в <bucket>.chunks, описание в <bucket>.files).
package gridfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kalkafox/ionia-img/internal/domain"
)

const defaultChunkSize int32 = 255 * 1024

type Config struct {
	Bucket    string
	ChunkSize int32
}

type Storage struct {
	db     *mongo.Database
	cfg    Config
	logger *log.Logger
}

var _ domain.BlobStorage = (*Storage)(nil)

func New(db *mongo.Database, cfg Config, logger *log.Logger) *Storage {
	if cfg.Bucket == "" {
		cfg.Bucket = options.DefaultName
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Storage{db: db, cfg: cfg, logger: logger}
}

// bucket создаётся на каждую операцию: *gridfs.Bucket держит общий буфер чтения
// и дедлайны, поэтому делить его между запросами нельзя. Сам клиент общий.
func (s *Storage) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db,
		options.GridFSBucket().
			SetName(s.cfg.Bucket).
			SetChunkSizeBytes(s.cfg.ChunkSize),
	)
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(dl); err != nil {
			return nil, err
		}
		if err := b.SetReadDeadline(dl); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Put пишет поток в GridFS под именем name. При ошибке драйвер сам удаляет уже записанные чанки.
func (s *Storage) Put(ctx context.Context, name string, r io.Reader, size int64, mime string) (domain.BlobHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}

	start := time.Now()
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: mime}})
	oid, err := b.UploadFromStream(name, r, opts)
	if err != nil {
		s.logger.Printf("upload %q failed after %s: %v", name, time.Since(start), err)
		return "", fmt.Errorf("gridfs upload %s: %w", name, err)
	}
	s.logger.Printf("upload %q ok in %s file_id=%s size=%d", name, time.Since(start), oid.Hex(), size)
	return domain.BlobHandle(oid.Hex()), nil
}

// Open открывает поток чанков по handle (hex ObjectID).
func (s *Storage) Open(ctx context.Context, h domain.BlobHandle) (io.ReadCloser, int64, error) {
	oid, err := primitive.ObjectIDFromHex(h.String())
	if err != nil {
		return nil, 0, fmt.Errorf("gridfs handle %q: %w", h, domain.ErrNotFound)
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, 0, err
	}
	ds, err := b.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, 0, fmt.Errorf("gridfs open %s: %w", h, domain.ErrNotFound)
		}
		s.logger.Printf("open %s failed: %v", h, err)
		return nil, 0, fmt.Errorf("gridfs open %s: %w", h, err)
	}
	size := int64(-1)
	if f := ds.GetFile(); f != nil {
		size = f.Length
	}
	return ds, size, nil
}

func (s *Storage) Delete(ctx context.Context, h domain.BlobHandle) error {
	oid, err := primitive.ObjectIDFromHex(h.String())
	if err != nil {
		return fmt.Errorf("gridfs handle %q: %w", h, domain.ErrNotFound)
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if err := b.Delete(oid); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		s.logger.Printf("delete %s failed: %v", h, err)
		return fmt.Errorf("gridfs delete %s: %w", h, err)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}
