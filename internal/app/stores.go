package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kalkafox/ionia-img/internal/config"
	"github.com/kalkafox/ionia-img/internal/domain"
	redisx "github.com/kalkafox/ionia-img/internal/infra/cache/redis"
	mongox "github.com/kalkafox/ionia-img/internal/infra/database/mongo"
	"github.com/kalkafox/ionia-img/internal/infra/database/postgres"
	"github.com/kalkafox/ionia-img/internal/infra/memory"
	"github.com/kalkafox/ionia-img/internal/infra/storage/gridfs"
	s3storage "github.com/kalkafox/ionia-img/internal/infra/storage/s3"
)

// Stores: долгоживущие клиенты хранилищ, по одному на процесс.
type Stores struct {
	Repo  domain.Repo
	Blobs domain.BlobStorage
	Cache domain.Cache // nil, если REDIS_ADDR пуст

	mongo *mongo.Client
	log   *log.Logger
}

func sub(base *log.Logger, name string) *log.Logger {
	return log.New(base.Writer(), base.Prefix()+"["+name+"] ", base.Flags())
}

// OpenStores открывает хранилище метаданных, blob-хранилище и кеш по конфигурации.
// Для MongoDB клиент один на Repo и GridFS.
func OpenStores(ctx context.Context, cfg *config.Config, base *log.Logger) (*Stores, error) {
	s := &Stores{log: base}
	if err := s.openRepo(ctx, cfg, base, false); err != nil {
		return nil, err
	}

	if err := s.openBlobs(ctx, cfg, base); err != nil {
		s.Close()
		return nil, err
	}

	if cfg.RedisAddr != "" {
		base.Println("init Redis")
		rc := redisx.New(redisx.Config{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		}, sub(base, "redis"))
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			s.Close()
			return nil, fmt.Errorf("failed init redis: %w", err)
		}
		s.Cache = rc
		base.Println("Redis is initialized")
	} else {
		base.Println("REDIS_ADDR is empty, cache disabled")
	}
	return s, nil
}

// OpenRepo открывает только хранилище метаданных (админские команды).
func OpenRepo(ctx context.Context, cfg *config.Config, base *log.Logger) (*Stores, error) {
	s := &Stores{log: base}
	if err := s.openRepo(ctx, cfg, base, true); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stores) openRepo(ctx context.Context, cfg *config.Config, base *log.Logger, repoOnly bool) error {
	switch cfg.Backend() {
	case config.BackendMongo:
		base.Println("init MongoDB")
		client, err := mongox.Connect(ctx, sub(base, "mongo"), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed init mongo: %w", err)
		}
		repo, err := mongox.NewRepo(ctx, sub(base, "mongo"), client, cfg.DBName, repoOnly)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return fmt.Errorf("failed init mongo repo: %w", err)
		}
		s.Repo = repo
		if !repoOnly {
			s.mongo = client
		}
		base.Println("MongoDB is initialized")
	case config.BackendPostgres:
		base.Println("init PostgreSQL")
		repo, err := postgres.NewPGRepo(ctx, sub(base, "postgres"), cfg.DatabaseURL, cfg.DBScheme)
		if err != nil {
			return fmt.Errorf("failed init postgres: %w", err)
		}
		s.Repo = repo
		base.Println("PostgreSQL is initialized")
	case config.BackendMemory:
		base.Println("using in-memory metadata store, data is lost on exit")
		s.Repo = memory.NewRepo()
	default:
		return fmt.Errorf("unsupported backend %q", cfg.Backend())
	}
	return nil
}

func (s *Stores) openBlobs(ctx context.Context, cfg *config.Config, base *log.Logger) error {
	switch cfg.BlobStore {
	case config.BlobGridFS:
		if s.mongo == nil {
			return fmt.Errorf("BLOB_STORE=gridfs requires the mongo backend")
		}
		base.Println("init GridFS storage")
		s.Blobs = gridfs.New(s.mongo.Database(cfg.DBName), gridfs.Config{
			Bucket:    cfg.GridFSBucket,
			ChunkSize: cfg.GridFSChunkSize,
		}, sub(base, "gridfs"))
	case config.BlobS3:
		base.Println("init S3 storage")
		st, err := s3storage.New(ctx, s3storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		}, sub(base, "s3"))
		if err != nil {
			return fmt.Errorf("failed init s3: %w", err)
		}
		s.Blobs = st
	case config.BlobMemory:
		base.Println("using in-memory blob store, data is lost on exit")
		s.Blobs = memory.NewBlobStore()
	default:
		return fmt.Errorf("unsupported blob store %q", cfg.BlobStore)
	}
	return nil
}

// Close закрывает всё, что было открыто; безопасен при частичной инициализации.
func (s *Stores) Close() {
	if s.Cache != nil {
		s.Cache.Close()
	}
	if s.Repo != nil {
		s.Repo.Close()
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Disconnect(ctx); err != nil {
			s.log.Printf("mongo disconnect: %v", err)
		}
	}
}
