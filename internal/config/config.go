package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Бэкенды метаданных, определяются по схеме DATABASE_URL
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Бэкенды blob-хранилища
const (
	BlobGridFS = "gridfs"
	BlobS3     = "s3"
	BlobMemory = "memory"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBName      string `mapstructure:"DB_NAME"`
	DBScheme    string `mapstructure:"DB_SCHEME"`

	BlobStore       string `mapstructure:"BLOB_STORE"`
	GridFSBucket    string `mapstructure:"GRIDFS_BUCKET"`
	GridFSChunkSize int32  `mapstructure:"GRIDFS_CHUNK_SIZE"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// --- Redis (пустой адрес = без кеша) ---
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	CacheTTLSeconds int    `mapstructure:"CACHE_TTL_SECONDS"`

	MaxUploadBytes   int64  `mapstructure:"MAX_UPLOAD_BYTES"`
	AssetsPath       string `mapstructure:"ASSETS_PATH"`
	DefaultURLPrefix string `mapstructure:"DEFAULT_URL_PREFIX"`
}

var defaults = map[string]any{
	"PORT":               "3030",
	"DB_NAME":            "ionia-pw",
	"DB_SCHEME":          "public",
	"GRIDFS_BUCKET":      "fs",
	"GRIDFS_CHUNK_SIZE":  255 * 1024,
	"CACHE_TTL_SECONDS":  3600,
	"MAX_UPLOAD_BYTES":   200_000_000,
	"ASSETS_PATH":        "/frontend/dist",
	"DEFAULT_URL_PREFIX": "https://i.ionia.pw",
}

// String реализует Stringer, секреты маскируются
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Port: %s\n", c.Port))
	sb.WriteString(fmt.Sprintf("  DatabaseURL: %s\n", redactURL(c.DatabaseURL)))
	sb.WriteString(fmt.Sprintf("  Backend: %s\n", c.Backend()))
	sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
	sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))
	sb.WriteString(fmt.Sprintf("  BlobStore: %s\n", c.BlobStore))
	if c.BlobStore == BlobGridFS {
		sb.WriteString(fmt.Sprintf("  GridFSBucket: %s\n", c.GridFSBucket))
		sb.WriteString(fmt.Sprintf("  GridFSChunkSize: %d\n", c.GridFSChunkSize))
	}

	// S3
	if c.BlobStore == BlobS3 {
		sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
		sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
		sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
		sb.WriteString(fmt.Sprintf("  S3AccessKey: %s\n", mask(c.S3AccessKey)))
		sb.WriteString(fmt.Sprintf("  S3SecretKey: %s\n", mask(c.S3SecretKey)))
		sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
		sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))
	}

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	sb.WriteString(fmt.Sprintf("  RedisPassword: %s\n", mask(c.RedisPassword)))
	sb.WriteString(fmt.Sprintf("  CacheTTLSeconds: %d\n", c.CacheTTLSeconds))
	sb.WriteString(fmt.Sprintf("  MaxUploadBytes: %d\n", c.MaxUploadBytes))
	sb.WriteString(fmt.Sprintf("  AssetsPath: %s\n", c.AssetsPath))
	sb.WriteString(fmt.Sprintf("  DefaultURLPrefix: %s\n", c.DefaultURLPrefix))

	return sb.String()
}

// LoadFromEnv загружает конфигурацию из переменных окружения
func LoadFromEnv() (*Config, error) {
	// .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	keys := []string{
		"PORT", "DATABASE_URL", "DB_NAME", "DB_SCHEME",
		"BLOB_STORE", "GRIDFS_BUCKET", "GRIDFS_CHUNK_SIZE",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "CACHE_TTL_SECONDS",
		"MAX_UPLOAD_BYTES", "ASSETS_PATH", "DEFAULT_URL_PREFIX",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные поля и выставляет blob-бэкенд по умолчанию.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL must be set")
	}
	backend := c.Backend()
	if backend == "" {
		return fmt.Errorf("DATABASE_URL: unsupported scheme in %q", redactURL(c.DatabaseURL))
	}

	if c.BlobStore == "" {
		switch backend {
		case BackendMongo:
			c.BlobStore = BlobGridFS
		case BackendPostgres:
			c.BlobStore = BlobS3
		default:
			c.BlobStore = BlobMemory
		}
	}

	switch c.BlobStore {
	case BlobGridFS:
		if backend != BackendMongo {
			return errors.New("BLOB_STORE=gridfs requires a mongodb DATABASE_URL")
		}
	case BlobS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			return errors.New("BLOB_STORE=s3 requires S3_ENDPOINT and S3_BUCKET")
		}
	case BlobMemory:
	default:
		return fmt.Errorf("BLOB_STORE: unknown value %q", c.BlobStore)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.DefaultURLPrefix == "" {
		c.DefaultURLPrefix = defaults["DEFAULT_URL_PREFIX"].(string)
	}
	return nil
}

// Backend возвращает бэкенд метаданных по схеме DATABASE_URL или "".
func (c *Config) Backend() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return BackendMongo
	case "postgres", "postgresql":
		return BackendPostgres
	case "memory":
		return BackendMemory
	default:
		return ""
	}
}

// Addr: адрес для http.Server
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}
