package domain

import (
	"io"
	"time"
)

// PostID: публичный короткий идентификатор, который получает загрузивший.
type PostID = string

// BlobHandle: непрозрачная ссылка в хранилище контента.
// Назначается самим хранилищем при записи (GridFS ObjectID, ключ S3 и т.д.).
type BlobHandle string

func (h BlobHandle) String() string { return string(h) }

// Post связывает публичный id с blob и его mime.
// Создаётся один раз после успешной записи blob, дальше не меняется.
type Post struct {
	ID         PostID     `json:"id"`
	BlobHandle BlobHandle `json:"blob_handle"`
	MIME       string     `json:"mime_type"`
	SizeBytes  int64      `json:"size_bytes"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SiteConfig: singleton-настройки, ядро их только читает.
type SiteConfig struct {
	URLPrefix string `json:"url_prefix"`
}

// DefaultURLPrefix используется, если в хранилище нет записи конфигурации.
const DefaultURLPrefix = "https://i.ionia.pw"

// Blob: открытый поток контента для отдачи клиенту.
type Blob struct {
	Body io.ReadCloser
	Size int64 // -1, если неизвестен
	MIME string
}
