// Package apikey: проверка предъявленного ключа по набору ключей в хранилище метаданных.
package apikey

import (
	"context"
	"fmt"
	"log"

	"github.com/kalkafox/ionia-img/internal/domain"
)

// Guard не кеширует ответы: ключи отзываются вне сервиса, и отозванный ключ
// должен перестать работать на следующем же запросе.
type Guard struct {
	Keys domain.KeysRepo
	Log  *log.Logger
}

func New(keys domain.KeysRepo, logger *log.Logger) *Guard {
	return &Guard{Keys: keys, Log: logger}
}

// Check возвращает nil, только если ключ есть в наборе.
// Пустой ключ отклоняется без обращения к хранилищу.
func (g *Guard) Check(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrUnauth
	}

	ok, err := g.Keys.HasKey(ctx, key)
	if err != nil {
		g.Log.Printf("key lookup failed: %v", err)
		return fmt.Errorf("key lookup: %v: %w", err, domain.ErrUnexpected)
	}
	if !ok {
		return domain.ErrUnauth
	}
	return nil
}
