package domain

import "context"

// Ключ кеша поста
func CacheKeyPost(id PostID) string { return "post:" + id }

// Простой k/v интерфейс. Реализация: Redis.
// Get возвращает (nil, nil) при промахе.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
	Ping(context.Context) error
	Close()
}
