package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/kalkafox/ionia-img/internal/domain"
)

type blob struct {
	name string
	mime string
	data []byte
}

type BlobStore struct {
	mu    sync.RWMutex
	blobs map[domain.BlobHandle]blob
	seq   atomic.Uint64
	puts  atomic.Int64
}

var _ domain.BlobStorage = (*BlobStore)(nil)

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[domain.BlobHandle]blob)}
}

// Put вычитывает поток целиком и только потом публикует blob под новым handle.
func (s *BlobStore) Put(ctx context.Context, name string, r io.Reader, _ int64, mime string) (domain.BlobHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.puts.Add(1)
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("memory put %s: %w", name, err)
	}
	h := domain.BlobHandle("mem-" + strconv.FormatUint(s.seq.Add(1), 10))

	s.mu.Lock()
	s.blobs[h] = blob{name: name, mime: mime, data: data}
	s.mu.Unlock()
	return h, nil
}

func (s *BlobStore) Open(ctx context.Context, h domain.BlobHandle) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	b, ok := s.blobs[h]
	s.mu.RUnlock()
	if !ok {
		return nil, 0, fmt.Errorf("memory open %s: %w", h, domain.ErrNotFound)
	}
	// data после Put не меняется, копировать не нужно
	return io.NopCloser(bytes.NewReader(b.data)), int64(len(b.data)), nil
}

func (s *BlobStore) Delete(_ context.Context, h domain.BlobHandle) error {
	s.mu.Lock()
	delete(s.blobs, h)
	s.mu.Unlock()
	return nil
}

func (s *BlobStore) Ping(context.Context) error { return nil }

// Len и PutCalls: счётчики для тестов
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *BlobStore) PutCalls() int64 { return s.puts.Load() }
