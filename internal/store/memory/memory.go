// Package memory is a map-backed store for tests and one-shot runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/sanspareilsmyn/kpilens/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = slices.Clone(blob)
	return nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(blob), nil
}

func (s *Store) Close() error { return nil }
