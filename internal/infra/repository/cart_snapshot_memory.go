package repository

import (
	"context"
	"sync"

	repo "cartsync/internal/repository"
)

// プロセス内だけの保存先（開発・テスト用）
type CartSnapshotMemoryRepository struct {
	mu sync.RWMutex
	m  map[string][]byte
}

var _ repo.CartStorage = (*CartSnapshotMemoryRepository)(nil)

func NewCartSnapshotMemoryRepository() *CartSnapshotMemoryRepository {
	return &CartSnapshotMemoryRepository{m: make(map[string][]byte)}
}

func (r *CartSnapshotMemoryRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (r *CartSnapshotMemoryRepository) Save(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.m[key] = append([]byte(nil), value...)
	return nil
}

func (r *CartSnapshotMemoryRepository) Ping(ctx context.Context) error {
	return nil
}
