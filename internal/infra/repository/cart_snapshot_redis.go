package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	repo "cartsync/internal/repository"

	"github.com/go-redis/redis/v8"
)

type CartSnapshotRedisRepository struct {
	client *redis.Client
}

var _ repo.CartStorage = (*CartSnapshotRedisRepository)(nil)

// "redis://..." 形式でなければ host:port として扱う
func NewRedisClient(addr string) *redis.Client {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	}
	return redis.NewClient(opts)
}

// DI
func NewCartSnapshotRedisRepository(client *redis.Client) *CartSnapshotRedisRepository {
	return &CartSnapshotRedisRepository{client: client}
}

// keyの保存値を取得
func (r *CartSnapshotRedisRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", repo.ErrStorageUnavailable, err)
	}
	return val, true, nil
}

// 期限なしで上書き
func (r *CartSnapshotRedisRepository) Save(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", repo.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *CartSnapshotRedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
