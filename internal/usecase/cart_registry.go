package usecase

import (
	"context"
	"sync"

	repo "cartsync/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartRegistry は持ち主ごとの CartStore を初回アクセス時に作って保持する。
type CartRegistry struct {
	keyPrefix string
	inventory repo.InventoryService
	storage   repo.CartStorage
	logger    *zap.Logger

	mu    sync.RWMutex
	carts map[string]*CartStore
	load  singleflight.Group
}

// DI
func NewCartRegistry(keyPrefix string, inventory repo.InventoryService, storage repo.CartStorage, logger *zap.Logger) *CartRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartRegistry{
		keyPrefix: keyPrefix,
		inventory: inventory,
		storage:   storage,
		logger:    logger,
		carts:     make(map[string]*CartStore),
	}
}

// 保存スロットのキー（owner が空なら prefix そのまま）
func (r *CartRegistry) SlotKey(owner string) string {
	if owner == "" {
		return r.keyPrefix
	}
	return r.keyPrefix + ":" + owner
}

// owner のカートを返す。同じ owner の同時初回アクセスでも読み込みは1回。
// 読み込みは呼び出し元のキャンセルに引きずられない。
func (r *CartRegistry) Cart(ctx context.Context, owner string) (*CartStore, error) {
	if cs, ok := r.lookup(owner); ok {
		return cs, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.load.Do(owner, func() (interface{}, error) {
		if cs, ok := r.lookup(owner); ok {
			return cs, nil
		}

		cs, err := NewCartStore(loadCtx, r.SlotKey(owner), r.inventory, r.storage, r.logger)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.carts[owner] = cs
		r.mu.Unlock()
		return cs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CartStore), nil
}

// 閉じたカートは無いものとして扱う
func (r *CartRegistry) lookup(owner string) (*CartStore, bool) {
	r.mu.RLock()
	cs, ok := r.carts[owner]
	r.mu.RUnlock()
	if !ok || cs.isClosed() {
		return nil, false
	}
	return cs, true
}

// 保持しているカートを捨てる（保存値は消さない）。
// 実行中の変更の保存が終わってから外すので、次の Cart は保存後の値を読む。
func (r *CartRegistry) Forget(owner string) {
	r.mu.RLock()
	cs, ok := r.carts[owner]
	r.mu.RUnlock()
	if !ok {
		return
	}

	cs.close()

	r.mu.Lock()
	if r.carts[owner] == cs {
		delete(r.carts, owner)
	}
	r.mu.Unlock()
}
