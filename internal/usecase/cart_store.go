package usecase

import (
	"context"
	"fmt"
	"sync"

	"cartsync/internal/domain/model"
	repo "cartsync/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CartStore は1つのカートの中身を持ち、追加・削除・数量変更を在庫確認つきで行う。
// 変更のたびに新しいCollectionを丸ごと作り、保存してから公開する。
//
// 変更系は writeMu で1つずつ実行する（在庫確認から公開までが対象）。
// 在庫APIとの間の check-then-act は残る。
type CartStore struct {
	key       string
	inventory repo.InventoryService
	storage   repo.CartStorage
	logger    *zap.Logger
	tracer    trace.Tracer

	writeMu sync.Mutex

	mu      sync.RWMutex
	items   model.Collection
	subs    map[int]func(model.Collection)
	nextSub int
	closed  bool
}

// 保存値を読み込んで CartStore を作る。保存値が壊れていたら空のカートで始める。
func NewCartStore(
	ctx context.Context,
	key string,
	inventory repo.InventoryService,
	storage repo.CartStorage,
	logger *zap.Logger,
) (*CartStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CartStore{
		key:       key,
		inventory: inventory,
		storage:   storage,
		logger:    logger.With(zap.String("cart_key", key)),
		tracer:    otel.Tracer("cartsync/usecase"),
		items:     model.Collection{},
		subs:      make(map[int]func(model.Collection)),
	}

	data, found, err := storage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrStorage, key, err)
	}
	if !found {
		return s, nil
	}

	items, err := model.DecodeCollection(data)
	if err != nil {
		s.logger.Warn("discarding unreadable saved cart", zap.Error(err))
		return s, nil
	}
	s.items = items
	return s, nil
}

// 実行中の変更が終わるのを待ってから閉じる。以降の変更系は失敗する。
func (s *CartStore) close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *CartStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *CartStore) Key() string {
	return s.key
}

// 現在の中身（コピー）
func (s *CartStore) Items() model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Clone()
}

// 変更が公開されるたびに fn を呼ぶ。戻り値で解除。
func (s *CartStore) Subscribe(fn func(model.Collection)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// 1つ追加（あれば数量+1、無ければ商品情報を取って数量1で末尾へ）
func (s *CartStore) AddItem(ctx context.Context, productID int64) Outcome {
	ctx, span := s.startSpan(ctx, "CartStore.AddItem", productID)
	defer span.End()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Items()
	if s.isClosed() {
		return s.fail(span, OpAdd, FailureStorage, productID, current, ErrCartClosed)
	}
	idx := current.IndexOf(productID)

	stock, err := s.inventory.GetStock(ctx, productID)
	if err != nil {
		return s.fail(span, OpAdd, FailureTransport, productID, current, fmt.Errorf("%w: %w", ErrInventory, err))
	}

	var currentQty int64
	if idx >= 0 {
		currentQty = current[idx].Quantity
	}
	desired := currentQty + 1

	//在庫チェック
	if desired > stock.Amount {
		return s.fail(span, OpAdd, FailureOutOfStock, productID, current, ErrOutOfStock)
	}

	var next model.Collection
	if idx >= 0 {
		next = current.WithQuantity(idx, desired)
	} else {
		info, err := s.inventory.GetItemInfo(ctx, productID)
		if err != nil {
			return s.fail(span, OpAdd, FailureTransport, productID, current, fmt.Errorf("%w: %w", ErrInventory, err))
		}
		item := info.NewLineItem()
		item.ID = productID
		next = current.Append(item)
	}

	return s.commit(ctx, span, OpAdd, productID, current, next)
}

// 明細を1件削除
func (s *CartStore) RemoveItem(ctx context.Context, productID int64) Outcome {
	ctx, span := s.startSpan(ctx, "CartStore.RemoveItem", productID)
	defer span.End()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Items()
	if s.isClosed() {
		return s.fail(span, OpRemove, FailureStorage, productID, current, ErrCartClosed)
	}
	idx := current.IndexOf(productID)
	if idx < 0 {
		return s.fail(span, OpRemove, FailureNotFound, productID, current, ErrNotInCart)
	}

	return s.commit(ctx, span, OpRemove, productID, current, current.Without(idx))
}

// 数量を amount にする。amount<=0 は何もしない（エラーにもしない）。
func (s *CartStore) SetQuantity(ctx context.Context, productID int64, amount int64) Outcome {
	if amount <= 0 {
		return Outcome{Op: OpUpdate, Items: s.Items()}
	}

	ctx, span := s.startSpan(ctx, "CartStore.SetQuantity", productID)
	defer span.End()
	span.SetAttributes(attribute.Int64("cart.amount", amount))

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Items()
	if s.isClosed() {
		return s.fail(span, OpUpdate, FailureStorage, productID, current, ErrCartClosed)
	}

	stock, err := s.inventory.GetStock(ctx, productID)
	if err != nil {
		return s.fail(span, OpUpdate, FailureTransport, productID, current, fmt.Errorf("%w: %w", ErrInventory, err))
	}
	if amount > stock.Amount {
		return s.fail(span, OpUpdate, FailureOutOfStock, productID, current, ErrOutOfStock)
	}

	idx := current.IndexOf(productID)
	if idx < 0 {
		return s.fail(span, OpUpdate, FailureNotFound, productID, current, ErrNotInCart)
	}

	return s.commit(ctx, span, OpUpdate, productID, current, current.WithQuantity(idx, amount))
}

// 保存→差し替え→購読者へ公開。保存に失敗したら何も変えない。
func (s *CartStore) commit(ctx context.Context, span trace.Span, op Operation, productID int64, prev, next model.Collection) Outcome {
	data, err := next.Encode()
	if err != nil {
		return s.fail(span, op, FailureStorage, productID, prev, fmt.Errorf("%w: %w", ErrStorage, err))
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		return s.fail(span, op, FailureStorage, productID, prev, fmt.Errorf("%w: %w", ErrStorage, err))
	}

	s.mu.Lock()
	s.items = next
	subs := make([]func(model.Collection), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next.Clone())
	}

	s.logger.Debug("cart updated",
		zap.String("op", string(op)),
		zap.Int64("product_id", productID),
		zap.Int("items", len(next)),
	)
	return Outcome{Op: op, Items: next.Clone(), Changed: true}
}

func (s *CartStore) fail(span trace.Span, op Operation, kind FailureKind, productID int64, current model.Collection, err error) Outcome {
	ce := &CartError{Op: op, Kind: kind, ProductID: productID, Err: err}

	span.RecordError(ce)
	span.SetStatus(codes.Error, kind.String())

	s.logger.Info("cart operation rejected",
		zap.String("op", string(op)),
		zap.Int64("product_id", productID),
		zap.Stringer("kind", kind),
		zap.Error(err),
	)
	return Outcome{Op: op, Items: current, Err: ce}
}

func (s *CartStore) startSpan(ctx context.Context, name string, productID int64) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("cart.key", s.key),
		attribute.Int64("product.id", productID),
	))
}
