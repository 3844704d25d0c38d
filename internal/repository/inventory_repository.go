package repository

import (
	"cartsync/internal/domain/model"
	"context"
)

// 在庫・商品情報の参照先（外部のAPI）
type InventoryService interface {
	GetStock(ctx context.Context, productID int64) (model.StockInfo, error)
	GetItemInfo(ctx context.Context, productID int64) (model.ItemInfo, error)
}
