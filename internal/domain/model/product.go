package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var itemInfoKeys = []string{"id", "title", "price", "image"}

// 在庫サービスの GET products/{id}
// title/price/image 以外の項目は Attributes にそのまま残す。
type ItemInfo struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	Attributes Attributes      `json:"-"`
}

type itemInfoJSON ItemInfo

func (i ItemInfo) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(itemInfoJSON(i))
	if err != nil {
		return nil, err
	}
	return mergeAttributes(known, i.Attributes)
}

func (i *ItemInfo) UnmarshalJSON(data []byte) error {
	var v itemInfoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	attrs, err := splitAttributes(data, itemInfoKeys...)
	if err != nil {
		return err
	}
	*i = ItemInfo(v)
	i.Attributes = attrs
	return nil
}

// 数量1の明細を作る
func (i ItemInfo) NewLineItem() LineItem {
	return LineItem{
		ID:         i.ID,
		Title:      i.Title,
		Price:      i.Price,
		Image:      i.Image,
		Quantity:   1,
		Attributes: i.Attributes.without(lineItemKeys...),
	}
}

// 在庫サービスの GET stock/{id}。保存はしない。
type StockInfo struct {
	ID     int64 `json:"id"`
	Amount int64 `json:"amount"`
}
