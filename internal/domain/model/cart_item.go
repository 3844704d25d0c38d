package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var lineItemKeys = []string{"id", "title", "price", "image", "amount"}

// カートの明細
// title/price/image と Attributes は在庫サービスから受け取った値をそのまま持つ。
// JSONのキーはストアフロントの保存形式（amount=数量）に合わせ、Attributes は同じ階層に並べる。
type LineItem struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	Quantity   int64           `json:"amount"`
	Attributes Attributes      `json:"-"`
}

type lineItemJSON LineItem

func (it LineItem) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(lineItemJSON(it))
	if err != nil {
		return nil, err
	}
	return mergeAttributes(known, it.Attributes)
}

func (it *LineItem) UnmarshalJSON(data []byte) error {
	var v lineItemJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	attrs, err := splitAttributes(data, lineItemKeys...)
	if err != nil {
		return err
	}
	*it = LineItem(v)
	it.Attributes = attrs
	return nil
}

// 小計（price × quantity）
func (it LineItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}
