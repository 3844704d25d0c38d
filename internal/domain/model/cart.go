package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidCollection = errors.New("invalid cart collection")

// カートの中身。並び順＝表示順、同じIDは1件まで。
// 変更系メソッドはすべて新しいスライスを返し、元は書き換えない。
type Collection []LineItem

// IDの位置を返す（無ければ -1）
func (c Collection) IndexOf(id int64) int {
	for i, it := range c {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// コピー（nilは空スライスにする）
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// i番目の数量だけ差し替えたコピー
func (c Collection) WithQuantity(i int, qty int64) Collection {
	out := c.Clone()
	out[i].Quantity = qty
	return out
}

// i番目を除いたコピー（残りの順序は維持）
func (c Collection) Without(i int) Collection {
	out := make(Collection, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...)
}

// 末尾に追加したコピー
func (c Collection) Append(it LineItem) Collection {
	out := make(Collection, 0, len(c)+1)
	out = append(out, c...)
	return append(out, it)
}

// 合計金額
func (c Collection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.Subtotal())
	}
	return total
}

// 数量>=1 とIDの一意性を確認
func (c Collection) Validate() error {
	seen := make(map[int64]struct{}, len(c))
	for _, it := range c {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %d has quantity %d", ErrInvalidCollection, it.ID, it.Quantity)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("%w: duplicate item %d", ErrInvalidCollection, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// 保存用のJSON配列にする
func (c Collection) Encode() ([]byte, error) {
	return json.Marshal(c.Clone())
}

// 保存値から復元する。空・null は空のカート。
func DecodeCollection(data []byte) (Collection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Collection{}, nil
	}

	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCollection, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}
