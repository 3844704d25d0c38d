package repository

import (
	"context"
	"errors"
)

var ErrStorageUnavailable = errors.New("cart storage unavailable")

// カートの保存スロット。keyごとに値を丸ごと上書きする。
type CartStorage interface {
	// 保存値を返す。無ければ found=false。
	Load(ctx context.Context, key string) (value []byte, found bool, err error)
	Save(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}
