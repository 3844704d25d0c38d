// Package obs は ログとトレースの初期化をまとめる。
package obs

import (
	"go.uber.org/zap"
)

// GO_ENV=prod なら JSON、それ以外は開発用の読みやすい出力
func NewLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
