package usecase

import (
	"context"

	"go.uber.org/zap"
)

type NoticeCode string

const (
	NoticeOutOfStock   NoticeCode = "out_of_stock"
	NoticeAddFailed    NoticeCode = "add_failed"
	NoticeRemoveFailed NoticeCode = "remove_failed"
	NoticeUpdateFailed NoticeCode = "update_failed"
)

var noticeMessages = map[NoticeCode]string{
	NoticeOutOfStock:   "requested quantity not in stock",
	NoticeAddFailed:    "error adding product",
	NoticeRemoveFailed: "error removing product",
	NoticeUpdateFailed: "error updating product quantity",
}

func (c NoticeCode) Message() string {
	return noticeMessages[c]
}

// ユーザーに見せるメッセージ
type Notice struct {
	Code    NoticeCode `json:"code"`
	Message string     `json:"message"`
}

func NewNotice(code NoticeCode) Notice {
	return Notice{Code: code, Message: code.Message()}
}

// 在庫不足はどの操作でも同じメッセージ、それ以外は操作ごとの失敗メッセージ。
// 成功・no-op は false。
func NoticeFor(o Outcome) (Notice, bool) {
	if !o.Failed() {
		return Notice{}, false
	}
	if o.Kind() == FailureOutOfStock {
		return NewNotice(NoticeOutOfStock), true
	}

	switch o.Op {
	case OpAdd:
		return NewNotice(NoticeAddFailed), true
	case OpRemove:
		return NewNotice(NoticeRemoveFailed), true
	default:
		return NewNotice(NoticeUpdateFailed), true
	}
}

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) {
	f(ctx, n)
}

// 結果が失敗なら通知する。CartStore自身は通知しない。
func Notify(ctx context.Context, n Notifier, o Outcome) (Notice, bool) {
	notice, ok := NoticeFor(o)
	if !ok {
		return Notice{}, false
	}
	if n != nil {
		n.Notify(ctx, notice)
	}
	return notice, true
}

// ログに残すだけの通知先
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notice Notice) {
	n.logger.Warn("cart notice",
		zap.String("code", string(notice.Code)),
		zap.String("message", notice.Message),
	)
}
