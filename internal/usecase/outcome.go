package usecase

import (
	"errors"
	"fmt"

	"cartsync/internal/domain/model"
)

type Operation string

const (
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
	OpUpdate Operation = "update"
)

// 失敗の種類
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNotFound
	FailureOutOfStock
	FailureTransport
	FailureStorage
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureNotFound:
		return "not_found"
	case FailureOutOfStock:
		return "out_of_stock"
	case FailureTransport:
		return "transport_failure"
	case FailureStorage:
		return "storage_failure"
	default:
		return "unknown"
	}
}

var (
	ErrNotInCart  = errors.New("product not in cart")
	ErrOutOfStock = errors.New("requested quantity not in stock")
	ErrInventory  = errors.New("inventory lookup failed")
	ErrStorage    = errors.New("cart storage failed")
	ErrCartClosed = errors.New("cart session closed")
)

type CartError struct {
	Op        Operation
	Kind      FailureKind
	ProductID int64
	Err       error
}

func (e *CartError) Error() string {
	return fmt.Sprintf("%s product %d: %v", e.Op, e.ProductID, e.Err)
}

func (e *CartError) Unwrap() error {
	return e.Err
}

func AsCartError(err error) (*CartError, bool) {
	var ce *CartError
	ok := errors.As(err, &ce)
	return ce, ok
}

// 操作の結果。失敗しても Items は呼び出し前の内容のまま。
type Outcome struct {
	Op      Operation
	Items   model.Collection
	Changed bool
	Err     error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

func (o Outcome) Kind() FailureKind {
	if o.Err == nil {
		return FailureNone
	}
	if ce, ok := AsCartError(o.Err); ok {
		return ce.Kind
	}
	return FailureTransport
}
