// Package inventoryapi は在庫APIの HTTP クライアント。
package inventoryapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cartsync/internal/domain/model"
	"cartsync/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrMalformed        = errors.New("malformed response")
)

// レスポンス本文の上限
const maxBodyBytes = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

var _ repository.InventoryService = (*Client)(nil)

// DI
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		tracer:  otel.Tracer("cartsync/inventoryapi"),
	}
}

// stock/{id} の本文。amount が無いものは使えない。
type stockBody struct {
	ID     int64  `json:"id"`
	Amount *int64 `json:"amount"`
}

// GET stock/{id}
func (c *Client) GetStock(ctx context.Context, productID int64) (model.StockInfo, error) {
	var body stockBody
	if err := c.getJSON(ctx, "/stock/"+strconv.FormatInt(productID, 10), &body); err != nil {
		return model.StockInfo{}, err
	}

	if body.ID != 0 && body.ID != productID {
		return model.StockInfo{}, fmt.Errorf("%w: stock for %d returned id %d", ErrMalformed, productID, body.ID)
	}
	if body.Amount == nil {
		return model.StockInfo{}, fmt.Errorf("%w: stock for %d has no amount", ErrMalformed, productID)
	}
	if *body.Amount < 0 {
		return model.StockInfo{}, fmt.Errorf("%w: negative stock %d", ErrMalformed, *body.Amount)
	}
	return model.StockInfo{ID: productID, Amount: *body.Amount}, nil
}

// GET products/{id}
func (c *Client) GetItemInfo(ctx context.Context, productID int64) (model.ItemInfo, error) {
	var info model.ItemInfo
	if err := c.getJSON(ctx, "/products/"+strconv.FormatInt(productID, 10), &info); err != nil {
		return model.ItemInfo{}, err
	}

	if info.ID != 0 && info.ID != productID {
		return model.ItemInfo{}, fmt.Errorf("%w: product %d returned id %d", ErrMalformed, productID, info.ID)
	}
	info.ID = productID
	return info, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "inventory GET "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", c.baseURL+path)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: GET %s: %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrMalformed, path, err)
	}
	return nil
}
