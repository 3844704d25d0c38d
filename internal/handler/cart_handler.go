package handler

import (
	"errors"
	"net/http"
	"strconv"

	"cartsync/internal/config"
	"cartsync/internal/domain/model"
	"cartsync/internal/middleware"
	"cartsync/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /cartのHTTP
type CartHandler struct {
	carts    *usecase.CartRegistry
	notifier usecase.Notifier
}

// DI
func NewCartHandler(carts *usecase.CartRegistry, notifier usecase.Notifier) *CartHandler {
	return &CartHandler{carts: carts, notifier: notifier}
}

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id"`
}

type UpdateCartItemRequest struct {
	Amount *int64 `json:"amount"`
}

// カートの中身。失敗時は notice つきで変更前の中身を返す。
type CartResponse struct {
	Items  []model.LineItem `json:"items"`
	Total  decimal.Decimal  `json:"total"`
	Notice *usecase.Notice  `json:"notice,omitempty"`
}

// /cart, /cart/items/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.getCart)
	g.DELETE("/session", h.closeSession)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	cart, err := h.cartFor(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newCartResponse(cart.Items(), nil))
}

// 持ち主のカートをメモリから外す（保存値はそのまま）
func (h *CartHandler) closeSession(c echo.Context) error {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	h.carts.Forget(owner)
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) addItem(c echo.Context) error {
	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.ProductID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	cart, err := h.cartFor(c)
	if err != nil {
		return writeError(c, err)
	}

	return h.writeOutcome(c, cart.AddItem(c.Request().Context(), req.ProductID))
}

func (h *CartHandler) patchItem(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Amount == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount required"})
	}

	cart, err := h.cartFor(c)
	if err != nil {
		return writeError(c, err)
	}

	return h.writeOutcome(c, cart.SetQuantity(c.Request().Context(), productID, *req.Amount))
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	cart, err := h.cartFor(c)
	if err != nil {
		return writeError(c, err)
	}

	return h.writeOutcome(c, cart.RemoveItem(c.Request().Context(), productID))
}

func (h *CartHandler) cartFor(c echo.Context) (*usecase.CartStore, error) {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		return nil, errUnauthorized
	}
	return h.carts.Cart(c.Request().Context(), owner)
}

// 失敗なら通知してステータスを付ける。成功・no-opは200。
func (h *CartHandler) writeOutcome(c echo.Context, o usecase.Outcome) error {
	notice, failed := usecase.Notify(c.Request().Context(), h.notifier, o)
	if !failed {
		return c.JSON(http.StatusOK, newCartResponse(o.Items, nil))
	}
	return c.JSON(statusForKind(o.Kind()), newCartResponse(o.Items, &notice))
}

func newCartResponse(items model.Collection, notice *usecase.Notice) CartResponse {
	if items == nil {
		items = model.Collection{}
	}
	return CartResponse{
		Items:  items,
		Total:  items.Total(),
		Notice: notice,
	}
}

func statusForKind(k usecase.FailureKind) int {
	switch k {
	case usecase.FailureNotFound:
		return http.StatusNotFound
	case usecase.FailureOutOfStock:
		return http.StatusConflict
	case usecase.FailureTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errUnauthorized = errors.New("unauthorized")
