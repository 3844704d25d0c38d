package handler

import (
	"errors"
	"net/http"

	"cartsync/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errUnauthorized) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if errors.Is(err, usecase.ErrStorage) {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "cart unavailable"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
