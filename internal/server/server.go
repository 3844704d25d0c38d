package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cartsync/internal/config"
	"cartsync/internal/handler"
	repo "cartsync/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    config.Config
	echo   *echo.Echo
	logger *zap.Logger
}

// echoを組み立てる
func New(cfg config.Config, cartH *handler.CartHandler, storage repo.CartStorage, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMw.Recover())
	e.Use(echoMw.RequestIDWithConfig(echoMw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	RegisterRoutes(e, cfg, cartH, storage)

	return &Server{cfg: cfg, echo: e, logger: logger}
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, cartH *handler.CartHandler, storage repo.CartStorage) {
	e.GET("/healthz", healthz(storage))
	cartH.RegisterRoutes(e, cfg)
}

// 保存先に届くか
func healthz(storage repo.CartStorage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := storage.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, handler.ErrorResponse{Error: "storage unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// ctxが終わるまで待ち受け、終わったら止める
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr()))
		if err := s.echo.Start(s.cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	return s.echo.Shutdown(shutdownCtx)
}
