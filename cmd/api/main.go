package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"cartsync/internal/config"
	"cartsync/internal/handler"
	"cartsync/internal/infra/db"
	"cartsync/internal/infra/inventoryapi"
	infraRepo "cartsync/internal/infra/repository"
	"cartsync/internal/obs"
	repo "cartsync/internal/repository"
	"cartsync/internal/server"
	"cartsync/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(cfg.GoEnv)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	//保存先
	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()
	logger.Info("cart storage ready", zap.String("driver", cfg.StorageDriver))

	//在庫サービス
	inventory := inventoryapi.NewClient(cfg.InventoryBaseURL, cfg.InventoryTimeout)

	//Usecase / Handler
	carts := usecase.NewCartRegistry(cfg.StorageKey, inventory, storage, logger)
	cartH := handler.NewCartHandler(carts, usecase.NewLogNotifier(logger))

	return server.New(cfg, cartH, storage, logger).Run(ctx)
}

func openStorage(ctx context.Context, cfg config.Config) (repo.CartStorage, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageDriverRedis:
		client := infraRepo.NewRedisClient(cfg.RedisAddr)
		return infraRepo.NewCartSnapshotRedisRepository(client), func() { _ = client.Close() }, nil

	case config.StorageDriverMemory:
		return infraRepo.NewCartSnapshotMemoryRepository(), func() {}, nil

	default:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		snapshots := infraRepo.NewCartSnapshotGormRepository(gormDB)
		if err := snapshots.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		closeFn := func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return snapshots, closeFn, nil
	}
}
