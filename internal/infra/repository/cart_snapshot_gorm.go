package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartsync/internal/domain/model"
	repo "cartsync/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// undefined_table
const pgUndefinedTable = "42P01"

type CartSnapshotGormRepository struct {
	db *gorm.DB
}

var _ repo.CartStorage = (*CartSnapshotGormRepository)(nil)

// DI
func NewCartSnapshotGormRepository(db *gorm.DB) *CartSnapshotGormRepository {
	return &CartSnapshotGormRepository{db: db}
}

// cart_snapshots テーブルを作る
func (r *CartSnapshotGormRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&model.CartSnapshot{})
}

// keyの保存値を取得
func (r *CartSnapshotGormRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var snap model.CartSnapshot

	err := r.db.WithContext(ctx).
		Where("slot_key = ?", key).
		First(&snap).Error

	if errors.Is(err, gorm.ErrRecordNotFound) || isUndefinedTable(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", repo.ErrStorageUnavailable, err)
	}
	return []byte(snap.Value), true, nil
}

// keyの値を丸ごと上書き（無ければ作成）
func (r *CartSnapshotGormRepository) Save(ctx context.Context, key string, value []byte) error {
	snap := model.CartSnapshot{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now(),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&snap).Error
	if err != nil {
		return fmt.Errorf("%w: %v", repo.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *CartSnapshotGormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
