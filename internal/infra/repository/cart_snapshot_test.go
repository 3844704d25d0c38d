package repository

import (
	"context"
	"os"
	"testing"

	repo "cartsync/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// どの実装でも同じ約束を満たすか
func exerciseCartStorage(t *testing.T, s repo.CartStorage, key string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	//未保存は found=false
	v, found, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)

	//保存→取得
	require.NoError(t, s.Save(ctx, key, []byte(`[{"id":1,"amount":1}]`)))
	v, found, err = s.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":1,"amount":1}]`, string(v))

	//丸ごと上書き
	require.NoError(t, s.Save(ctx, key, []byte(`[]`)))
	v, found, err = s.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, string(v))

	//別キーは独立
	_, found, err = s.Load(ctx, key+":other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCartSnapshotMemoryRepository(t *testing.T) {
	exerciseCartStorage(t, NewCartSnapshotMemoryRepository(), "cart:1")
}

func TestCartSnapshotMemoryRepository_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewCartSnapshotMemoryRepository()

	in := []byte(`[]`)
	require.NoError(t, s.Save(ctx, "cart", in))
	in[0] = 'x'

	out, _, err := s.Load(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))
}

func TestCartSnapshotRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedisClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	exerciseCartStorage(t, NewCartSnapshotRedisRepository(client), "cart:1")
}

func TestCartSnapshotRedisRepository_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := NewRedisClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	s := NewCartSnapshotRedisRepository(client)
	_, _, err = s.Load(context.Background(), "cart")
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)

	err = s.Save(context.Background(), "cart", []byte(`[]`))
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
}

// TEST_DATABASE_URL がある時だけ実DBで確認する
func TestCartSnapshotGormRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	s := NewCartSnapshotGormRepository(gdb)
	require.NoError(t, s.Migrate(context.Background()))

	exerciseCartStorage(t, s, "cart:"+uuid.NewString())
}
