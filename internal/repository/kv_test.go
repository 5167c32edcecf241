package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/models"
	"github.com/langchou/smartmechanic/internal/storage"
)

// 需要 TEST_DATABASE_URL 指向可写的 Postgres
func newTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, url)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM kv_store WHERE device_id LIKE 'test-%'`)
		db.Close()
	})
	return db
}

func TestKVRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	kv := NewKVRepository(db, "test-a")

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", `"v1"`))
	require.NoError(t, kv.Set(ctx, "k", `"v2"`))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, v)

	// 设备之间互相隔离
	_, err = NewKVRepository(db, "test-b").Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKVRepositoryBacksStore(t *testing.T) {
	ctx := context.Background()
	store := storage.New(NewKVRepository(newTestDB(t), "test-store"), zap.NewNop())

	require.NoError(t, store.SaveUser(ctx, &models.User{Name: "karim", IsRegistered: true, Points: 50}))
	user, err := store.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 50, user.Points)
}
