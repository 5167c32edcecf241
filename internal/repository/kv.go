package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/smartmechanic/internal/storage"
)

// KVRepository 设备键值存储（Postgres）
type KVRepository struct {
	db       *DB
	deviceID string
}

// NewKVRepository 创建键值仓库
func NewKVRepository(db *DB, deviceID string) *KVRepository {
	return &KVRepository{db: db, deviceID: deviceID}
}

// Get 读取
func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM kv_store WHERE device_id = $1 AND key = $2`
	var value string
	err := r.db.Pool.QueryRow(ctx, query, r.deviceID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, nil
}

// Set 写入或覆盖
func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (device_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (device_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Pool.Exec(ctx, query, r.deviceID, key, value, time.Now()); err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

// Delete 删除
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_store WHERE device_id = $1 AND key = $2`
	if _, err := r.db.Pool.Exec(ctx, query, r.deviceID, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

// Close 关闭底层连接池
func (r *KVRepository) Close() error {
	r.db.Close()
	return nil
}
