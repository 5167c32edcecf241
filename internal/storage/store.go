package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/models"
)

// 持久化键
const (
	KeyUser               = "sm_user"
	KeyLanguage           = "sm_lang"
	KeyCookieConsent      = "sm_cookie_consent"
	KeyRegisteredUsers    = "sm_registered_users"
	KeyMaintenanceRecords = "renault_maintenance_logs"
	KeyLaborRate          = "sm_labor_rate"
	KeyLastDailyGift      = "last_daily_gift"
)

// DefaultLaborRate 默认工时费（每小时）
const DefaultLaborRate = 2000.0

// Store 类型化的持久化状态
// 读取时缺失的键返回默认值，损坏的值会被清除并返回默认值
type Store struct {
	kv     KV
	logger *zap.Logger
}

// New 创建 Store
func New(kv KV, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// load 读取并解码，失败时返回默认值
func load[T any](ctx context.Context, s *Store, key string, def T) (T, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("load %s: %w", key, err)
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.reset(ctx, key, err)
		return def, nil
	}
	return v, nil
}

// reset 清除损坏的键
func (s *Store) reset(ctx context.Context, key string, cause error) {
	s.logger.Warn("Discarding corrupted persisted value", zap.String("key", key), zap.Error(cause))
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error("Failed to delete corrupted key", zap.String("key", key), zap.Error(err))
	}
}

// save 编码并写入
func save(ctx context.Context, s *Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// User 当前用户，未登录时返回 nil
func (s *Store) User(ctx context.Context) (*models.User, error) {
	return load[*models.User](ctx, s, KeyUser, nil)
}

// SaveUser 保存当前用户
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return save(ctx, s, KeyUser, user)
}

// ClearUser 删除当前用户
func (s *Store) ClearUser(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}

// Language 界面语言，默认 en
func (s *Store) Language(ctx context.Context) (models.Language, error) {
	code, err := load(ctx, s, KeyLanguage, string(models.DefaultLanguage))
	if err != nil {
		return models.DefaultLanguage, err
	}
	lang, ok := models.ParseLanguage(code)
	if !ok {
		s.reset(ctx, KeyLanguage, fmt.Errorf("unsupported language %q", code))
		return models.DefaultLanguage, nil
	}
	return lang, nil
}

// SetLanguage 保存界面语言
func (s *Store) SetLanguage(ctx context.Context, lang models.Language) error {
	return save(ctx, s, KeyLanguage, string(lang))
}

// CookieConsent 是否已同意 Cookie
func (s *Store) CookieConsent(ctx context.Context) (bool, error) {
	return load(ctx, s, KeyCookieConsent, false)
}

// SetCookieConsent 记录 Cookie 同意
func (s *Store) SetCookieConsent(ctx context.Context, accepted bool) error {
	return save(ctx, s, KeyCookieConsent, accepted)
}

// Credentials 已注册账户列表
func (s *Store) Credentials(ctx context.Context) ([]models.Credential, error) {
	return load[[]models.Credential](ctx, s, KeyRegisteredUsers, nil)
}

// SaveCredentials 保存账户列表
func (s *Store) SaveCredentials(ctx context.Context, creds []models.Credential) error {
	return save(ctx, s, KeyRegisteredUsers, creds)
}

// MaintenanceRecords 保养记录列表
func (s *Store) MaintenanceRecords(ctx context.Context) ([]models.MaintenanceRecord, error) {
	return load[[]models.MaintenanceRecord](ctx, s, KeyMaintenanceRecords, nil)
}

// SaveMaintenanceRecords 保存保养记录
func (s *Store) SaveMaintenanceRecords(ctx context.Context, records []models.MaintenanceRecord) error {
	return save(ctx, s, KeyMaintenanceRecords, records)
}

// LaborRate 工时费
func (s *Store) LaborRate(ctx context.Context) (float64, error) {
	return load(ctx, s, KeyLaborRate, DefaultLaborRate)
}

// SetLaborRate 保存工时费
func (s *Store) SetLaborRate(ctx context.Context, rate float64) error {
	return save(ctx, s, KeyLaborRate, rate)
}

// LastDailyGift 上次领取每日礼物的时间，从未领取时返回 nil
// 以毫秒时间戳保存
func (s *Store) LastDailyGift(ctx context.Context) (*time.Time, error) {
	ms, err := load[int64](ctx, s, KeyLastDailyGift, 0)
	if err != nil || ms <= 0 {
		return nil, err
	}
	t := time.UnixMilli(ms)
	return &t, nil
}

// SetLastDailyGift 记录领取时间
func (s *Store) SetLastDailyGift(ctx context.Context, t time.Time) error {
	return save(ctx, s, KeyLastDailyGift, t.UnixMilli())
}

// ClearLastDailyGift 删除领取时间
func (s *Store) ClearLastDailyGift(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyLastDailyGift); err != nil {
		return fmt.Errorf("clear %s: %w", KeyLastDailyGift, err)
	}
	return nil
}
