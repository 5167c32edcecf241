// Package ledger 积分账本：诊断奖励、每日礼物、分享奖励与 Pro 兑换
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/models"
)

// 积分规则
const (
	PointsFaultDiagnosis = 5
	PointsImageDiagnosis = 10
	PointsDailyGift      = 100
	PointsShareNative    = 50
	PointsShareClipboard = 10
	ProUpgradeCost       = 500

	GiftInterval = 24 * time.Hour
)

// Reason 积分变动原因
type Reason string

const (
	ReasonFaultDiagnosis Reason = "fault_diagnosis"
	ReasonImageDiagnosis Reason = "image_diagnosis"
	ReasonDailyGift      Reason = "daily_gift"
	ReasonShare          Reason = "share"
	ReasonProUpgrade     Reason = "pro_upgrade"
)

// ShareMethod 分享方式
type ShareMethod string

const (
	ShareNative    ShareMethod = "native"
	ShareClipboard ShareMethod = "clipboard"
)

// 错误定义
var (
	ErrNoUser             = errors.New("no signed-in user")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrAlreadyPro         = errors.New("user is already pro")
	ErrGiftNotReady       = errors.New("daily gift not available yet")
	ErrInvalidShare       = errors.New("share method must be native or clipboard")
)

// Store 账本依赖的持久化接口
type Store interface {
	User(ctx context.Context) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	LastDailyGift(ctx context.Context) (*time.Time, error)
	SetLastDailyGift(ctx context.Context, t time.Time) error
	ClearLastDailyGift(ctx context.Context) error
}

// GiftStatus 每日礼物状态
type GiftStatus struct {
	Available bool          `json:"available"`
	Remaining time.Duration `json:"-"`
	TimeLeft  string        `json:"time_left,omitempty"` // 例如 "3h 25m"
	LastClaim *time.Time    `json:"last_claim,omitempty"`
}

// Ledger 积分账本，所有变动串行执行并立即持久化
type Ledger struct {
	mu      sync.Mutex
	store   Store
	now     func() time.Time
	logger  *zap.Logger
	onAward func(reason Reason, amount int)
}

// Option 账本选项
type Option func(*Ledger)

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithAwardHook 积分变动回调，用于统计
func WithAwardHook(fn func(reason Reason, amount int)) Option {
	return func(l *Ledger) { l.onAward = fn }
}

// New 创建账本
func New(store Store, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// currentUser 读取当前用户，需持有锁
func (l *Ledger) currentUser(ctx context.Context) (*models.User, error) {
	user, err := l.store.User(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

func (l *Ledger) award(reason Reason, amount int) {
	if l.onAward != nil {
		l.onAward(reason, amount)
	}
}

// AddPoints 增减积分并写回，amount 可为负数
func (l *Ledger) AddPoints(ctx context.Context, amount int) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, err := l.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user.Points += amount
	if err := l.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Award 按规则发放积分
func (l *Ledger) Award(ctx context.Context, reason Reason, amount int) (*models.User, error) {
	user, err := l.AddPoints(ctx, amount)
	if err != nil {
		return nil, err
	}
	l.award(reason, amount)
	l.logger.Debug("Points awarded",
		zap.String("reason", string(reason)),
		zap.Int("amount", amount),
		zap.Int("balance", user.Points),
	)
	return user, nil
}

// GiftStatus 查询每日礼物是否可领取
func (l *Ledger) GiftStatus(ctx context.Context) (GiftStatus, error) {
	last, err := l.store.LastDailyGift(ctx)
	if err != nil {
		return GiftStatus{}, fmt.Errorf("load last gift: %w", err)
	}
	return giftStatus(last, l.now()), nil
}

func giftStatus(last *time.Time, now time.Time) GiftStatus {
	if last == nil {
		return GiftStatus{Available: true}
	}
	elapsed := now.Sub(*last)
	if elapsed >= GiftInterval {
		return GiftStatus{Available: true, LastClaim: last}
	}
	remaining := GiftInterval - elapsed
	hours := int(remaining / time.Hour)
	minutes := int((remaining % time.Hour) / time.Minute)
	return GiftStatus{
		Remaining: remaining,
		TimeLeft:  fmt.Sprintf("%dh %dm", hours, minutes),
		LastClaim: last,
	}
}

// ClaimDailyGift 领取每日礼物，距上次领取不足 24 小时则拒绝
func (l *Ledger) ClaimDailyGift(ctx context.Context) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	last, err := l.store.LastDailyGift(ctx)
	if err != nil {
		return nil, fmt.Errorf("load last gift: %w", err)
	}
	if status := giftStatus(last, now); !status.Available {
		return nil, fmt.Errorf("%w: %s left", ErrGiftNotReady, status.TimeLeft)
	}

	user, err := l.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	// 先记录领取时间，用户写入失败时恢复，避免重复领取
	if err := l.store.SetLastDailyGift(ctx, now); err != nil {
		return nil, err
	}
	user.Points += PointsDailyGift
	user.LastDailyGift = &now
	if err := l.store.SaveUser(ctx, user); err != nil {
		l.restoreLastGift(ctx, last)
		return nil, err
	}

	l.award(ReasonDailyGift, PointsDailyGift)
	l.logger.Info("Daily gift claimed", zap.Int("balance", user.Points))
	return user, nil
}

// restoreLastGift 恢复上次领取时间
func (l *Ledger) restoreLastGift(ctx context.Context, last *time.Time) {
	var err error
	if last == nil {
		err = l.store.ClearLastDailyGift(ctx)
	} else {
		err = l.store.SetLastDailyGift(ctx, *last)
	}
	if err != nil {
		l.logger.Error("Failed to restore last gift time", zap.Error(err))
	}
}

// RecordShare 分享成功后发放奖励
func (l *Ledger) RecordShare(ctx context.Context, method ShareMethod) (*models.User, error) {
	var amount int
	switch method {
	case ShareNative:
		amount = PointsShareNative
	case ShareClipboard:
		amount = PointsShareClipboard
	default:
		return nil, ErrInvalidShare
	}
	return l.Award(ctx, ReasonShare, amount)
}

// RedeemPro 使用积分兑换 Pro，扣分与开通在同一次写入中完成
func (l *Ledger) RedeemPro(ctx context.Context) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, err := l.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.IsPro {
		return nil, ErrAlreadyPro
	}
	if user.Points < ProUpgradeCost {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, user.Points, ProUpgradeCost)
	}

	user.Points -= ProUpgradeCost
	user.IsPro = true
	if err := l.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	l.award(ReasonProUpgrade, -ProUpgradeCost)
	l.logger.Info("Pro unlocked with points", zap.Int("balance", user.Points))
	return user, nil
}

// UpgradeToPro 付费开通 Pro（支付流程为模拟），不扣积分
func (l *Ledger) UpgradeToPro(ctx context.Context) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, err := l.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.IsPro {
		return nil, ErrAlreadyPro
	}
	user.IsPro = true
	if err := l.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	l.logger.Info("Pro unlocked by payment")
	return user, nil
}
