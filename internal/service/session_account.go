package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/ledger"
	"github.com/langchou/smartmechanic/internal/maintenance"
	"github.com/langchou/smartmechanic/internal/models"
	"github.com/langchou/smartmechanic/pkg/ws"
)

// Register 注册本地账户并登录
func (s *SessionService) Register(ctx context.Context, name, password string) (*models.User, error) {
	if err := s.verifier.Register(ctx, name, password); err != nil {
		return nil, err
	}
	return s.signIn(ctx, name)
}

// Login 账户密码登录
func (s *SessionService) Login(ctx context.Context, name, password string) (*models.User, error) {
	if err := s.verifier.Verify(ctx, name, password); err != nil {
		s.logger.Info("Login rejected", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return s.signIn(ctx, name)
}

// SocialLogin 社交账户登录（模拟）
func (s *SessionService) SocialLogin(ctx context.Context, provider string) (*models.User, error) {
	name, err := s.verifier.RegisterSocial(ctx, provider)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, name)
}

// signIn 创建当前用户并离开登录页
func (s *SessionService) signIn(ctx context.Context, name string) (*models.User, error) {
	user := &models.User{
		Name:         strings.TrimSpace(name),
		IsRegistered: true,
		Points:       models.InitialPoints,
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	s.setUser(user)

	if err := s.nav.Login(); err != nil {
		s.logger.Warn("Failed to leave auth screen", zap.Error(err))
	}
	s.logger.Info("User signed in", zap.String("name", user.Name))
	return copyUser(user), nil
}

// Logout 退出登录，删除当前用户
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.ClearUser(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.publish(ws.MsgTypeUserUpdated, nil)

	if err := s.nav.Logout(); err != nil {
		return err
	}
	s.logger.Info("User signed out")
	return nil
}

// GiftStatus 每日礼物状态
func (s *SessionService) GiftStatus(ctx context.Context) (ledger.GiftStatus, error) {
	return s.ledger.GiftStatus(ctx)
}

// ClaimDailyGift 领取每日礼物
func (s *SessionService) ClaimDailyGift(ctx context.Context) (*models.User, error) {
	user, err := s.ledger.ClaimDailyGift(ctx)
	if err != nil {
		return nil, err
	}
	s.setUser(user)

	if status, err := s.ledger.GiftStatus(ctx); err == nil {
		s.publish(ws.MsgTypeGiftStatus, status)
	}
	return user, nil
}

// Share 分享奖励
func (s *SessionService) Share(ctx context.Context, method ledger.ShareMethod) (*models.User, error) {
	user, err := s.ledger.RecordShare(ctx, method)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

// RedeemPro 积分兑换 Pro
func (s *SessionService) RedeemPro(ctx context.Context) (*models.User, error) {
	user, err := s.ledger.RedeemPro(ctx)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

// UpgradeToPro 模拟付费升级
func (s *SessionService) UpgradeToPro(ctx context.Context) (*models.User, error) {
	user, err := s.ledger.UpgradeToPro(ctx)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	s.logger.Info("Pro unlocked by purchase", zap.String("name", user.Name))
	return user, nil
}

// MaintenanceRecords 保养记录
func (s *SessionService) MaintenanceRecords(ctx context.Context) ([]models.MaintenanceRecord, error) {
	return s.maintenance.List(ctx)
}

// AddMaintenanceRecord 新增保养记录
func (s *SessionService) AddMaintenanceRecord(ctx context.Context, in maintenance.NewRecord) (*models.MaintenanceRecord, error) {
	return s.maintenance.Add(ctx, in)
}

// DeleteMaintenanceRecord 删除保养记录
func (s *SessionService) DeleteMaintenanceRecord(ctx context.Context, id string) error {
	return s.maintenance.Delete(ctx, id)
}

// LaborRate 工时费
func (s *SessionService) LaborRate(ctx context.Context) (float64, error) {
	return s.maintenance.LaborRate(ctx)
}

// SetLaborRate 设置工时费
func (s *SessionService) SetLaborRate(ctx context.Context, rate float64) error {
	return s.maintenance.SetLaborRate(ctx, rate)
}

// MaintenanceSummary 保养分析，仅 Pro 用户可用
func (s *SessionService) MaintenanceSummary(ctx context.Context) (*models.MaintenanceSummary, error) {
	return s.maintenance.Summary(ctx, s.User())
}
