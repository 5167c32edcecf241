// Package auth 本地账户注册与校验
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/langchou/smartmechanic/internal/models"
)

// DefaultCost bcrypt 默认强度
const DefaultCost = bcrypt.DefaultCost

// 错误定义
var (
	ErrMissingFields      = errors.New("name and password are required")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrMissingProvider    = errors.New("social provider is required")
)

// Verifier 账户校验接口
type Verifier interface {
	Register(ctx context.Context, name, password string) error
	Verify(ctx context.Context, name, password string) error
	RegisterSocial(ctx context.Context, provider string) (string, error)
}

// CredentialStore 账户列表持久化接口
type CredentialStore interface {
	Credentials(ctx context.Context) ([]models.Credential, error)
	SaveCredentials(ctx context.Context, creds []models.Credential) error
}

// LocalVerifier 基于本地存储的账户校验，密码以 bcrypt 哈希保存
type LocalVerifier struct {
	mu     sync.Mutex
	store  CredentialStore
	cost   int
	logger *zap.Logger
}

// NewLocalVerifier 创建本地校验器，cost 超出范围时使用默认值
func NewLocalVerifier(store CredentialStore, cost int, logger *zap.Logger) *LocalVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &LocalVerifier{store: store, cost: cost, logger: logger}
}

// HashPassword 计算密码哈希
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword 比较密码与哈希
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to check password: %w", err)
	}
	return nil
}

func find(creds []models.Credential, name string) *models.Credential {
	for i := range creds {
		if creds[i].Name == name {
			return &creds[i]
		}
	}
	return nil
}

// Register 注册新账户
func (v *LocalVerifier) Register(ctx context.Context, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return ErrMissingFields
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	creds, err := v.store.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if find(creds, name) != nil {
		return ErrUserExists
	}

	hash, err := HashPassword(password, v.cost)
	if err != nil {
		return err
	}
	creds = append(creds, models.Credential{Name: name, PasswordHash: hash})
	if err := v.store.SaveCredentials(ctx, creds); err != nil {
		return err
	}

	v.logger.Info("Account registered", zap.String("name", name))
	return nil
}

// Verify 校验用户名与密码，社交账户无法通过密码校验
func (v *LocalVerifier) Verify(ctx context.Context, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return ErrMissingFields
	}

	v.mu.Lock()
	creds, err := v.store.Credentials(ctx)
	v.mu.Unlock()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	cred := find(creds, name)
	if cred == nil || cred.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	return CheckPassword(password, cred.PasswordHash)
}

// RegisterSocial 社交登录，账户名为 "<Provider> User"，已存在时直接返回
func (v *LocalVerifier) RegisterSocial(ctx context.Context, provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", ErrMissingProvider
	}
	name := provider + " User"

	v.mu.Lock()
	defer v.mu.Unlock()

	creds, err := v.store.Credentials(ctx)
	if err != nil {
		return "", fmt.Errorf("load credentials: %w", err)
	}
	if find(creds, name) != nil {
		return name, nil
	}

	creds = append(creds, models.Credential{Name: name, Provider: provider})
	if err := v.store.SaveCredentials(ctx, creds); err != nil {
		return "", err
	}
	v.logger.Info("Social account linked", zap.String("provider", provider))
	return name, nil
}
