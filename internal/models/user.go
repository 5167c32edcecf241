package models

import "time"

// InitialPoints 登录或注册后新用户的初始积分
const InitialPoints = 50

// User 当前设备用户
type User struct {
	Name          string     `json:"name"`
	Email         string     `json:"email,omitempty"`
	PhotoURL      string     `json:"photo_url,omitempty"`
	IsRegistered  bool       `json:"is_registered"`
	IsPro         bool       `json:"is_pro"`
	Points        int        `json:"points"`
	LastDailyGift *time.Time `json:"last_daily_gift,omitempty"`
}

// Credential 本地注册账户（密码以 bcrypt 哈希保存）
type Credential struct {
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash,omitempty"`
	Provider     string `json:"provider,omitempty"` // 社交登录来源，为空表示密码账户
}
