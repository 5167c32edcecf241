package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/ledger"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register 注册
func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.session.Register(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to register")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": user})
}

// Login 登录
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.session.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// SocialLogin 社交账户登录（模拟）
func (h *Handler) SocialLogin(c *gin.Context) {
	var req struct {
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.session.SocialLogin(c.Request.Context(), req.Provider)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// Logout 退出登录
func (h *Handler) Logout(c *gin.Context) {
	if err := h.session.Logout(c.Request.Context()); err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to logout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetGiftStatus 每日礼物状态
func (h *Handler) GetGiftStatus(c *gin.Context) {
	status, err := h.session.GiftStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to load gift status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// ClaimGift 领取每日礼物
func (h *Handler) ClaimGift(c *gin.Context) {
	user, err := h.session.ClaimDailyGift(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to claim gift")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// Share 分享奖励
// POST /api/rewards/share
// method 为 native（系统分享成功）或 clipboard（复制链接）
func (h *Handler) Share(c *gin.Context) {
	var req struct {
		Method ledger.ShareMethod `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.session.Share(c.Request.Context(), req.Method)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to record share")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// RedeemPro 积分兑换 Pro
func (h *Handler) RedeemPro(c *gin.Context) {
	user, err := h.session.RedeemPro(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to redeem pro")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// PurchasePro 模拟付费升级
func (h *Handler) PurchasePro(c *gin.Context) {
	user, err := h.session.UpgradeToPro(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to upgrade")
		return
	}

	h.logger.Info("Simulated pro purchase completed", zap.String("name", user.Name))
	c.JSON(http.StatusOK, gin.H{"data": user})
}
