package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/api/gemini"
	"github.com/langchou/smartmechanic/internal/auth"
	"github.com/langchou/smartmechanic/internal/faultcode"
	"github.com/langchou/smartmechanic/internal/ledger"
	"github.com/langchou/smartmechanic/internal/maintenance"
	"github.com/langchou/smartmechanic/internal/obd"
	"github.com/langchou/smartmechanic/internal/service"
	"github.com/langchou/smartmechanic/internal/state"
)

// StatusGiftNotReady 每日礼物冷却中
const StatusGiftNotReady = http.StatusTooEarly

// statusFor 错误到状态码的映射，未知错误返回 fallback
func statusFor(err error, fallback int) int {
	var verr *maintenance.ValidationError
	switch {
	case errors.As(err, &verr),
		faultcode.IsValidationError(err),
		errors.Is(err, gemini.ErrInvalidImage),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrUnknownBrand),
		errors.Is(err, service.ErrUnknownLang),
		errors.Is(err, state.ErrUnknownMode),
		errors.Is(err, state.ErrUnknownModel),
		errors.Is(err, state.ErrBrandRequired),
		errors.Is(err, ledger.ErrInvalidShare),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrMissingProvider),
		errors.Is(err, maintenance.ErrInvalidLaborRate):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, ledger.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrInsufficientPoints):
		return http.StatusPaymentRequired
	case errors.Is(err, maintenance.ErrProRequired):
		return http.StatusForbidden
	case errors.Is(err, maintenance.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrBusy),
		errors.Is(err, ledger.ErrAlreadyPro),
		errors.Is(err, auth.ErrUserExists),
		errors.Is(err, state.ErrInvalidTransition),
		errors.Is(err, obd.ErrActive):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrGiftNotReady):
		return StatusGiftNotReady
	case errors.Is(err, service.ErrAIUnavailable):
		return http.StatusServiceUnavailable
	}
	return fallback
}

// respondError 输出错误响应，服务端错误只返回概要信息
func (h *Handler) respondError(c *gin.Context, err error, fallback int, summary string) {
	status := statusFor(err, fallback)

	if status >= http.StatusInternalServerError {
		h.logger.Error(summary, zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		c.JSON(status, gin.H{"error": summary})
		return
	}

	var verr *maintenance.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{"error": err.Error(), "fields": verr.Fields})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// badRequest 请求体无法解析
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}
