package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/smartmechanic/internal/models"
	"github.com/langchou/smartmechanic/internal/state"
)

// GetSession 获取会话快照
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.session.Snapshot(c.Request.Context())})
}

// FinishIntro 启动画面结束
// POST /api/intro/finish
func (h *Handler) FinishIntro(c *gin.Context) {
	if err := h.session.FinishIntro(); err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to finish intro")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.session.Snapshot(c.Request.Context()).Navigation})
}

// Navigate 切换模式
func (h *Handler) Navigate(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mode, ok := state.ParseMode(req.Mode)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown mode: " + req.Mode})
		return
	}

	nav, err := h.session.Navigate(mode)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to navigate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nav})
}

// Search 全局搜索
func (h *Handler) Search(c *gin.Context) {
	var req struct {
		Term string `json:"term"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	route, ok, err := h.session.Search(req.Term)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to search")
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"data": nil, "ignored": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": route})
}

// Voice 执行语音指令，transcript 由客户端识别
func (h *Handler) Voice(c *gin.Context) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	action, ok, err := h.session.Voice(req.Transcript)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to run voice command")
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"data": nil, "matched": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": action, "matched": true})
}

// SetLanguage 切换语言
func (h *Handler) SetLanguage(c *gin.Context) {
	var req struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	lang, err := h.session.SetLanguage(c.Request.Context(), req.Language)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to save language")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"language":      lang,
			"speech_locale": lang.SpeechLocale(),
			"rtl":           lang.RTL(),
		},
	})
}

// AcceptCookies 记录 Cookie 同意
func (h *Handler) AcceptCookies(c *gin.Context) {
	if err := h.session.AcceptCookies(c.Request.Context()); err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to save cookie consent")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListBrands 品牌与车型目录
func (h *Handler) ListBrands(c *gin.Context) {
	brands := make([]gin.H, 0, len(models.Brands))
	for _, b := range models.Brands {
		brands = append(brands, gin.H{"name": b, "models": models.TruckModels[b]})
	}
	c.JSON(http.StatusOK, gin.H{"data": brands})
}

// SelectVehicle 选择品牌与车型
// PUT /api/vehicle
// 传入 brand 时先切换品牌（车型随之清空），再设置 model
func (h *Handler) SelectVehicle(c *gin.Context) {
	var req struct {
		Brand *string `json:"brand"`
		Model *string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	nav := h.session.Snapshot(c.Request.Context()).Navigation
	var err error
	if req.Brand != nil {
		if nav, err = h.session.SelectBrand(*req.Brand); err != nil {
			h.respondError(c, err, http.StatusInternalServerError, "Failed to select brand")
			return
		}
	}
	if req.Model != nil {
		if nav, err = h.session.SelectModel(*req.Model); err != nil {
			h.respondError(c, err, http.StatusInternalServerError, "Failed to select model")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": nav})
}
