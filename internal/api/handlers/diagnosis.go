package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/langchou/smartmechanic/internal/faultcode"
)

// codeRequest 故障码表单，text 与字段二选一
type codeRequest struct {
	faultcode.Input
	Text string `json:"text"`
}

// DiagnoseCode 故障码诊断
// POST /api/diagnosis/code
func (h *Handler) DiagnoseCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := req.Input
	if text := strings.TrimSpace(req.Text); text != "" {
		data, err := faultcode.Parse(text)
		if err != nil {
			h.respondError(c, err, http.StatusBadRequest, "Failed to parse fault code")
			return
		}
		in = faultcode.Input{MID: data.MID, FMI: data.FMI, Mode: faultcode.ModePID, Value: data.PID}
		if data.SID != "" {
			in.Mode, in.Value = faultcode.ModeSID, data.SID
		}
	}

	out, err := h.session.DiagnoseFaultCode(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, http.StatusBadGateway, "Diagnosis request failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// DiagnoseImage 图片诊断，image 为 base64 JPEG（可带 data: 前缀）
func (h *Handler) DiagnoseImage(c *gin.Context) {
	var req struct {
		Image string `json:"image" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.session.DiagnoseImage(c.Request.Context(), req.Image)
	if err != nil {
		h.respondError(c, err, http.StatusBadGateway, "Image diagnosis request failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GetDiagnosis 当前诊断报告
func (h *Handler) GetDiagnosis(c *gin.Context) {
	report := h.session.Diagnosis()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No diagnosis yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

// GetChat 当前对话记录
func (h *Handler) GetChat(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.session.Chat()})
}

// SendChat 发送对话消息
func (h *Handler) SendChat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reply, err := h.session.SendChat(c.Request.Context(), req.Message)
	if err != nil {
		h.respondError(c, err, http.StatusBadGateway, "Chat request failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reply})
}
