package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/smartmechanic/internal/sensors"
)

// ListSensors 传感器目录，q 为过滤词
func (h *Handler) ListSensors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": sensors.Filter(c.Query("q"))})
}

// GetSensor 传感器详情
func (h *Handler) GetSensor(c *gin.Context) {
	sensor, ok := sensors.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sensor not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sensor})
}

// GetOBD OBD 连接状态
func (h *Handler) GetOBD(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.session.OBDStatus()})
}

// ConnectOBD 开始模拟连接，进度通过 WebSocket 推送
func (h *Handler) ConnectOBD(c *gin.Context) {
	if err := h.session.ConnectOBD(); err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to connect OBD")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"data": h.session.OBDStatus()})
}

// DisconnectOBD 断开模拟连接
func (h *Handler) DisconnectOBD(c *gin.Context) {
	was := h.session.DisconnectOBD()
	c.JSON(http.StatusOK, gin.H{
		"data":         h.session.OBDStatus(),
		"disconnected": was,
	})
}
