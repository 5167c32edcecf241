package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/smartmechanic/internal/maintenance"
)

// ListMaintenance 保养记录列表
func (h *Handler) ListMaintenance(c *gin.Context) {
	records, err := h.session.MaintenanceRecords(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to list maintenance records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// AddMaintenance 新增保养记录
func (h *Handler) AddMaintenance(c *gin.Context) {
	var req maintenance.NewRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	record, err := h.session.AddMaintenanceRecord(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to save maintenance record")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": record})
}

// DeleteMaintenance 删除保养记录
func (h *Handler) DeleteMaintenance(c *gin.Context) {
	if err := h.session.DeleteMaintenanceRecord(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to delete maintenance record")
		return
	}
	c.Status(http.StatusNoContent)
}

// MaintenanceSummary 保养分析（Pro）
func (h *Handler) MaintenanceSummary(c *gin.Context) {
	summary, err := h.session.MaintenanceSummary(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to build maintenance summary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// GetLaborRate 工时费
func (h *Handler) GetLaborRate(c *gin.Context) {
	rate, err := h.session.LaborRate(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to load labor rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"labor_rate":            rate,
			"next_service_estimate": maintenance.NextServiceEstimate(rate),
		},
	})
}

// SetLaborRate 设置工时费
func (h *Handler) SetLaborRate(c *gin.Context) {
	var req struct {
		LaborRate *float64 `json:"labor_rate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.session.SetLaborRate(c.Request.Context(), *req.LaborRate); err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "Failed to save labor rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"labor_rate": *req.LaborRate}})
}
