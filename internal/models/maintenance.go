package models

// MaintenanceRecord 保养记录
type MaintenanceRecord struct {
	ID      string   `json:"id"`
	Date    string   `json:"date"` // YYYY-MM-DD
	Type    string   `json:"type"`
	Mileage int      `json:"mileage"`
	Notes   string   `json:"notes"`
	Cost    *float64 `json:"cost,omitempty"`
}

// MaintenanceSummary 保养统计（Pro 功能）
type MaintenanceSummary struct {
	Count               int     `json:"count"`
	TotalCost           float64 `json:"total_cost"`
	HealthScore         int     `json:"health_score"`
	NextServiceKm       *int    `json:"next_service_km,omitempty"`
	NextServiceEstimate float64 `json:"next_service_estimate"`
	LaborRate           float64 `json:"labor_rate"`
}
