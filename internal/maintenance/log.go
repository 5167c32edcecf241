// Package maintenance 保养记录管理与费用分析
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/models"
)

// 保养类型
const (
	TypeEngineOil     = "Engine Oil Change"
	TypeOilFilter     = "Oil Filter Change"
	TypeDieselFilter  = "Diesel Filter Change"
	TypeAirFilter     = "Air Filter Change"
	TypeBrakeService  = "Brake Service"
	TypeGearboxOil    = "Gearbox Oil Change"
	TypeElectrical    = "Electrical Repair"
	TypeOther         = "Other"
	dateLayout        = "2006-01-02"
	nextServiceOffset = 20000
)

// Types 表单可选的保养类型
var Types = []string{TypeEngineOil, TypeOilFilter, TypeDieselFilter, TypeAirFilter, TypeBrakeService, TypeGearboxOil, TypeElectrical, TypeOther}

// Rate 标准配件价格与工时
type Rate struct {
	Parts float64 `json:"parts"`
	Hours float64 `json:"hours"`
}

// StandardRates 各保养类型的标准费用
var StandardRates = map[string]Rate{
	TypeEngineOil:    {Parts: 12000, Hours: 1.0},
	TypeOilFilter:    {Parts: 3500, Hours: 0.5},
	TypeDieselFilter: {Parts: 4500, Hours: 0.8},
	TypeAirFilter:    {Parts: 6000, Hours: 0.3},
	TypeBrakeService: {Parts: 18000, Hours: 2.5},
	TypeGearboxOil:   {Parts: 25000, Hours: 1.5},
}

// 错误定义
var (
	ErrRecordNotFound   = errors.New("maintenance record not found")
	ErrProRequired      = errors.New("maintenance analytics require pro")
	ErrInvalidLaborRate = errors.New("labor rate must not be negative")
)

// ValidationError 记录字段校验失败
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, tag := range e.Fields {
		parts = append(parts, field+": "+tag)
	}
	sort.Strings(parts)
	return "invalid maintenance record: " + strings.Join(parts, ", ")
}

// NewRecord 新增保养记录的表单
type NewRecord struct {
	Date    string   `json:"date" validate:"required,datetime=2006-01-02"`
	Type    string   `json:"type" validate:"omitempty,max=100"`
	Mileage *int     `json:"mileage" validate:"required,min=0"`
	Notes   string   `json:"notes" validate:"omitempty,max=2000"`
	Cost    *float64 `json:"cost" validate:"omitempty,min=0"`
}

// Store 保养记录持久化接口
type Store interface {
	MaintenanceRecords(ctx context.Context) ([]models.MaintenanceRecord, error)
	SaveMaintenanceRecords(ctx context.Context, records []models.MaintenanceRecord) error
	LaborRate(ctx context.Context) (float64, error)
	SetLaborRate(ctx context.Context, rate float64) error
}

// Log 保养记录本，每次修改立即写回存储
type Log struct {
	mu       sync.Mutex
	store    Store
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

// NewLog 创建保养记录本
func NewLog(store Store, logger *zap.Logger) *Log {
	return &Log{
		store:    store,
		validate: validator.New(),
		now:      time.Now,
		logger:   logger,
	}
}

// List 按日期从新到旧返回所有记录
func (l *Log) List(ctx context.Context) ([]models.MaintenanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.MaintenanceRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	sortNewestFirst(records)
	return records, nil
}

// Add 校验并新增记录
func (l *Log) Add(ctx context.Context, in NewRecord) (*models.MaintenanceRecord, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Type = strings.TrimSpace(in.Type)
	if err := l.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[strings.ToLower(fe.Field())] = fe.Tag()
			}
			return nil, &ValidationError{Fields: fields}
		}
		return nil, fmt.Errorf("validate record: %w", err)
	}

	record := models.MaintenanceRecord{
		ID:      uuid.NewString(),
		Date:    in.Date,
		Type:    in.Type,
		Mileage: *in.Mileage,
		Notes:   in.Notes,
		Cost:    in.Cost,
	}
	if record.Type == "" {
		record.Type = TypeOther
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.MaintenanceRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	records = append([]models.MaintenanceRecord{record}, records...)
	sortNewestFirst(records)
	if err := l.store.SaveMaintenanceRecords(ctx, records); err != nil {
		return nil, err
	}

	l.logger.Info("Maintenance record added",
		zap.String("id", record.ID),
		zap.String("type", record.Type),
		zap.Int("mileage", record.Mileage),
	)
	return &record, nil
}

// Delete 删除指定记录
func (l *Log) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.MaintenanceRecords(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	kept := make([]models.MaintenanceRecord, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return ErrRecordNotFound
	}

	sortNewestFirst(kept)
	if err := l.store.SaveMaintenanceRecords(ctx, kept); err != nil {
		return err
	}
	l.logger.Info("Maintenance record deleted", zap.String("id", id))
	return nil
}

// LaborRate 每小时工时费
func (l *Log) LaborRate(ctx context.Context) (float64, error) {
	return l.store.LaborRate(ctx)
}

// SetLaborRate 设置工时费
func (l *Log) SetLaborRate(ctx context.Context, rate float64) error {
	if rate < 0 {
		return ErrInvalidLaborRate
	}
	return l.store.SetLaborRate(ctx, rate)
}

// Summary 保养统计，仅 Pro 用户可用
func (l *Log) Summary(ctx context.Context, user *models.User) (*models.MaintenanceSummary, error) {
	if user == nil || !user.IsPro {
		return nil, ErrProRequired
	}

	records, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	rate, err := l.store.LaborRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("load labor rate: %w", err)
	}

	summary := &models.MaintenanceSummary{
		Count:               len(records),
		HealthScore:         HealthScore(records, l.now()),
		NextServiceKm:       NextServiceKm(records),
		NextServiceEstimate: NextServiceEstimate(rate),
		LaborRate:           rate,
	}
	for _, r := range records {
		if r.Cost != nil {
			summary.TotalCost += *r.Cost
		}
	}
	return summary, nil
}

// HealthScore 车辆保养健康分，records 需按从新到旧排序
func HealthScore(records []models.MaintenanceRecord, now time.Time) int {
	if len(records) == 0 {
		return 0
	}
	last, ok := parseDate(records[0].Date)
	if !ok {
		return 0
	}

	score := 100
	days := now.Sub(last).Hours() / 24
	if days > 90 {
		score -= 10
	}
	if days > 180 {
		score -= 20
	}

	hasOil := false
	for _, r := range records {
		if isOilService(r.Type) {
			hasOil = true
			break
		}
	}
	if !hasOil {
		score -= 30
	}
	if score < 0 {
		score = 0
	}
	return score
}

// NextServiceKm 下次换机油里程：最近一次换机油里程 + 20000
func NextServiceKm(records []models.MaintenanceRecord) *int {
	for _, r := range records {
		if isEngineOil(r.Type) {
			if r.Mileage <= 0 {
				return nil
			}
			km := r.Mileage + nextServiceOffset
			return &km
		}
	}
	return nil
}

// NextServiceEstimate 下次保养（机油 + 机油滤芯）预估费用
func NextServiceEstimate(laborRate float64) float64 {
	oil := StandardRates[TypeEngineOil]
	filter := StandardRates[TypeOilFilter]
	return oil.Parts + filter.Parts + (oil.Hours+filter.Hours)*laborRate
}

func isEngineOil(t string) bool {
	t = strings.ToLower(t)
	return strings.Contains(t, "engine oil") || strings.Contains(t, "زيت محرك") || strings.Contains(t, "huile moteur")
}

func isOilService(t string) bool {
	t = strings.ToLower(t)
	return strings.Contains(t, "oil") || strings.Contains(t, "زيت") || strings.Contains(t, "huile")
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// sortNewestFirst 按日期倒序，无法解析的日期排在最后
func sortNewestFirst(records []models.MaintenanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, aok := parseDate(records[i].Date)
		b, bok := parseDate(records[j].Date)
		if aok != bok {
			return aok
		}
		return a.After(b)
	})
}
