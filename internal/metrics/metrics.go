// Package metrics Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 服务指标集合
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	DiagnosisRequests *prometheus.CounterVec
	DiagnosisDuration *prometheus.HistogramVec
	PointsAwarded     *prometheus.CounterVec
	RateLimited       *prometheus.CounterVec
	WSClients         prometheus.GaugeFunc
}

// New 在 reg 上注册指标，reg 为 nil 时使用默认注册表
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmechanic_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartmechanic_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DiagnosisRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmechanic_diagnosis_requests_total",
				Help: "AI requests by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		DiagnosisDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartmechanic_diagnosis_duration_seconds",
				Help:    "AI request latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"kind"},
		),
		PointsAwarded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmechanic_points_total",
				Help: "Points credited or debited by reason",
			},
			[]string{"reason", "direction"},
		),
		RateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartmechanic_rate_limited_total",
				Help: "Requests rejected by the AI rate limiter",
			},
			[]string{"path"},
		),
	}
}

// ObservePoints 记录积分变化
func (m *Metrics) ObservePoints(reason string, amount int) {
	if amount >= 0 {
		m.PointsAwarded.WithLabelValues(reason, "credit").Add(float64(amount))
		return
	}
	m.PointsAwarded.WithLabelValues(reason, "debit").Add(float64(-amount))
}

// RegisterClientGauge 注册 WebSocket 连接数
func (m *Metrics) RegisterClientGauge(reg prometheus.Registerer, count func() int) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m.WSClients = promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "smartmechanic_ws_clients",
			Help: "Connected WebSocket clients",
		},
		func() float64 { return float64(count()) },
	)
}
