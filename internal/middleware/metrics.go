// Package middleware gin 中间件：指标与限流
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/langchou/smartmechanic/internal/metrics"
)

// Metrics 记录请求数与耗时，路径使用路由模板避免标签爆炸
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
