package middleware

import (
	"strconv"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 记录请求数与耗时，path 使用路由模板，未匹配的路由记为 unmatched
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
