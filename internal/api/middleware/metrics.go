package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"classroom-reservation/pkg/metrics"
)

// Metrics 记录请求耗时，path 取路由模板避免标签基数膨胀
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
