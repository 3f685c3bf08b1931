package middleware

import (
	"strconv"
	"time"

	"github.com/ErlanBelekov/todo-app/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request latency and count, labelled by route template so
// task IDs do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := []string{c.Request.Method, route, strconv.Itoa(c.Writer.Status())}

		metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
	}
}
