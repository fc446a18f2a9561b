package metrics

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// GinMiddleware records a request counter sample once the handler chain
// completes. Unmatched routes collapse into a single "unknown" label to keep
// cardinality bounded.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		HTTPRequests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
