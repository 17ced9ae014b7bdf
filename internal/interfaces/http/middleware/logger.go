package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"kaiapay.backend/pkg/logger"
)

// LoggerMiddleware logs HTTP requests using the structured logger
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.LogRequest(c.Request.Context(), c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// routeOf returns the matched route template, keeping label cardinality bounded
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
