package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dino-analyzer/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	OutcomeKey   = "analysisOutcome"
	ErrorCodeKey = "errorCode"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		outcome := c.GetString(OutcomeKey)
		errorCode := c.GetString(ErrorCodeKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"outcome":     outcome,
			"error_code":  errorCode,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"bytes_in":    c.Request.ContentLength,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
