package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLog returns a gin middleware that writes one structured line per
// request and attaches the base logger to the request context, so downstream
// code reaching for logger.L(ctx) or FromContext(ctx) gets a real logger.
//
// Health checks are only logged when they fail; a scraped /healthz would
// otherwise dominate the log volume.
func AccessLog(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), base))

		c.Next()

		status := c.Writer.Status()
		if isHealthPath(path) && status < 400 {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if requestID := requestIDFrom(c); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= 500:
			base.Error("http request", fields...)
		case status >= 400:
			base.Warn("http request", fields...)
		default:
			base.Info("http request", fields...)
		}
	}
}

// Recovery returns a gin middleware that converts panics into 500 responses
// with a stack trace in the log instead of a dead connection.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				fields := []zap.Field{
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", err),
					zap.Stack("stacktrace"),
				}
				if requestID := requestIDFrom(c); requestID != "" {
					fields = append(fields, zap.String("request_id", requestID))
				}
				base.Error("panic recovered", fields...)
				c.AbortWithStatus(500)
			}
		}()
		c.Next()
	}
}

// requestIDFrom prefers the gin key set by the request-id middleware and
// falls back to the request context.
func requestIDFrom(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return GetRequestID(c.Request.Context())
}

func isHealthPath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}
