package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/cinevibe/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// LoggerMiddleware attaches a request-scoped logger to the request context.
// An incoming X-Request-ID is reused; otherwise a new one is generated.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logger.WithRequest(log.WithContext(c.Request.Context()), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(loggerKey, logger.FromContext(ctx))
		c.Header(requestIDHeader, requestID)

		c.Next()

		if query != "" {
			path += "?" + query
		}
		entry := logger.With(logger.Fields{
			logger.FieldStatus: c.Writer.Status(),
			logger.FieldSize:   c.Writer.Size(),
		}).WithDuration(time.Since(start))

		// probes and scrapes are noisy at info
		if c.FullPath() == "/health" || c.FullPath() == "/metrics" {
			entry.Debug(ctx, "%s %s", c.Request.Method, path)
			return
		}
		if c.Writer.Status() >= 500 {
			entry.Error(ctx, "%s %s failed", c.Request.Method, path)
			return
		}
		entry.Info(ctx, "%s %s", c.Request.Method, path)
	}
}

// GetLogger returns the request logger, falling back to the request context.
func GetLogger(c *gin.Context) *logger.Logger {
	if l, exists := c.Get(loggerKey); exists {
		if log, ok := l.(*logger.Logger); ok {
			return log
		}
	}
	return logger.FromContext(c.Request.Context())
}
