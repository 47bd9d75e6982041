package middleware

import (
	"time"

	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/gin-gonic/gin"
)

// LoggerMiddleware создает middleware для логирования запросов
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Время начала запроса
		startTime := time.Now()

		// Обработка запроса
		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", statusCode,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
			"request_id", RequestIDFrom(c),
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, "error", last.Err)
		}

		switch {
		case statusCode >= 500:
			log.Errorw("Request failed", fields...)
		case statusCode >= 400:
			log.Warnw("Request rejected", fields...)
		default:
			log.Infow("Request handled", fields...)
		}
	}
}
