package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorCapturer внешняя отчетность об ошибках
type ErrorCapturer interface {
	CaptureError(err error, tags map[string]string)
}

// ReportServerErrors отправляет ошибки ответов 5xx во внешнюю отчетность
func ReportServerErrors(reporter ErrorCapturer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if reporter == nil || c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		if last := c.Errors.Last(); last != nil {
			reporter.CaptureError(last.Err, map[string]string{
				"method":     c.Request.Method,
				"route":      c.FullPath(),
				"request_id": RequestIDFrom(c),
			})
		}
	}
}
