package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID заголовок идентификатора запроса
	HeaderRequestID = "X-Request-ID"

	contextRequestIDKey = "requestID"
	maxRequestIDLength  = 128
)

// RequestID переиспользует входящий X-Request-ID или генерирует новый
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom идентификатор текущего запроса
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(contextRequestIDKey)
}
