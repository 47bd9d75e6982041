package res

import "github.com/gin-gonic/gin"

// ErrorResponse представляет формат JSON-ответа для ошибок.
type ErrorResponse struct {
	Error   string `json:"error"`           // Стабильный код ошибки (для программной обработки)
	Message string `json:"message"`         // Сообщение об ошибке (для человека)
	Field   string `json:"field,omitempty"` // Поле запроса, вызвавшее ошибку
}

// Error отправляет JSON ответ ошибки и прерывает цепочку обработчиков.
func Error(c *gin.Context, status int, code, message, field string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Field:   field,
	})
}
