package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler проверка работоспособности; показывает только наличие секретов, не их значения
type HealthHandler struct {
	hasStripeKey  bool
	hasAdminToken bool
	appEnv        string
}

// NewHealthHandler создает обработчик проверки работоспособности
func NewHealthHandler(hasStripeKey, hasAdminToken bool, appEnv string) *HealthHandler {
	return &HealthHandler{
		hasStripeKey:  hasStripeKey,
		hasAdminToken: hasAdminToken,
		appEnv:        appEnv,
	}
}

// HealthCheck обработчик для проверки работоспособности сервиса
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"hasStripeKey":  h.hasStripeKey,
			"hasAdminToken": h.hasAdminToken,
			"appEnv":        h.appEnv,
		},
	})
}
