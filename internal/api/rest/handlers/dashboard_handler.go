package handlers

import (
	"net/http"

	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/gin-gonic/gin"
)

// DashboardHandler обработчик админ-панели
type DashboardHandler struct {
	service service.DashboardService
	log     *logger.Logger
}

// NewDashboardHandler создает обработчик админ-панели
func NewDashboardHandler(svc service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		log:     log,
	}
}

// GetDashboard сводное представление клиентов. ?refresh=1 игнорирует кеш.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	refresh := c.Query("refresh") == "1" || c.Query("refresh") == "true"

	result, err := h.service.BuildDashboard(c.Request.Context(), refresh)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"stats":       result.Dashboard.Stats,
		"customers":   result.Dashboard.Customers,
		"lastUpdated": result.Dashboard.LastUpdated,
		"cached":      result.Cached,
	})
}
