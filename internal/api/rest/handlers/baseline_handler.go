package handlers

import (
	"net/http"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/Dhoini/clearpath-signup/pkg/req"
	"github.com/gin-gonic/gin"
)

// BaselineRequest тело POST /baseline
type BaselineRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,signupemail"`
	Website   string `json:"website" validate:"required,httpsurl"`
	Company   string `json:"company"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// RescanRequest тело POST /rescan
type RescanRequest struct {
	Email     string `json:"email" validate:"required,signupemail"`
	Website   string `json:"website" validate:"required,httpsurl"`
	Context   string `json:"context"`
	ReportURL string `json:"reportUrl"`
}

// BaselineHandler обработчик бесплатных заявок
type BaselineHandler struct {
	service service.BaselineService
	log     *logger.Logger
}

// NewBaselineHandler создает обработчик заявок
func NewBaselineHandler(svc service.BaselineService, log *logger.Logger) *BaselineHandler {
	return &BaselineHandler{
		service: svc,
		log:     log,
	}
}

// SubmitBaseline принимает заявку; отказ зеркалирования не влияет на ответ
func (h *BaselineHandler) SubmitBaseline(c *gin.Context) {
	body, err := req.HandleBody[BaselineRequest](c.Request.Body)
	if err != nil {
		h.log.Warn("Invalid baseline request: %v", err)
		writeError(c, err)
		return
	}

	receipt, _, err := h.service.Submit(c.Request.Context(), service.BaselineInput{
		Name:      body.Name,
		Email:     body.Email,
		Website:   body.Website,
		Company:   body.Company,
		Type:      body.Type,
		Timestamp: body.Timestamp,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"message":             "Baseline scan queued successfully",
		"requestId":           receipt.Request.ID,
		"stripeIntegration":   receipt.Mirrored,
		"queuePosition":       receipt.QueuePosition,
		"estimatedCompletion": receipt.EstimatedCompletion.Format(time.RFC3339),
	})
}

// GetBaselineStatus состояние заявки по requestId из ответа POST /baseline
func (h *BaselineHandler) GetBaselineStatus(c *gin.Context) {
	request, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requestId": request.ID,
		"status":    request.Status,
		"submitted": request.CreatedAt.Format(time.RFC3339),
	})
}

// RequestRescan фиксирует запрос на повторное сканирование
func (h *BaselineHandler) RequestRescan(c *gin.Context) {
	body, err := req.HandleBody[RescanRequest](c.Request.Body)
	if err != nil {
		h.log.Warn("Invalid rescan request: %v", err)
		writeError(c, err)
		return
	}

	receipt, _, err := h.service.Rescan(c.Request.Context(), service.RescanInput{
		Email:     body.Email,
		Website:   body.Website,
		Context:   body.Context,
		ReportURL: body.ReportURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"queued":  true,
		"via":     receipt.Via,
		"website": receipt.Request.Website,
		"email":   receipt.Request.Email,
	})
}
