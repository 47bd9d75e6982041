package handlers

import (
	"net/http"
	"strings"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/Dhoini/clearpath-signup/pkg/req"
	"github.com/gin-gonic/gin"
)

// CreateSessionRequest тело POST /sessions
type CreateSessionRequest struct {
	Mode     string `json:"mode" validate:"omitempty,oneof=setup subscription"`
	Flow     string `json:"flow" validate:"omitempty,oneof=paid_plan founder_access"`
	Plan     string `json:"plan"`
	PriceRef string `json:"priceRef"`
	Email    string `json:"email" validate:"omitempty,signupemail"`
	Name     string `json:"name"`
	Website  string `json:"website" validate:"omitempty,httpsurl"`
}

// SessionHandler обработчик checkout-сессий
type SessionHandler struct {
	service service.SessionService
	log     *logger.Logger
}

// NewSessionHandler создает обработчик сессий
func NewSessionHandler(svc service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		log:     log,
	}
}

// CreateSession создает размещенную checkout-сессию
func (h *SessionHandler) CreateSession(c *gin.Context) {
	body, err := req.HandleBody[CreateSessionRequest](c.Request.Body)
	if err != nil {
		h.log.Warn("Invalid create session request: %v", err)
		writeError(c, err)
		return
	}

	result, err := h.service.CreateSession(c.Request.Context(), service.CreateSessionInput{
		Mode:     domain.SessionMode(body.Mode),
		Flow:     domain.SignupFlow(body.Flow),
		Plan:     body.Plan,
		PriceRef: body.PriceRef,
		Email:    body.Email,
		Name:     body.Name,
		Website:  body.Website,
		Origin:   requestOrigin(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSession возвращает итог сессии для страницы успеха
func (h *SessionHandler) GetSession(c *gin.Context) {
	summary, effect, err := h.service.ResolveSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if effect.Attempted && effect.Err != nil {
		h.log.Warnw("Session resolved without customer reconciliation", "session_id", c.Param("id"), "error", effect.Err)
	}

	c.JSON(http.StatusOK, summary)
}

// requestOrigin схема и хост с учетом прокси: X-Forwarded-Proto (по умолчанию https) и X-Forwarded-Host или Host
func requestOrigin(c *gin.Context) string {
	proto := firstHeaderValue(c.GetHeader("X-Forwarded-Proto"))
	if proto == "" {
		proto = "https"
	}
	host := firstHeaderValue(c.GetHeader("X-Forwarded-Host"))
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}

// firstHeaderValue первое значение из списка через запятую
func firstHeaderValue(v string) string {
	if i := strings.Index(v, ","); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
