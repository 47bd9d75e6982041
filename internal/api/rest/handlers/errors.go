package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/pkg/req"
	"github.com/Dhoini/clearpath-signup/pkg/res"
	"github.com/gin-gonic/gin"
)

const (
	ruleSignupEmail = "signupemail"
	ruleHTTPSURL    = "httpsurl"
)

var registerRules sync.Once

// RegisterValidationRules регистрирует правила валидации тел запросов
func RegisterValidationRules() {
	registerRules.Do(func() {
		_ = req.RegisterRule(ruleSignupEmail, "invalid email format", func(v string) bool {
			return domain.ValidEmail(domain.NormalizeEmail(v))
		})
		_ = req.RegisterRule(ruleHTTPSURL, "website must start with https://", func(v string) bool {
			return domain.ValidWebsite(domain.NormalizeWebsite(v))
		})
	})
}

// writeError отвечает JSON-ошибкой со стабильным кодом. Сообщения внутренних ошибок не раскрываются.
func writeError(c *gin.Context, err error) {
	var fieldErr *req.FieldError
	if errors.As(err, &fieldErr) {
		res.Error(c, http.StatusBadRequest, string(domain.CodeInvalidRequest), fieldErr.Message, fieldErr.Field)
		return
	}

	appErr := domain.AsAppError(err)
	message := appErr.Message
	if appErr.Code == domain.CodeInternal {
		message = "internal server error"
	}

	_ = c.Error(err)
	res.Error(c, appErr.StatusCode(), string(appErr.Code), message, appErr.Field)
}
