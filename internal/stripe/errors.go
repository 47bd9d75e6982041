package stripe

import (
	"errors"
	"net/http"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/pkg/logger"

	stripego "github.com/stripe/stripe-go/v78"
)

func errNotConfigured(operation string) error {
	return domain.NewProviderError(operation, "billing provider is not configured", true, nil)
}

// mapError переводит ошибку Stripe в ProviderError.
// Сетевые ошибки, 5xx, 429 и ошибки аутентификации - недоступность; остальное - отказ с сообщением Stripe.
func mapError(operation string, err error) error {
	var stripeErr *stripego.Error
	if !errors.As(err, &stripeErr) {
		return domain.NewProviderError(operation, "billing provider unreachable", true, err)
	}

	if stripeErr.Code == stripego.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound {
		pe := domain.NewProviderError(operation, stripeErr.Msg, false, err)
		pe.NotFound = true
		return pe
	}

	switch {
	case stripeErr.HTTPStatusCode >= http.StatusInternalServerError,
		stripeErr.HTTPStatusCode == http.StatusUnauthorized,
		stripeErr.HTTPStatusCode == http.StatusForbidden,
		stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
		stripeErr.Type == stripego.ErrorTypeAPI:
		// Сообщение Stripe при ошибке ключа содержит его фрагмент, поэтому не передается дальше
		return domain.NewProviderError(operation, "billing provider unavailable", true, err)
	default:
		return domain.NewProviderError(operation, stripeErr.Msg, false, err)
	}
}

// logStripeError - вспомогательная функция для логирования деталей ошибки Stripe.
func logStripeError(log *logger.Logger, operation string, err error) {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		log.Errorw("Stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"param", stripeErr.Param,
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
	} else {
		log.Errorw("Non-Stripe error during Stripe operation",
			"operation", operation,
			"error", err,
		)
	}
}

// leveledLogger направляет логи SDK в общий логгер
type leveledLogger struct {
	log *logger.Logger
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) { l.log.Debug(format, v...) }
func (l *leveledLogger) Infof(format string, v ...interface{})  { l.log.Debug(format, v...) }
func (l *leveledLogger) Warnf(format string, v ...interface{})  { l.log.Warn(format, v...) }
func (l *leveledLogger) Errorf(format string, v ...interface{}) { l.log.Error(format, v...) }
