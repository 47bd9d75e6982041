package service

import (
	"context"
	"errors"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
)

// Типы событий для внешнего обработчика
const (
	EventSessionCreated     = "session.created"
	EventBaselineQueued     = "baseline.queued"
	EventRescanRequested    = "rescan.requested"
	EventCustomerReconciled = "customer.reconciled"
)

// providerFailure приводит ошибку провайдера к коду таксономии.
// Недоступность сохраняет свой код, остальное (включая отсутствующий ресурс) - fallback с сообщением провайдера.
func providerFailure(err error, fallback domain.ErrorCode) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, domain.ErrProviderUnavailable) {
		return domain.NewAppError(domain.CodeProviderUnavailable, "billing provider unavailable", err)
	}
	return domain.NewAppError(fallback, domain.ProviderMessage(err), err)
}

// lookupFailure как providerFailure, но отсутствие запрошенного ресурса дает not_found.
// Только для чтения ресурса по идентификатору из запроса.
func lookupFailure(err error, fallback domain.ErrorCode) error {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) && errors.Is(err, domain.ErrNotFound) {
		return domain.NewAppError(domain.CodeNotFound, domain.ProviderMessage(err), err)
	}
	return providerFailure(err, fallback)
}

// sideEffects общие зависимости для best-effort операций
type sideEffects struct {
	publisher EventPublisher
	reporter  ErrorReporter
	metrics   metrics.SignupMetrics
	log       *logger.Logger
}

// publish публикует событие; ошибка только логируется
func (s sideEffects) publish(ctx context.Context, eventType, key string, payload any) domain.SideEffect {
	effect := domain.SideEffect{Name: eventType}
	if s.publisher == nil {
		return effect
	}
	effect.Attempted = true
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		effect.Err = err
		s.failed(eventType, err, map[string]string{"key": key})
	}
	return effect
}

// failed фиксирует проваленную best-effort операцию
func (s sideEffects) failed(operation string, err error, tags map[string]string) {
	s.metrics.IncBestEffortFailure(operation)
	s.log.Warnw("Best-effort operation failed", "operation", operation, "tags", tags, "error", err)
	if s.reporter != nil {
		s.reporter.CaptureError(err, tags)
	}
}
