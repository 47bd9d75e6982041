package service

import (
	"context"
	"strings"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
)

// Исходы find-or-create для метрик
const (
	outcomeCreated   = "created"
	outcomeUpdated   = "updated"
	outcomeUnchanged = "unchanged"
)

// ResolveInput параметры поиска-или-создания клиента
type ResolveInput struct {
	Email string
	// DisplayName обновляет имя, если не пустое. Существующее имя никогда не стирается.
	DisplayName string
	// NameIfNew используется только при создании, когда DisplayName пуст
	NameIfNew string
	Metadata  domain.Metadata
}

// IdentityService поиск-или-создание канонического клиента по email
type IdentityService interface {
	ResolveCustomer(ctx context.Context, in ResolveInput) (*domain.Customer, error)
}

type identityService struct {
	provider BillingProvider
	locker   EmailLocker
	metrics  metrics.SignupMetrics
	log      *logger.Logger
}

// NewIdentityService создает сервис идентификации. locker может быть nil.
func NewIdentityService(provider BillingProvider, locker EmailLocker, m metrics.SignupMetrics, log *logger.Logger) IdentityService {
	if m == nil {
		m = metrics.Noop{}
	}
	return &identityService{
		provider: provider,
		locker:   locker,
		metrics:  m,
		log:      log,
	}
}

// ResolveCustomer ищет клиента по email и переиспользует первое совпадение.
// Не найден - создает с patch в качестве начальных метаданных.
// Найден - сливает patch поверх существующих метаданных; если ничего не меняется, запись не выполняется.
// Ошибки провайдера возвращаются без повторов.
func (s *identityService) ResolveCustomer(ctx context.Context, in ResolveInput) (*domain.Customer, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.NewMissingField("email")
	}
	name := strings.TrimSpace(in.DisplayName)
	patch := in.Metadata.WithoutEmpty()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, email)
		if err != nil {
			s.log.Warnw("Identity lock unavailable, continuing without it", "email", email, "error", err)
		} else {
			defer unlock()
		}
	}

	found, err := s.provider.FindCustomersByEmail(ctx, email, 1)
	if err != nil {
		s.log.Error("Failed to look up customer by email %s: %v", email, err)
		return nil, err
	}

	if len(found) == 0 {
		createName := domain.FirstNonEmpty(name, strings.TrimSpace(in.NameIfNew))
		customer, err := s.provider.CreateCustomer(ctx, email, createName, patch)
		if err != nil {
			s.log.Error("Failed to create customer for %s: %v", email, err)
			return nil, err
		}
		s.metrics.IncCustomerResolved(outcomeCreated)
		s.log.Info("Customer created: %s", customer.ID)
		return customer, nil
	}

	existing := found[0]
	renamed := name != "" && name != existing.Name
	if !renamed && existing.Metadata.Contains(patch) {
		s.metrics.IncCustomerResolved(outcomeUnchanged)
		s.log.Debug("Customer %s already up to date", existing.ID)
		return &existing, nil
	}

	updateName := ""
	if renamed {
		updateName = name
	}
	customer, err := s.provider.UpdateCustomer(ctx, existing.ID, updateName, patch)
	if err != nil {
		s.log.Error("Failed to update customer %s: %v", existing.ID, err)
		return nil, err
	}
	s.metrics.IncCustomerResolved(outcomeUpdated)
	s.log.Info("Customer updated: %s", customer.ID)
	return customer, nil
}
