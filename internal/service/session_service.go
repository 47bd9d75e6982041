package service

import (
	"context"
	"strings"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
)

// Маршруты приложения. Hash-фрагменты переживают статический хостинг.
const (
	routeReserveSuccess   = "/#/reserve/success?session_id={CHECKOUT_SESSION_ID}"
	routeFounderCanceled  = "/#/founder-access?canceled=1"
	routeSubscribeSuccess = "/#/subscribe/success?session_id={CHECKOUT_SESSION_ID}"
	routePricingCanceled  = "/#/pricing?canceled=1"

	sideEffectReconcile = "reconcile_customer"
)

// CreateSessionInput запрос на создание checkout-сессии
type CreateSessionInput struct {
	Mode     domain.SessionMode
	Flow     domain.SignupFlow
	Plan     string
	PriceRef string
	Email    string
	Name     string
	Website  string
	// Origin схема и хост текущего запроса, например https://example.com
	Origin string
}

// CreateSessionResult ответ создания сессии
type CreateSessionResult struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// SessionService создание и разрешение checkout-сессий
type SessionService interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*CreateSessionResult, error)
	// ResolveSession возвращает итог сессии и отдельно результат best-effort сверки клиента
	ResolveSession(ctx context.Context, sessionID string) (*domain.SessionSummary, domain.SideEffect, error)
}

type sessionService struct {
	provider BillingProvider
	identity IdentityService
	effects  sideEffects
	metrics  metrics.SignupMetrics
	log      *logger.Logger
}

// NewSessionService создает сервис сессий. publisher и reporter могут быть nil.
func NewSessionService(
	provider BillingProvider,
	identity IdentityService,
	publisher EventPublisher,
	reporter ErrorReporter,
	m metrics.SignupMetrics,
	log *logger.Logger,
) SessionService {
	if m == nil {
		m = metrics.Noop{}
	}
	return &sessionService{
		provider: provider,
		identity: identity,
		effects:  sideEffects{publisher: publisher, reporter: reporter, metrics: m, log: log},
		metrics:  m,
		log:      log,
	}
}

func normalizeSessionInput(in CreateSessionInput) CreateSessionInput {
	in.Plan = strings.TrimSpace(in.Plan)
	in.PriceRef = strings.TrimSpace(in.PriceRef)
	in.Email = domain.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Website = domain.NormalizeWebsite(in.Website)
	in.Origin = strings.TrimSuffix(in.Origin, "/")
	if in.Mode == "" {
		in.Mode = domain.SessionModeSetup
	}
	if in.Flow == "" {
		in.Flow = domain.FlowPaidPlan
	}
	return in
}

// validateSessionInput проверки выполняются до любого внешнего вызова
func validateSessionInput(in CreateSessionInput) error {
	switch in.Mode {
	case domain.SessionModeSetup, domain.SessionModeSubscription:
	default:
		return domain.NewInvalidRequest("mode", "mode must be setup or subscription")
	}

	switch in.Flow {
	case domain.FlowPaidPlan:
		if in.Plan == "" {
			return domain.NewMissingField("plan")
		}
		if in.Mode == domain.SessionModeSubscription && in.PriceRef == "" {
			return domain.NewMissingField("priceRef")
		}
	case domain.FlowFounderAccess:
		if in.Mode != domain.SessionModeSetup {
			return domain.NewInvalidRequest("mode", "founder access uses setup mode")
		}
		if in.Email == "" {
			return domain.NewMissingField("email")
		}
		if in.Website == "" {
			return domain.NewMissingField("website")
		}
	default:
		return domain.NewInvalidRequest("flow", "flow must be paid_plan or founder_access")
	}

	if in.Email != "" && !domain.ValidEmail(in.Email) {
		return domain.NewInvalidRequest("email", "invalid email format")
	}
	if in.Website != "" && !domain.ValidWebsite(in.Website) {
		return domain.NewInvalidRequest("website", "website must start with https://")
	}
	return nil
}

// CreateSession создает размещенную у провайдера сессию.
// Уже созданный клиент не откатывается, если создание сессии не удалось.
func (s *sessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*CreateSessionResult, error) {
	in = normalizeSessionInput(in)
	if err := validateSessionInput(in); err != nil {
		return nil, err
	}

	var (
		params domain.CheckoutSessionParams
		err    error
	)
	switch {
	case in.Flow == domain.FlowFounderAccess:
		params, err = s.founderAccessParams(ctx, in)
	case in.Mode == domain.SessionModeSubscription:
		params = subscriptionParams(in)
	case in.Email != "":
		params, err = s.paidPlanParams(ctx, in)
	default:
		params = websiteCheckoutParams(in)
	}
	if err != nil {
		return nil, providerFailure(err, domain.CodeSessionCreationFailed)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		s.log.Error("Failed to create %s session: %v", in.Mode, err)
		return nil, providerFailure(err, domain.CodeSessionCreationFailed)
	}

	s.metrics.IncSessionCreated(string(in.Mode), string(in.Flow))
	s.log.Info("Checkout session created: %s (mode=%s, flow=%s)", session.ID, in.Mode, in.Flow)

	s.effects.publish(ctx, EventSessionCreated, session.ID, map[string]any{
		"sessionId":  session.ID,
		"mode":       in.Mode,
		"flow":       in.Flow,
		"plan":       in.Plan,
		"customerId": params.CustomerID,
	})

	return &CreateSessionResult{URL: session.URL, SessionID: session.ID}, nil
}

func (s *sessionService) founderAccessParams(ctx context.Context, in CreateSessionInput) (domain.CheckoutSessionParams, error) {
	customer, err := s.identity.ResolveCustomer(ctx, ResolveInput{
		Email:       in.Email,
		DisplayName: in.Name,
		Metadata: domain.Metadata{
			domain.KeyFASource:  domain.SourceFounderAccess,
			domain.KeyFAWebsite: in.Website,
		},
	})
	if err != nil {
		return domain.CheckoutSessionParams{}, err
	}

	meta := domain.Metadata{
		domain.KeyFASource:  domain.SourceFounderAccess,
		domain.KeyFAWebsite: in.Website,
		domain.KeyName:      in.Name,
	}.WithoutEmpty()

	return domain.CheckoutSessionParams{
		Mode:                domain.SessionModeSetup,
		CustomerID:          customer.ID,
		SuccessURL:          in.Origin + routeReserveSuccess,
		CancelURL:           in.Origin + routeFounderCanceled,
		ClientReferenceID:   in.Website,
		Metadata:            meta,
		SetupIntentMetadata: meta.Clone(),
	}, nil
}

func paidPlanMetadata(in CreateSessionInput, source string) domain.Metadata {
	return domain.Metadata{
		domain.KeySource:       source,
		domain.KeyPlan:         in.Plan,
		domain.KeyWebsite:      in.Website,
		domain.KeyCustomerName: in.Name,
	}.WithoutEmpty()
}

func (s *sessionService) paidPlanParams(ctx context.Context, in CreateSessionInput) (domain.CheckoutSessionParams, error) {
	meta := paidPlanMetadata(in, domain.SourcePaidPlanSignup)

	customer, err := s.identity.ResolveCustomer(ctx, ResolveInput{
		Email:       in.Email,
		DisplayName: in.Name,
		Metadata:    meta,
	})
	if err != nil {
		return domain.CheckoutSessionParams{}, err
	}

	return domain.CheckoutSessionParams{
		Mode:                domain.SessionModeSetup,
		CustomerID:          customer.ID,
		SuccessURL:          in.Origin + routeSubscribeSuccess,
		CancelURL:           in.Origin + routePricingCanceled,
		Metadata:            meta,
		SetupIntentMetadata: meta.Clone(),
	}, nil
}

// websiteCheckoutParams setup без email: клиента создает провайдер
func websiteCheckoutParams(in CreateSessionInput) domain.CheckoutSessionParams {
	meta := paidPlanMetadata(in, domain.SourceClearpathWebsite)
	return domain.CheckoutSessionParams{
		Mode:                 domain.SessionModeSetup,
		AlwaysCreateCustomer: true,
		SuccessURL:           in.Origin + routeSubscribeSuccess,
		CancelURL:            in.Origin + routePricingCanceled,
		Metadata:             meta,
		SetupIntentMetadata:  meta.Clone(),
	}
}

// subscriptionParams без предварительного поиска клиента, метаданные только на сессии
func subscriptionParams(in CreateSessionInput) domain.CheckoutSessionParams {
	return domain.CheckoutSessionParams{
		Mode:                  domain.SessionModeSubscription,
		CustomerEmail:         in.Email,
		AlwaysCreateCustomer:  true,
		CollectBillingAddress: true,
		PriceRef:              in.PriceRef,
		SuccessURL:            in.Origin + routeSubscribeSuccess,
		CancelURL:             in.Origin + routePricingCanceled,
		Metadata:              paidPlanMetadata(in, domain.SourcePaidPlanSignup),
	}
}

// ResolveSession получает сессию с setup intent, способом оплаты и клиентом,
// затем при необходимости переносит метаданные платного плана на клиента.
func (s *sessionService) ResolveSession(ctx context.Context, sessionID string) (*domain.SessionSummary, domain.SideEffect, error) {
	effect := domain.SideEffect{Name: sideEffectReconcile}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, effect, domain.NewMissingField("session_id")
	}

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		s.log.Error("Failed to retrieve session %s: %v", sessionID, err)
		return nil, effect, lookupFailure(err, domain.CodeSessionResolutionFailed)
	}

	summary := domain.Summarize(session)
	s.metrics.IncSessionResolved(summary.Status)

	effect = s.reconcileCustomer(ctx, session)
	return &summary, effect, nil
}

// reconcileCustomer переносит plan/website/name сессии платного плана на клиента.
// Ошибка логируется и возвращается только в SideEffect.
func (s *sessionService) reconcileCustomer(ctx context.Context, session *domain.CheckoutSession) domain.SideEffect {
	effect := domain.SideEffect{Name: sideEffectReconcile}

	if session.Metadata.Get(domain.KeySource) != domain.SourcePaidPlanSignup {
		return effect
	}
	customerID := session.CustomerID
	if customerID == "" && session.Customer != nil {
		customerID = session.Customer.ID
	}
	if customerID == "" {
		return effect
	}

	patch := domain.Metadata{
		domain.KeySource:       domain.SourcePaidPlanSignup,
		domain.KeyPlan:         session.Metadata.Get(domain.KeyPlan),
		domain.KeyWebsite:      domain.FirstNonEmpty(session.Metadata.Get(domain.KeyWebsite), session.ClientReferenceID),
		domain.KeyCustomerName: session.Metadata.Get(domain.KeyCustomerName),
	}.WithoutEmpty()

	if session.Customer != nil && session.Customer.Metadata.Contains(patch) {
		return effect
	}

	effect.Attempted = true
	if _, err := s.provider.UpdateCustomer(ctx, customerID, "", patch); err != nil {
		effect.Err = domain.NewAppError(domain.CodeReconciliationWriteFailed, "customer backfill failed", err)
		s.effects.failed(sideEffectReconcile, effect.Err, map[string]string{
			"session_id":  session.ID,
			"customer_id": customerID,
		})
		return effect
	}
	s.log.Info("Customer %s reconciled from session %s", customerID, session.ID)
	return effect
}
