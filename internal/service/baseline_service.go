package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/internal/repository"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
)

const (
	estimatedProcessingTime = 30 * time.Minute

	sideEffectBaselineMirror = "baseline_mirror"
	sideEffectRescanMirror   = "rescan_mirror"

	// Канал, через который зафиксирован запрос на повторное сканирование
	RescanViaCustomerMetadata = "stripe_customer_metadata"
	RescanViaLocal            = "local"
)

// BaselineInput заявка на бесплатный базовый отчет
type BaselineInput struct {
	Name      string
	Email     string
	Website   string
	Company   string
	Type      string
	Timestamp string
}

// BaselineReceipt подтверждение приема заявки
type BaselineReceipt struct {
	Request             domain.BaselineRequest
	QueuePosition       int
	EstimatedCompletion time.Time
	Mirrored            bool
}

// RescanInput запрос на повторное сканирование
type RescanInput struct {
	Email     string
	Website   string
	Context   string
	ReportURL string
}

// RescanReceipt подтверждение приема запроса
type RescanReceipt struct {
	Request domain.RescanRequest
	Via     string
}

// BaselineService прием бесплатных заявок и запросов на повторное сканирование
type BaselineService interface {
	Submit(ctx context.Context, in BaselineInput) (*BaselineReceipt, domain.SideEffect, error)
	Rescan(ctx context.Context, in RescanInput) (*RescanReceipt, domain.SideEffect, error)
	Status(ctx context.Context, requestID string) (*domain.BaselineRequest, error)
}

type baselineService struct {
	repo     repository.SubmissionRepository
	identity IdentityService
	cache    DashboardCache
	effects  sideEffects
	metrics  metrics.SignupMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewBaselineService создает сервис заявок. identity может быть nil, тогда заявки только локальные.
// cache может быть nil; иначе снимок админ-панели сбрасывается после успешного зеркалирования.
func NewBaselineService(
	repo repository.SubmissionRepository,
	identity IdentityService,
	cache DashboardCache,
	publisher EventPublisher,
	reporter ErrorReporter,
	m metrics.SignupMetrics,
	log *logger.Logger,
) BaselineService {
	if m == nil {
		m = metrics.Noop{}
	}
	return &baselineService{
		repo:     repo,
		identity: identity,
		cache:    cache,
		effects:  sideEffects{publisher: publisher, reporter: reporter, metrics: m, log: log},
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

func validateContact(email, website string) error {
	if email == "" {
		return domain.NewMissingField("email")
	}
	if website == "" {
		return domain.NewMissingField("website")
	}
	if !domain.ValidEmail(email) {
		return domain.NewInvalidRequest("email", "invalid email format")
	}
	if !domain.ValidWebsite(website) {
		return domain.NewInvalidRequest("website", "website must start with https://")
	}
	return nil
}

// Submit принимает заявку. После успешной валидации подтверждение возвращается всегда,
// а зеркалирование на клиента провайдера идет отдельным каналом SideEffect.
func (s *baselineService) Submit(ctx context.Context, in BaselineInput) (*BaselineReceipt, domain.SideEffect, error) {
	effect := domain.SideEffect{Name: sideEffectBaselineMirror}

	if strings.TrimSpace(in.Name) == "" {
		return nil, effect, domain.NewMissingField("name")
	}
	if err := validateContact(strings.TrimSpace(in.Email), strings.TrimSpace(in.Website)); err != nil {
		return nil, effect, err
	}

	now := s.now()
	request := domain.NewBaselineRequest(in.Name, in.Email, in.Website, in.Company, in.Type, in.Timestamp, now)

	if err := s.repo.SaveBaseline(ctx, request); err != nil {
		s.effects.failed("baseline_store", err, map[string]string{"request_id": request.ID})
	}

	position, err := s.repo.CountQueuedBaselines(ctx)
	if err != nil || position < 1 {
		position = 1
	}

	effect = s.mirror(ctx, sideEffectBaselineMirror, ResolveInput{
		Email:       request.Email,
		DisplayName: request.Name,
		Metadata:    request.MirrorMetadata(),
	}, request.ID)

	s.metrics.IncBaselineSubmitted(effect.Succeeded())
	s.log.Info("Baseline request queued: %s (mirrored=%t)", request.ID, effect.Succeeded())

	s.effects.publish(ctx, EventBaselineQueued, request.ID, request)

	return &BaselineReceipt{
		Request:             request,
		QueuePosition:       position,
		EstimatedCompletion: now.Add(estimatedProcessingTime).UTC(),
		Mirrored:            effect.Succeeded(),
	}, effect, nil
}

// Rescan фиксирует намерение повторно просканировать сайт.
// Новый клиент получает имя по локальной части email.
func (s *baselineService) Rescan(ctx context.Context, in RescanInput) (*RescanReceipt, domain.SideEffect, error) {
	effect := domain.SideEffect{Name: sideEffectRescanMirror}

	if err := validateContact(strings.TrimSpace(in.Email), strings.TrimSpace(in.Website)); err != nil {
		return nil, effect, err
	}

	request := domain.NewRescanRequest(in.Email, in.Website, in.Context, in.ReportURL, s.now())

	if err := s.repo.SaveRescan(ctx, request); err != nil {
		s.effects.failed("rescan_store", err, map[string]string{"request_id": request.ID})
	}

	effect = s.mirror(ctx, sideEffectRescanMirror, ResolveInput{
		Email:     request.Email,
		NameIfNew: domain.EmailLocalPart(request.Email),
		Metadata:  request.MirrorMetadata(),
	}, request.ID)

	via := RescanViaLocal
	if effect.Succeeded() {
		via = RescanViaCustomerMetadata
	}
	s.metrics.IncRescanRequested(effect.Succeeded())
	s.log.Info("Rescan requested for %s via %s", request.Website, via)

	s.effects.publish(ctx, EventRescanRequested, request.ID, request)

	return &RescanReceipt{Request: request, Via: via}, effect, nil
}

func (s *baselineService) mirror(ctx context.Context, name string, in ResolveInput, requestID string) domain.SideEffect {
	effect := domain.SideEffect{Name: name}
	if s.identity == nil {
		s.log.Debug("No billing provider configured, %s kept locally", requestID)
		return effect
	}
	effect.Attempted = true
	if _, err := s.identity.ResolveCustomer(ctx, in); err != nil {
		effect.Err = err
		s.effects.failed(name, err, map[string]string{"request_id": requestID})
		return effect
	}
	if s.cache != nil {
		if err := s.cache.InvalidateDashboard(ctx); err != nil {
			s.log.Warnw("Failed to invalidate dashboard cache", "request_id", requestID, "error", err)
		}
	}
	return effect
}

// Status состояние ранее принятой заявки из локального хранилища
func (s *baselineService) Status(ctx context.Context, requestID string) (*domain.BaselineRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, domain.NewMissingField("requestId")
	}

	request, err := s.repo.GetBaseline(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewAppError(domain.CodeNotFound, "baseline request not found", err)
	}
	if err != nil {
		s.log.Error("Failed to read baseline request %s: %v", requestID, err)
		return nil, domain.NewAppError(domain.CodeInternal, "failed to read baseline request", err)
	}
	return &request, nil
}
