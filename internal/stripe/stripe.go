package stripe

import (
	"context"
	"net/http"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/Dhoini/clearpath-signup/pkg/logger"

	stripego "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

const (
	defaultTimeout = 30 * time.Second

	// Максимальный размер страницы списков Stripe
	maxPageSize = 100

	cardPaymentMethod = "card"
)

// Options настройки клиента Stripe
type Options struct {
	APIKey string
	// BaseURL переопределяет адрес API, например для stripe-mock
	BaseURL string
	Timeout time.Duration
}

// Provider биллинг-провайдер поверх Stripe API.
// Повторы SDK отключены: политика повторов остается на стороне вызывающего.
type Provider struct {
	client  *client.API
	enabled bool
	metrics metrics.SignupMetrics
	log     *logger.Logger
}

// NewProvider создает клиента Stripe. Без ключа все вызовы возвращают ProviderUnavailable.
func NewProvider(opts Options, m metrics.SignupMetrics, log *logger.Logger) *Provider {
	if m == nil {
		m = metrics.Noop{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	cfg := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: opts.Timeout},
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &leveledLogger{log: log},
	}
	if opts.BaseURL != "" {
		cfg.URL = stripego.String(opts.BaseURL)
	}

	sc := &client.API{}
	sc.Init(opts.APIKey, &stripego.Backends{
		API:     stripego.GetBackendWithConfig(stripego.APIBackend, cfg),
		Uploads: stripego.GetBackendWithConfig(stripego.UploadsBackend, cfg),
	})

	if opts.APIKey == "" {
		log.Warn("Stripe secret key is not configured, billing calls will fail")
	}

	return &Provider{
		client:  sc,
		enabled: opts.APIKey != "",
		metrics: m,
		log:     log,
	}
}

// Configured true, если задан секретный ключ
func (p *Provider) Configured() bool {
	return p.enabled
}

// call оборачивает вызов Stripe: проверка ключа, метрика длительности, преобразование ошибки
func (p *Provider) call(operation string, fn func() error) error {
	if !p.enabled {
		return errNotConfigured(operation)
	}
	start := time.Now()
	err := fn()
	p.metrics.ObserveProviderCall(operation, time.Since(start), err)
	if err != nil {
		logStripeError(p.log, operation, err)
		return mapError(operation, err)
	}
	return nil
}

// FindCustomersByEmail клиенты с точным совпадением email, новые первыми
func (p *Provider) FindCustomersByEmail(ctx context.Context, email string, limit int) ([]domain.Customer, error) {
	var out []domain.Customer
	err := p.call("FindCustomersByEmail", func() error {
		params := &stripego.CustomerListParams{
			ListParams: stripego.ListParams{
				Context: ctx,
				Limit:   stripego.Int64(int64(pageSize(limit))),
				Single:  true,
			},
			Email: stripego.String(email),
		}
		iter := p.client.Customers.List(params)
		for iter.Next() {
			c := iter.Customer()
			if c.Deleted {
				continue
			}
			out = append(out, toDomainCustomer(c))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return iter.Err()
	})
	return out, err
}

// CreateCustomer создает клиента
func (p *Provider) CreateCustomer(ctx context.Context, email, name string, metadata domain.Metadata) (*domain.Customer, error) {
	var out *domain.Customer
	err := p.call("CreateCustomer", func() error {
		params := &stripego.CustomerParams{
			Email:    stripego.String(email),
			Metadata: metadata.Clone(),
		}
		if name != "" {
			params.Name = stripego.String(name)
		}
		params.Context = ctx

		c, err := p.client.Customers.New(params)
		if err != nil {
			return err
		}
		customer := toDomainCustomer(c)
		out = &customer
		return nil
	})
	if err == nil {
		p.log.Infow("Stripe customer created", "stripeCustomerID", out.ID)
	}
	return out, err
}

// UpdateCustomer обновляет имя (если задано) и записывает ключи metadata.
// Stripe сливает метаданные сам: ключи, не переданные в запросе, сохраняются.
func (p *Provider) UpdateCustomer(ctx context.Context, id, name string, metadata domain.Metadata) (*domain.Customer, error) {
	var out *domain.Customer
	err := p.call("UpdateCustomer", func() error {
		params := &stripego.CustomerParams{
			Metadata: metadata.Clone(),
		}
		if name != "" {
			params.Name = stripego.String(name)
		}
		params.Context = ctx

		c, err := p.client.Customers.Update(id, params)
		if err != nil {
			return err
		}
		customer := toDomainCustomer(c)
		out = &customer
		return nil
	})
	return out, err
}

// ListCustomers клиенты от новых к старым. limit <= 0 - все страницы.
func (p *Provider) ListCustomers(ctx context.Context, limit int) ([]domain.Customer, error) {
	var out []domain.Customer
	err := p.call("ListCustomers", func() error {
		params := &stripego.CustomerListParams{
			ListParams: stripego.ListParams{
				Context: ctx,
				Limit:   stripego.Int64(int64(pageSize(limit))),
			},
		}
		iter := p.client.Customers.List(params)
		for iter.Next() {
			c := iter.Customer()
			if c.Deleted {
				continue
			}
			out = append(out, toDomainCustomer(c))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return iter.Err()
	})
	return out, err
}

// ListCards карты, привязанные к клиенту
func (p *Provider) ListCards(ctx context.Context, customerID string) ([]domain.Card, error) {
	var out []domain.Card
	err := p.call("ListCards", func() error {
		params := &stripego.PaymentMethodListParams{
			ListParams: stripego.ListParams{Context: ctx},
			Customer:   stripego.String(customerID),
			Type:       stripego.String(cardPaymentMethod),
		}
		iter := p.client.PaymentMethods.List(params)
		for iter.Next() {
			if card := toDomainCard(iter.PaymentMethod()); card != nil {
				out = append(out, *card)
			}
		}
		return iter.Err()
	})
	return out, err
}

// CreateCheckoutSession создает размещенную checkout-сессию
func (p *Provider) CreateCheckoutSession(ctx context.Context, in domain.CheckoutSessionParams) (*domain.CheckoutSession, error) {
	var out *domain.CheckoutSession
	err := p.call("CreateCheckoutSession", func() error {
		s, err := p.client.CheckoutSessions.New(toSessionParams(ctx, in))
		if err != nil {
			return err
		}
		session := toDomainSession(s)
		out = &session
		return nil
	})
	if err == nil {
		p.log.Infow("Stripe checkout session created", "sessionID", out.ID, "mode", string(in.Mode))
	}
	return out, err
}

// GetCheckoutSession сессия с развернутыми setup_intent.payment_method и customer
func (p *Provider) GetCheckoutSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	var out *domain.CheckoutSession
	err := p.call("GetCheckoutSession", func() error {
		params := &stripego.CheckoutSessionParams{}
		params.Context = ctx
		params.AddExpand("setup_intent.payment_method")
		params.AddExpand("customer")

		s, err := p.client.CheckoutSessions.Get(id, params)
		if err != nil {
			return err
		}
		session := toDomainSession(s)
		out = &session
		return nil
	})
	return out, err
}

// ListSetupSessions setup-сессии от новых к старым
func (p *Provider) ListSetupSessions(ctx context.Context, limit int) ([]domain.CheckoutSession, error) {
	var out []domain.CheckoutSession
	err := p.call("ListSetupSessions", func() error {
		params := &stripego.CheckoutSessionListParams{
			ListParams: stripego.ListParams{
				Context: ctx,
				Limit:   stripego.Int64(int64(pageSize(limit))),
				Single:  true,
			},
		}
		iter := p.client.CheckoutSessions.List(params)
		for iter.Next() {
			s := iter.CheckoutSession()
			if s.Mode != stripego.CheckoutSessionModeSetup {
				continue
			}
			out = append(out, toDomainSession(s))
		}
		return iter.Err()
	})
	return out, err
}

func pageSize(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

var _ service.BillingProvider = (*Provider)(nil)
