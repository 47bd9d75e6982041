package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewProvider(Options{
		APIKey:  "sk_test_123",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, nil, logger.NewNop())
}

func TestProvider_NotConfigured(t *testing.T) {
	p := NewProvider(Options{}, nil, logger.NewNop())

	assert.False(t, p.Configured())
	_, err := p.FindCustomersByEmail(context.Background(), "a@b.com", 1)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	_, err = p.GetCheckoutSession(context.Background(), "cs_1")
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestProvider_GetCheckoutSession(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "setup_intent.payment_method")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cs_test_1",
			"object": "checkout.session",
			"mode": "setup",
			"status": "complete",
			"client_reference_id": "https://ann.dev",
			"metadata": {"fa_source": "founder_access"},
			"customer": {"id": "cus_1", "object": "customer", "email": "ann@example.com", "created": 1700000000, "metadata": {"fa_website": "https://ann.dev"}},
			"setup_intent": {
				"id": "seti_1",
				"object": "setup_intent",
				"status": "succeeded",
				"metadata": {},
				"payment_method": {"id": "pm_1", "object": "payment_method", "type": "card", "card": {"brand": "visa", "last4": "4242", "exp_month": 12, "exp_year": 2030}}
			}
		}`))
	})

	s, err := p.GetCheckoutSession(context.Background(), "cs_test_1")
	require.NoError(t, err)

	summary := domain.Summarize(s)
	assert.Equal(t, "succeeded", summary.Status)
	require.NotNil(t, summary.Email)
	assert.Equal(t, "ann@example.com", *summary.Email)
	require.NotNil(t, summary.Website)
	assert.Equal(t, "https://ann.dev", *summary.Website)
	require.NotNil(t, summary.Card)
	assert.Equal(t, "4242", summary.Card.Last4)
}

func TestProvider_GetCheckoutSession_NotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"type": "invalid_request_error", "code": "resource_missing", "message": "No such checkout.session: cs_x"}}`))
	})

	_, err := p.GetCheckoutSession(context.Background(), "cs_x")

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "No such checkout.session: cs_x", domain.ProviderMessage(err))
}

func TestProvider_CreateCustomer_SendsMetadata(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/customers", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "ann@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "Ann", r.PostForm.Get("name"))
		assert.Equal(t, "free_baseline", r.PostForm.Get("metadata[ba_source]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cus_9", "object": "customer", "email": "ann@example.com", "name": "Ann", "created": 1700000000, "metadata": {"ba_source": "free_baseline"}}`))
	})

	c, err := p.CreateCustomer(context.Background(), "ann@example.com", "Ann", domain.Metadata{domain.KeyBASource: domain.SourceFreeBaseline})

	require.NoError(t, err)
	assert.Equal(t, "cus_9", c.ID)
	assert.Equal(t, domain.SourceFreeBaseline, c.Metadata[domain.KeyBASource])
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), c.CreatedAt)
}

func TestProvider_ServerErrorIsUnavailable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"type": "api_error", "message": "try again"}}`))
	})

	_, err := p.ListCustomers(context.Background(), 10)

	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestProvider_MissingPriceFailsSessionCreation(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "invalid_request_error", "code": "resource_missing", "param": "line_items[0][price]", "message": "No such price: 'price_bad'"}}`))
	})
	log := logger.NewNop()
	sessions := service.NewSessionService(p, service.NewIdentityService(p, nil, nil, log), nil, nil, nil, log)

	_, err := sessions.CreateSession(context.Background(), service.CreateSessionInput{
		Mode:     domain.SessionModeSubscription,
		Plan:     "pro",
		PriceRef: "price_bad",
		Origin:   "https://clearpath.test",
	})

	require.ErrorIs(t, err, domain.ErrSessionCreationFailed)
	appErr := domain.AsAppError(err)
	assert.Equal(t, domain.CodeSessionCreationFailed, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
	assert.Equal(t, "No such price: 'price_bad'", appErr.Message)
}
