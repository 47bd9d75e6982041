package stripe

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stripego "github.com/stripe/stripe-go/v78"
)

func TestToSessionParams_SetupWithCustomer(t *testing.T) {
	meta := domain.Metadata{domain.KeyFASource: domain.SourceFounderAccess}
	params := toSessionParams(context.Background(), domain.CheckoutSessionParams{
		Mode:                 domain.SessionModeSetup,
		CustomerID:           "cus_1",
		CustomerEmail:        "ignored@example.com",
		AlwaysCreateCustomer: true,
		ClientReferenceID:    "https://a.com",
		SuccessURL:           "https://x/success",
		CancelURL:            "https://x/cancel",
		Metadata:             meta,
		SetupIntentMetadata:  meta,
	})

	assert.Equal(t, "setup", *params.Mode)
	assert.Equal(t, "cus_1", *params.Customer)
	assert.Nil(t, params.CustomerEmail)
	assert.Nil(t, params.CustomerCreation, "customer_creation is only sent without a customer")
	assert.Equal(t, "https://a.com", *params.ClientReferenceID)
	require.NotNil(t, params.SetupIntentData)
	assert.Equal(t, map[string]string{domain.KeyFASource: domain.SourceFounderAccess}, params.SetupIntentData.Metadata)
	assert.Empty(t, params.LineItems)
}

func TestToSessionParams_SetupWithoutCustomer(t *testing.T) {
	params := toSessionParams(context.Background(), domain.CheckoutSessionParams{
		Mode:                 domain.SessionModeSetup,
		AlwaysCreateCustomer: true,
	})

	require.NotNil(t, params.CustomerCreation)
	assert.Equal(t, "always", *params.CustomerCreation)
	assert.Nil(t, params.SetupIntentData)
}

func TestToSessionParams_Subscription(t *testing.T) {
	params := toSessionParams(context.Background(), domain.CheckoutSessionParams{
		Mode:                  domain.SessionModeSubscription,
		CustomerEmail:         "ann@example.com",
		AlwaysCreateCustomer:  true,
		CollectBillingAddress: true,
		PriceRef:              "price_123",
		Metadata:              domain.Metadata{domain.KeyPlan: "pro"},
		SetupIntentMetadata:   domain.Metadata{domain.KeyPlan: "pro"},
	})

	assert.Equal(t, "subscription", *params.Mode)
	assert.Equal(t, "ann@example.com", *params.CustomerEmail)
	assert.Nil(t, params.CustomerCreation)
	assert.Nil(t, params.SetupIntentData)
	assert.Equal(t, "required", *params.BillingAddressCollection)
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, "price_123", *params.LineItems[0].Price)
	assert.Equal(t, int64(1), *params.LineItems[0].Quantity)
}

func TestToDomainSession_Expanded(t *testing.T) {
	s := &stripego.CheckoutSession{
		ID:                "cs_1",
		Mode:              stripego.CheckoutSessionModeSetup,
		Status:            stripego.CheckoutSessionStatusComplete,
		ClientReferenceID: "https://a.com",
		CustomerEmail:     "typed@example.com",
		CustomerDetails:   &stripego.CheckoutSessionCustomerDetails{Email: "details@example.com"},
		Customer: &stripego.Customer{
			ID:       "cus_1",
			Email:    "customer@example.com",
			Metadata: map[string]string{domain.KeyPlan: "pro"},
			Created:  1700000000,
		},
		SetupIntent: &stripego.SetupIntent{
			ID:       "seti_1",
			Status:   stripego.SetupIntentStatusSucceeded,
			Metadata: map[string]string{domain.KeyFAWebsite: "https://si.com"},
			PaymentMethod: &stripego.PaymentMethod{
				Card: &stripego.PaymentMethodCard{
					Brand:    stripego.PaymentMethodCardBrand("visa"),
					Last4:    "4242",
					ExpMonth: 12,
					ExpYear:  2030,
				},
			},
		},
	}

	out := toDomainSession(s)

	assert.Equal(t, domain.SessionModeSetup, out.Mode)
	assert.Equal(t, "complete", out.Status)
	assert.Equal(t, "details@example.com", out.CustomerEmail)
	assert.Equal(t, "cus_1", out.CustomerID)
	require.NotNil(t, out.Customer)
	assert.Equal(t, "pro", out.Customer.Metadata[domain.KeyPlan])
	require.NotNil(t, out.SetupIntent)
	assert.Equal(t, "succeeded", out.SetupIntent.Status)
	require.NotNil(t, out.SetupIntent.Card)
	assert.Equal(t, domain.Card{Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030}, *out.SetupIntent.Card)
}

func TestToDomainSession_CustomerNotExpanded(t *testing.T) {
	out := toDomainSession(&stripego.CheckoutSession{
		ID:       "cs_2",
		Customer: &stripego.Customer{ID: "cus_2"},
	})

	assert.Equal(t, "cus_2", out.CustomerID)
	assert.Nil(t, out.Customer)
	assert.Nil(t, out.SetupIntent)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
		notFound    bool
		message     string
	}{
		{
			name:        "network error",
			err:         errors.New("dial tcp: connection refused"),
			unavailable: true,
			message:     "billing provider unreachable",
		},
		{
			name:     "missing resource",
			err:      &stripego.Error{HTTPStatusCode: http.StatusNotFound, Code: stripego.ErrorCodeResourceMissing, Msg: "No such customer: cus_x"},
			notFound: true,
			message:  "No such customer: cus_x",
		},
		{
			name:        "bad key does not leak",
			err:         &stripego.Error{HTTPStatusCode: http.StatusUnauthorized, Msg: "Invalid API Key provided: sk_test_****1234"},
			unavailable: true,
			message:     "billing provider unavailable",
		},
		{
			name:        "rate limited",
			err:         &stripego.Error{HTTPStatusCode: http.StatusTooManyRequests, Msg: "Too many requests"},
			unavailable: true,
			message:     "billing provider unavailable",
		},
		{
			name:        "server error",
			err:         &stripego.Error{HTTPStatusCode: http.StatusBadGateway, Type: stripego.ErrorTypeAPI, Msg: "oops"},
			unavailable: true,
			message:     "billing provider unavailable",
		},
		{
			name:    "invalid request",
			err:     &stripego.Error{HTTPStatusCode: http.StatusBadRequest, Type: stripego.ErrorTypeInvalidRequest, Msg: "No such price: 'price_x'"},
			message: "No such price: 'price_x'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError("op", tt.err)

			var pe *domain.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.unavailable, pe.Unavailable)
			assert.Equal(t, tt.notFound, pe.NotFound)
			assert.Equal(t, tt.message, pe.Message)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
