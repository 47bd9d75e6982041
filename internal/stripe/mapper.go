package stripe

import (
	"context"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"

	stripego "github.com/stripe/stripe-go/v78"
)

const (
	customerCreationAlways   = "always"
	billingAddressRequired   = "required"
	subscriptionLineQuantity = 1
)

// toDomainCustomer преобразует клиента Stripe в доменную модель
func toDomainCustomer(c *stripego.Customer) domain.Customer {
	if c == nil {
		return domain.Customer{}
	}
	return domain.Customer{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		Metadata:  domain.Metadata(c.Metadata).Clone(),
		CreatedAt: time.Unix(c.Created, 0).UTC(),
	}
}

// toDomainCard краткие данные карты; nil для не-карточных способов оплаты
func toDomainCard(pm *stripego.PaymentMethod) *domain.Card {
	if pm == nil || pm.Card == nil {
		return nil
	}
	return &domain.Card{
		Brand:    string(pm.Card.Brand),
		Last4:    pm.Card.Last4,
		ExpMonth: pm.Card.ExpMonth,
		ExpYear:  pm.Card.ExpYear,
	}
}

// toDomainSession переносит раскрытые объекты, если они есть в ответе
func toDomainSession(s *stripego.CheckoutSession) domain.CheckoutSession {
	out := domain.CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		Mode:              domain.SessionMode(s.Mode),
		Status:            string(s.Status),
		Metadata:          domain.Metadata(s.Metadata).Clone(),
		ClientReferenceID: s.ClientReferenceID,
		CreatedAt:         time.Unix(s.Created, 0).UTC(),
	}

	var detailsEmail string
	if s.CustomerDetails != nil {
		detailsEmail = s.CustomerDetails.Email
	}
	out.CustomerEmail = domain.FirstNonEmpty(detailsEmail, s.CustomerEmail)

	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
		// Без expand приходит только ID
		if s.Customer.Email != "" || len(s.Customer.Metadata) > 0 || s.Customer.Created != 0 {
			customer := toDomainCustomer(s.Customer)
			out.Customer = &customer
		}
	}

	if s.SetupIntent != nil {
		out.SetupIntent = &domain.SetupIntent{
			ID:       s.SetupIntent.ID,
			Status:   string(s.SetupIntent.Status),
			Metadata: domain.Metadata(s.SetupIntent.Metadata).Clone(),
			Card:     toDomainCard(s.SetupIntent.PaymentMethod),
		}
	}
	return out
}

// toSessionParams параметры Stripe для создания checkout-сессии
func toSessionParams(ctx context.Context, in domain.CheckoutSessionParams) *stripego.CheckoutSessionParams {
	params := &stripego.CheckoutSessionParams{
		Mode:               stripego.String(string(in.Mode)),
		PaymentMethodTypes: stripego.StringSlice([]string{cardPaymentMethod}),
		SuccessURL:         stripego.String(in.SuccessURL),
		CancelURL:          stripego.String(in.CancelURL),
		Metadata:           in.Metadata.Clone(),
	}
	params.Context = ctx

	if in.CustomerID != "" {
		params.Customer = stripego.String(in.CustomerID)
	} else if in.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(in.CustomerEmail)
	}
	if in.ClientReferenceID != "" {
		params.ClientReferenceID = stripego.String(in.ClientReferenceID)
	}
	if in.CollectBillingAddress {
		params.BillingAddressCollection = stripego.String(billingAddressRequired)
	}

	switch in.Mode {
	case domain.SessionModeSubscription:
		// В режиме подписки Stripe всегда создает клиента и не принимает customer_creation
		params.LineItems = []*stripego.CheckoutSessionLineItemParams{
			{
				Price:    stripego.String(in.PriceRef),
				Quantity: stripego.Int64(subscriptionLineQuantity),
			},
		}
	default:
		if in.AlwaysCreateCustomer && in.CustomerID == "" {
			params.CustomerCreation = stripego.String(customerCreationAlways)
		}
		if len(in.SetupIntentMetadata) > 0 {
			params.SetupIntentData = &stripego.CheckoutSessionSetupIntentDataParams{
				Metadata: in.SetupIntentMetadata.Clone(),
			}
		}
	}

	return params
}
