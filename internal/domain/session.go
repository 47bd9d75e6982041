package domain

import "time"

// SessionMode режим checkout-сессии
type SessionMode string

const (
	SessionModeSetup        SessionMode = "setup"
	SessionModeSubscription SessionMode = "subscription"
)

// SignupFlow вариант регистрации, определяющий семейство метаданных
type SignupFlow string

const (
	FlowPaidPlan      SignupFlow = "paid_plan"
	FlowFounderAccess SignupFlow = "founder_access"
)

// Статусы сессии, отличные от статусов setup intent
const (
	SessionStatusComplete = "complete"
	SessionStatusOpen     = "open"
	SessionStatusExpired  = "expired"
	StatusUnknown         = "unknown"
)

// SetupIntent объект, фактически сохраняющий карту в setup-режиме
type SetupIntent struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Metadata Metadata `json:"metadata,omitempty"`
	Card     *Card    `json:"card,omitempty"`
}

// CheckoutSession сессия, размещенная у провайдера
type CheckoutSession struct {
	ID                string       `json:"id"`
	URL               string       `json:"url"`
	Mode              SessionMode  `json:"mode"`
	Status            string       `json:"status"`
	Metadata          Metadata     `json:"metadata,omitempty"`
	ClientReferenceID string       `json:"client_reference_id,omitempty"`
	CustomerID        string       `json:"customer_id,omitempty"`
	Customer          *Customer    `json:"customer,omitempty"`
	CustomerEmail     string       `json:"customer_email,omitempty"`
	SetupIntent       *SetupIntent `json:"setup_intent,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// CheckoutSessionParams параметры создания сессии у провайдера
type CheckoutSessionParams struct {
	Mode                  SessionMode
	CustomerID            string
	CustomerEmail         string
	AlwaysCreateCustomer  bool
	CollectBillingAddress bool
	PriceRef              string
	SuccessURL            string
	CancelURL             string
	ClientReferenceID     string
	Metadata              Metadata
	// SetupIntentMetadata дублирует метаданные на setup intent (только setup-режим)
	SetupIntentMetadata Metadata
}

// SessionSummary ответ страницы успеха
type SessionSummary struct {
	Status  string  `json:"status"`
	Email   *string `json:"email"`
	Website *string `json:"website"`
	Plan    *string `json:"plan"`
	Card    *Card   `json:"card"`
}

// ResolveWebsite единственное место, где задан порядок поиска сайта по слотам метаданных:
// session fa_website → session website → client_reference_id → setup intent fa_website →
// customer fa_website → customer website.
func ResolveWebsite(s *CheckoutSession) string {
	if s == nil {
		return ""
	}
	var siMeta, custMeta Metadata
	if s.SetupIntent != nil {
		siMeta = s.SetupIntent.Metadata
	}
	if s.Customer != nil {
		custMeta = s.Customer.Metadata
	}
	return FirstNonEmpty(
		s.Metadata.Get(KeyFAWebsite),
		s.Metadata.Get(KeyWebsite),
		s.ClientReferenceID,
		siMeta.Get(KeyFAWebsite),
		custMeta.Get(KeyFAWebsite),
		custMeta.Get(KeyWebsite),
	)
}

// ResolvePlan план: session → setup intent → customer
func ResolvePlan(s *CheckoutSession) string {
	if s == nil {
		return ""
	}
	var siMeta, custMeta Metadata
	if s.SetupIntent != nil {
		siMeta = s.SetupIntent.Metadata
	}
	if s.Customer != nil {
		custMeta = s.Customer.Metadata
	}
	return FirstNonEmpty(
		s.Metadata.Get(KeyPlan),
		siMeta.Get(KeyPlan),
		custMeta.Get(KeyPlan),
	)
}

// ResolveEmail email покупателя: введенный на странице провайдера, затем email клиента
func ResolveEmail(s *CheckoutSession) string {
	if s == nil {
		return ""
	}
	var custEmail string
	if s.Customer != nil {
		custEmail = s.Customer.Email
	}
	return FirstNonEmpty(s.CustomerEmail, custEmail)
}

// ResolveStatus статус setup intent, иначе статус сессии
func ResolveStatus(s *CheckoutSession) string {
	if s == nil {
		return StatusUnknown
	}
	var siStatus string
	if s.SetupIntent != nil {
		siStatus = s.SetupIntent.Status
	}
	return FirstNonEmpty(siStatus, s.Status, StatusUnknown)
}

// Summarize собирает ответ страницы успеха из развернутой сессии
func Summarize(s *CheckoutSession) SessionSummary {
	summary := SessionSummary{
		Status:  ResolveStatus(s),
		Email:   optional(ResolveEmail(s)),
		Website: optional(ResolveWebsite(s)),
		Plan:    optional(ResolvePlan(s)),
	}
	if s != nil && s.SetupIntent != nil && s.SetupIntent.Card != nil {
		card := *s.SetupIntent.Card
		summary.Card = &card
	}
	return summary
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
