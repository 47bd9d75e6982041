package service

import (
	"context"

	"github.com/Dhoini/clearpath-signup/internal/domain"
)

// BillingProvider граница с биллинг-провайдером. Каждый вызов - независимый запрос-ответ без повторов.
type BillingProvider interface {
	// FindCustomersByEmail точное совпадение email, самые свежие записи первыми
	FindCustomersByEmail(ctx context.Context, email string, limit int) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, email, name string, metadata domain.Metadata) (*domain.Customer, error)
	// UpdateCustomer пустое name не изменяет имя; metadata записывается поверх существующих ключей
	UpdateCustomer(ctx context.Context, id, name string, metadata domain.Metadata) (*domain.Customer, error)
	ListCustomers(ctx context.Context, limit int) ([]domain.Customer, error)
	ListCards(ctx context.Context, customerID string) ([]domain.Card, error)

	CreateCheckoutSession(ctx context.Context, params domain.CheckoutSessionParams) (*domain.CheckoutSession, error)
	// GetCheckoutSession возвращает сессию с развернутыми setup intent → payment method и клиентом
	GetCheckoutSession(ctx context.Context, id string) (*domain.CheckoutSession, error)
	// ListSetupSessions setup-сессии, самые свежие первыми
	ListSetupSessions(ctx context.Context, limit int) ([]domain.CheckoutSession, error)
}

// EmailLocker взаимное исключение find-or-create по email
type EmailLocker interface {
	Lock(ctx context.Context, email string) (unlock func(), err error)
}

// EventPublisher публикация событий для внешней обработки
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// ErrorReporter внешняя отчетность об ошибках
type ErrorReporter interface {
	CaptureError(err error, tags map[string]string)
}
