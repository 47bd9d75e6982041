// Package stripetest содержит биллинг-провайдер в памяти для тестов.
package stripetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"
)

// Имена операций для FailOn
const (
	OpFindCustomersByEmail  = "FindCustomersByEmail"
	OpCreateCustomer        = "CreateCustomer"
	OpUpdateCustomer        = "UpdateCustomer"
	OpListCustomers         = "ListCustomers"
	OpListCards             = "ListCards"
	OpCreateCheckoutSession = "CreateCheckoutSession"
	OpGetCheckoutSession    = "GetCheckoutSession"
	OpListSetupSessions     = "ListSetupSessions"
)

// Provider хранит клиентов, карты и сессии в памяти. Списки отдаются от новых к старым.
type Provider struct {
	mu        sync.Mutex
	seq       int
	now       time.Time
	customers []*domain.Customer
	cards     map[string][]domain.Card
	sessions  []*domain.CheckoutSession
	failures  map[string]error
	calls     map[string]int
	lastParam *domain.CheckoutSessionParams
}

// New создает пустой провайдер
func New() *Provider {
	return &Provider{
		now:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		cards:    make(map[string][]domain.Card),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// FailOn заставляет операцию возвращать err, пока не вызван ClearFailures
func (p *Provider) FailOn(operation string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[operation] = err
}

// ClearFailures снимает все искусственные ошибки
func (p *Provider) ClearFailures() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = make(map[string]error)
}

// Calls число вызовов операции
func (p *Provider) Calls(operation string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[operation]
}

// Writes число вызовов создания и обновления клиентов
func (p *Provider) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[OpCreateCustomer] + p.calls[OpUpdateCustomer]
}

// LastSessionParams параметры последнего создания сессии
func (p *Provider) LastSessionParams() *domain.CheckoutSessionParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastParam == nil {
		return nil
	}
	cp := *p.lastParam
	return &cp
}

// SeedCustomer добавляет клиента как будто он создан ранее
func (p *Provider) SeedCustomer(email, name string, metadata domain.Metadata) domain.Customer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyCustomer(p.createLocked(email, name, metadata))
}

// AttachCard привязывает карту к клиенту
func (p *Provider) AttachCard(customerID string, card domain.Card) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards[customerID] = append(p.cards[customerID], card)
}

// Customers снимок всех клиентов, от новых к старым
func (p *Provider) Customers() []domain.Customer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Customer, 0, len(p.customers))
	for i := len(p.customers) - 1; i >= 0; i-- {
		out = append(out, copyCustomer(p.customers[i]))
	}
	return out
}

// Customer клиент по ID
func (p *Provider) Customer(id string) (domain.Customer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.findLocked(id)
	if c == nil {
		return domain.Customer{}, false
	}
	return copyCustomer(c), true
}

// CompleteSession имитирует завершение сессии покупателем на странице провайдера.
// Если сессия не привязана к клиенту, провайдер создает его, как при customer_creation=always.
func (p *Provider) CompleteSession(id string, card domain.Card) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.sessionLocked(id)
	if s == nil {
		return fmt.Errorf("session %s not found", id)
	}
	if s.CustomerID == "" {
		c := p.createLocked(s.CustomerEmail, "", nil)
		s.CustomerID = c.ID
	}
	s.Status = domain.SessionStatusComplete
	if s.SetupIntent != nil {
		s.SetupIntent.Status = "succeeded"
		cardCopy := card
		s.SetupIntent.Card = &cardCopy
	}
	p.cards[s.CustomerID] = append(p.cards[s.CustomerID], card)
	return nil
}

// MutateSession позволяет тесту изменить сохраненную сессию
func (p *Provider) MutateSession(id string, fn func(s *domain.CheckoutSession)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s := p.sessionLocked(id); s != nil {
		fn(s)
	}
}

func (p *Provider) enter(operation string) error {
	p.calls[operation]++
	return p.failures[operation]
}

func (p *Provider) FindCustomersByEmail(_ context.Context, email string, limit int) ([]domain.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpFindCustomersByEmail); err != nil {
		return nil, err
	}

	var out []domain.Customer
	for i := len(p.customers) - 1; i >= 0; i-- {
		if p.customers[i].Email != email {
			continue
		}
		out = append(out, copyCustomer(p.customers[i]))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (p *Provider) CreateCustomer(_ context.Context, email, name string, metadata domain.Metadata) (*domain.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpCreateCustomer); err != nil {
		return nil, err
	}
	c := copyCustomer(p.createLocked(email, name, metadata))
	return &c, nil
}

func (p *Provider) UpdateCustomer(_ context.Context, id, name string, metadata domain.Metadata) (*domain.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpUpdateCustomer); err != nil {
		return nil, err
	}

	c := p.findLocked(id)
	if c == nil {
		pe := domain.NewProviderError(OpUpdateCustomer, "No such customer: "+id, false, nil)
		pe.NotFound = true
		return nil, pe
	}
	if name != "" {
		c.Name = name
	}
	c.Metadata = c.Metadata.Merge(metadata)
	out := copyCustomer(c)
	return &out, nil
}

func (p *Provider) ListCustomers(_ context.Context, limit int) ([]domain.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpListCustomers); err != nil {
		return nil, err
	}

	var out []domain.Customer
	for i := len(p.customers) - 1; i >= 0; i-- {
		out = append(out, copyCustomer(p.customers[i]))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (p *Provider) ListCards(_ context.Context, customerID string) ([]domain.Card, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpListCards); err != nil {
		return nil, err
	}
	return append([]domain.Card(nil), p.cards[customerID]...), nil
}

func (p *Provider) CreateCheckoutSession(_ context.Context, params domain.CheckoutSessionParams) (*domain.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpCreateCheckoutSession); err != nil {
		return nil, err
	}
	if params.CustomerID != "" && p.findLocked(params.CustomerID) == nil {
		pe := domain.NewProviderError(OpCreateCheckoutSession, "No such customer: "+params.CustomerID, false, nil)
		pe.NotFound = true
		return nil, pe
	}

	paramsCopy := params
	p.lastParam = &paramsCopy

	p.seq++
	id := fmt.Sprintf("cs_test_%d", p.seq)
	s := &domain.CheckoutSession{
		ID:                id,
		URL:               "https://checkout.stripe.test/c/pay/" + id,
		Mode:              params.Mode,
		Status:            domain.SessionStatusOpen,
		Metadata:          params.Metadata.Clone(),
		ClientReferenceID: params.ClientReferenceID,
		CustomerID:        params.CustomerID,
		CustomerEmail:     params.CustomerEmail,
		CreatedAt:         p.tick(),
	}
	if c := p.findLocked(params.CustomerID); c != nil && s.CustomerEmail == "" {
		s.CustomerEmail = c.Email
	}
	if params.Mode == domain.SessionModeSetup {
		p.seq++
		s.SetupIntent = &domain.SetupIntent{
			ID:       fmt.Sprintf("seti_%d", p.seq),
			Status:   "requires_payment_method",
			Metadata: params.SetupIntentMetadata.Clone(),
		}
	}
	p.sessions = append(p.sessions, s)

	out := p.expandLocked(s)
	return &out, nil
}

func (p *Provider) GetCheckoutSession(_ context.Context, id string) (*domain.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpGetCheckoutSession); err != nil {
		return nil, err
	}

	s := p.sessionLocked(id)
	if s == nil {
		pe := domain.NewProviderError(OpGetCheckoutSession, "No such checkout.session: "+id, false, nil)
		pe.NotFound = true
		return nil, pe
	}
	out := p.expandLocked(s)
	return &out, nil
}

func (p *Provider) ListSetupSessions(_ context.Context, limit int) ([]domain.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpListSetupSessions); err != nil {
		return nil, err
	}

	var out []domain.CheckoutSession
	for i := len(p.sessions) - 1; i >= 0; i-- {
		if p.sessions[i].Mode != domain.SessionModeSetup {
			continue
		}
		out = append(out, p.expandLocked(p.sessions[i]))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (p *Provider) tick() time.Time {
	p.now = p.now.Add(time.Second)
	return p.now
}

func (p *Provider) createLocked(email, name string, metadata domain.Metadata) *domain.Customer {
	p.seq++
	c := &domain.Customer{
		ID:        fmt.Sprintf("cus_%d", p.seq),
		Email:     email,
		Name:      name,
		Metadata:  metadata.Clone(),
		CreatedAt: p.tick(),
	}
	p.customers = append(p.customers, c)
	return c
}

func (p *Provider) findLocked(id string) *domain.Customer {
	if id == "" {
		return nil
	}
	for _, c := range p.customers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (p *Provider) sessionLocked(id string) *domain.CheckoutSession {
	for _, s := range p.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// expandLocked копия сессии с раскрытым клиентом
func (p *Provider) expandLocked(s *domain.CheckoutSession) domain.CheckoutSession {
	out := *s
	out.Metadata = s.Metadata.Clone()
	if s.SetupIntent != nil {
		si := *s.SetupIntent
		si.Metadata = s.SetupIntent.Metadata.Clone()
		if s.SetupIntent.Card != nil {
			card := *s.SetupIntent.Card
			si.Card = &card
		}
		out.SetupIntent = &si
	}
	if c := p.findLocked(s.CustomerID); c != nil {
		cp := copyCustomer(c)
		out.Customer = &cp
	}
	return out
}

func copyCustomer(c *domain.Customer) domain.Customer {
	out := *c
	out.Metadata = c.Metadata.Clone()
	return out
}
