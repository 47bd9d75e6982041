package domain

import (
	"strings"
	"time"
)

// Customer каноническая запись клиента у биллинг-провайдера, ключ - email
type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Card краткие данные сохраненной карты
type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
}

// CustomerWithCards клиент с вычисленными признаками наличия карты
type CustomerWithCards struct {
	Customer Customer
	Cards    []Card
}

// HasSavedCard true, если к клиенту привязана хотя бы одна карта
func (c CustomerWithCards) HasSavedCard() bool {
	return len(c.Cards) > 0
}

// NormalizeEmail приводит email к ключу поиска
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart часть email до "@"
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
