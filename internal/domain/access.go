package domain

import (
	"strings"
	"time"
)

// AccessType производная категория клиента для админ-панели
type AccessType string

const (
	AccessFounder  AccessType = "founder_access"
	AccessBaseline AccessType = "free_baseline"
	AccessUnknown  AccessType = "unknown"

	paidPlanPrefix = "paid_plan_"
)

// PaidPlanAccess тип доступа для платного плана. Пустой план дает "paid_plan_".
func PaidPlanAccess(plan string) AccessType {
	return AccessType(paidPlanPrefix + strings.ToLower(strings.TrimSpace(plan)))
}

// IsPaidPlan true для paid_plan_*
func (a AccessType) IsPaidPlan() bool {
	return strings.HasPrefix(string(a), paidPlanPrefix)
}

// ShowsCard карта отображается только для founder_access и paid_plan_*
func (a AccessType) ShowsCard() bool {
	return a == AccessFounder || a.IsPaidPlan()
}

// Classify определяет тип доступа; первое совпадение выигрывает.
// sessionMeta - метаданные последней setup-сессии клиента (может быть nil).
func Classify(customer Metadata, sessionMeta Metadata) AccessType {
	switch {
	case customer.Get(KeySource) == SourcePaidPlanSignup || sessionMeta.Get(KeySource) == SourcePaidPlanSignup:
		return PaidPlanAccess(FirstNonEmpty(customer.Get(KeyPlan), sessionMeta.Get(KeyPlan)))
	case customer.Get(KeyFASource) == SourceFounderAccess:
		return AccessFounder
	case customer.Get(KeyBASource) == SourceFreeBaseline || customer.Get(KeySubmissionType) == SubmissionTypeBaseline:
		return AccessBaseline
	default:
		return AccessUnknown
	}
}

// SetupSessionRef ссылка на setup-сессию клиента в строке админ-панели
type SetupSessionRef struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// DashboardRow строка админ-панели
type DashboardRow struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Created          string           `json:"created"`
	HasCard          bool             `json:"hasCard"`
	CardDetails      *Card            `json:"cardDetails"`
	AccessType       AccessType       `json:"accessType"`
	Website          string           `json:"website"`
	SetupSession     *SetupSessionRef `json:"setupSession"`
	Company          *string          `json:"company"`
	SubmissionStatus *string          `json:"submissionStatus"`
	PlanName         *string          `json:"planName"`
	Metadata         Metadata         `json:"metadata"`
}

// TierStats разбивка по наличию карты внутри категории
type TierStats struct {
	Total        int `json:"total"`
	WithCards    int `json:"withCards"`
	WithoutCards int `json:"withoutCards"`
}

// DashboardStats сводные счетчики
type DashboardStats struct {
	Total                int                  `json:"total"`
	WithCards            int                  `json:"withCards"`
	WithoutCards         int                  `json:"withoutCards"`
	FounderAccess        int                  `json:"founderAccess"`
	FreeBaseline         int                  `json:"freeBaseline"`
	Unknown              int                  `json:"unknown"`
	FounderWithCards     int                  `json:"founderWithCards"`
	FounderWithoutCards  int                  `json:"founderWithoutCards"`
	PaidPlans            int                  `json:"paidPlans"`
	StarterPlan          int                  `json:"starterPlan"`
	ProPlan              int                  `json:"proPlan"`
	AgencyPlan           int                  `json:"agencyPlan"`
	PaidPlanWithCards    int                  `json:"paidPlanWithCards"`
	PaidPlanWithoutCards int                  `json:"paidPlanWithoutCards"`
	ByTier               map[string]TierStats `json:"byTier"`
}

// Dashboard полный ответ админ-панели
type Dashboard struct {
	Stats       DashboardStats `json:"stats"`
	Customers   []DashboardRow `json:"customers"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// BuildRow классифицирует клиента и применяет политику отображения карты.
// setupSession - последняя setup-сессия клиента, может быть nil.
func BuildRow(c CustomerWithCards, setupSession *CheckoutSession) DashboardRow {
	meta := c.Customer.Metadata
	var sessionMeta Metadata
	if setupSession != nil {
		sessionMeta = setupSession.Metadata
	}

	access := Classify(meta, sessionMeta)
	showCard := access.ShowsCard()

	row := DashboardRow{
		ID:               c.Customer.ID,
		Name:             FirstNonEmpty(c.Customer.Name, "Unknown"),
		Email:            c.Customer.Email,
		Created:          c.Customer.CreatedAt.UTC().Format(time.RFC3339),
		HasCard:          c.HasSavedCard() && showCard,
		AccessType:       access,
		Website:          FirstNonEmpty(meta.Get(KeyFAWebsite), meta.Get(KeyBAWebsite), meta.Get(KeyWebsite), sessionMeta.Get(KeyWebsite)),
		Company:          optional(meta.Get(KeyBACompany)),
		SubmissionStatus: optional(meta.Get(KeyBAStatus)),
		Metadata:         meta.Clone(),
	}

	if row.HasCard {
		card := c.Cards[0]
		row.CardDetails = &card
	}
	if setupSession != nil && showCard {
		row.SetupSession = &SetupSessionRef{ID: setupSession.ID, Status: setupSession.Status, URL: setupSession.URL}
	}
	if access.IsPaidPlan() {
		row.PlanName = optional(FirstNonEmpty(meta.Get(KeyPlan), sessionMeta.Get(KeyPlan)))
	}
	return row
}

// Aggregate считает статистику по уже построенным строкам
func Aggregate(rows []DashboardRow) DashboardStats {
	stats := DashboardStats{ByTier: make(map[string]TierStats)}
	for _, r := range rows {
		stats.Total++
		if r.HasCard {
			stats.WithCards++
		} else {
			stats.WithoutCards++
		}

		tier := stats.ByTier[string(r.AccessType)]
		tier.Total++
		if r.HasCard {
			tier.WithCards++
		} else {
			tier.WithoutCards++
		}
		stats.ByTier[string(r.AccessType)] = tier

		switch {
		case r.AccessType == AccessFounder:
			stats.FounderAccess++
			if r.HasCard {
				stats.FounderWithCards++
			} else {
				stats.FounderWithoutCards++
			}
		case r.AccessType == AccessBaseline:
			stats.FreeBaseline++
		case r.AccessType.IsPaidPlan():
			stats.PaidPlans++
			if r.HasCard {
				stats.PaidPlanWithCards++
			} else {
				stats.PaidPlanWithoutCards++
			}
			switch r.AccessType {
			case PaidPlanAccess("starter"):
				stats.StarterPlan++
			case PaidPlanAccess("pro"):
				stats.ProPlan++
			case PaidPlanAccess("agency"):
				stats.AgencyPlan++
			}
		default:
			stats.Unknown++
		}
	}
	return stats
}
