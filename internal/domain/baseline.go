package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail проверяет формат email
func ValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// ValidWebsite сайт обязан начинаться с https://
func ValidWebsite(website string) bool {
	return strings.HasPrefix(website, "https://")
}

// NormalizeWebsite убирает один завершающий слэш
func NormalizeWebsite(website string) string {
	return strings.TrimSuffix(strings.TrimSpace(website), "/")
}

// BaselineRequest бесплатная заявка на базовый отчет
type BaselineRequest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Website   string    `json:"website"`
	Company   string    `json:"company,omitempty"`
	Type      string    `json:"type"`
	Timestamp string    `json:"timestamp"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewBaselineRequest нормализует поля и присваивает идентификатор вида baseline_<ms>_<suffix>
func NewBaselineRequest(name, email, website, company, requestType, timestamp string, now time.Time) BaselineRequest {
	if requestType == "" {
		requestType = SourceFreeBaseline
	}
	if timestamp == "" {
		timestamp = now.UTC().Format(time.RFC3339)
	}
	return BaselineRequest{
		ID:        NewBaselineID(now),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Website:   NormalizeWebsite(website),
		Company:   strings.TrimSpace(company),
		Type:      requestType,
		Timestamp: timestamp,
		Status:    BaselineStatusQueued,
		CreatedAt: now.UTC(),
	}
}

// NewBaselineID идентификатор заявки
func NewBaselineID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("baseline_%d_%s", now.UnixMilli(), suffix)
}

// MirrorMetadata семейство ba_* для зеркалирования заявки на клиента
func (b BaselineRequest) MirrorMetadata() Metadata {
	return Metadata{
		KeySubmissionType: SubmissionTypeBaseline,
		KeyBASource:       SourceFreeBaseline,
		KeyBAWebsite:      b.Website,
		KeyBACompany:      b.Company,
		KeyBATimestamp:    b.Timestamp,
		KeyBAStatus:       BaselineStatusQueued,
	}
}

// RescanRequest запрос на повторное сканирование сайта
type RescanRequest struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Website   string    `json:"website"`
	Context   string    `json:"context"`
	ReportURL string    `json:"reportUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRescanRequest нормализует поля запроса
func NewRescanRequest(email, website, context, reportURL string, now time.Time) RescanRequest {
	if strings.TrimSpace(context) == "" {
		context = "unknown"
	}
	return RescanRequest{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(email),
		Website:   NormalizeWebsite(website),
		Context:   context,
		ReportURL: strings.TrimSpace(reportURL),
		CreatedAt: now.UTC(),
	}
}

// MirrorMetadata семейство rescan_*
func (r RescanRequest) MirrorMetadata() Metadata {
	return Metadata{
		KeyRescanRequested: "1",
		KeyRescanWebsite:   r.Website,
		KeyRescanContext:   r.Context,
		KeyRescanReportURL: r.ReportURL,
		KeyRescanTS:        r.CreatedAt.Format(time.RFC3339),
	}
}
