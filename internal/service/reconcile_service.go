package service

import (
	"context"
	"sort"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
)

// DuplicateGroup клиенты с одинаковым email. Canonical - первая запись в выдаче провайдера.
type DuplicateGroup struct {
	Email      string   `json:"email"`
	Canonical  string   `json:"canonical"`
	Duplicates []string `json:"duplicates"`
	// FilledKeys ключи, перенесенные на каноническую запись из дубликатов
	FilledKeys []string `json:"filledKeys,omitempty"`
}

// ReconcileReport итог прохода сверки
type ReconcileReport struct {
	Scanned int              `json:"scanned"`
	Groups  []DuplicateGroup `json:"groups"`
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	DryRun  bool             `json:"dryRun"`
}

// ReconcileService периодическое объединение клиентов с одним email
type ReconcileService interface {
	ReconcileDuplicates(ctx context.Context, dryRun bool) (*ReconcileReport, error)
}

type reconcileService struct {
	provider BillingProvider
	effects  sideEffects
	limit    int
	log      *logger.Logger
}

// NewReconcileService создает сервис сверки дубликатов. limit <= 0 - все клиенты.
func NewReconcileService(provider BillingProvider, publisher EventPublisher, limit int, m metrics.SignupMetrics, log *logger.Logger) ReconcileService {
	if m == nil {
		m = metrics.Noop{}
	}
	return &reconcileService{
		provider: provider,
		effects:  sideEffects{publisher: publisher, metrics: m, log: log},
		limit:    limit,
		log:      log,
	}
}

// ReconcileDuplicates переносит недостающие ключи метаданных на каноническую запись
// и помечает дубликаты ключом merged_into. Ничего не удаляется.
func (s *reconcileService) ReconcileDuplicates(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	customers, err := s.provider.ListCustomers(ctx, s.limit)
	if err != nil {
		return nil, providerFailure(err, domain.CodeInternal)
	}

	report := &ReconcileReport{Scanned: len(customers), DryRun: dryRun}
	for _, group := range groupByEmail(customers) {
		if len(group) < 2 {
			continue
		}
		report.Groups = append(report.Groups, s.reconcileGroup(ctx, group, dryRun, report))
	}

	s.log.Info("Duplicate reconciliation done: scanned=%d groups=%d updated=%d failed=%d dry_run=%t",
		report.Scanned, len(report.Groups), report.Updated, report.Failed, dryRun)
	return report, nil
}

func (s *reconcileService) reconcileGroup(ctx context.Context, group []domain.Customer, dryRun bool, report *ReconcileReport) DuplicateGroup {
	canonical := group[0]
	result := DuplicateGroup{Email: domain.NormalizeEmail(canonical.Email), Canonical: canonical.ID}

	merged := canonical.Metadata.Clone()
	for _, dup := range group[1:] {
		result.Duplicates = append(result.Duplicates, dup.ID)
		inherited := dup.Metadata.Clone()
		delete(inherited, domain.KeyMergedInto)
		merged = merged.FillMissing(inherited.WithoutEmpty())
	}

	fill := domain.Metadata{}
	for k, v := range merged {
		if _, ok := canonical.Metadata[k]; !ok {
			fill[k] = v
			result.FilledKeys = append(result.FilledKeys, k)
		}
	}
	sort.Strings(result.FilledKeys)

	if dryRun {
		return result
	}

	written := 0
	if len(fill) > 0 {
		if _, err := s.provider.UpdateCustomer(ctx, canonical.ID, "", fill); err != nil {
			report.Failed++
			s.effects.failed("reconcile_canonical", err, map[string]string{"customer_id": canonical.ID})
		} else {
			written++
		}
	}

	tag := domain.Metadata{domain.KeyMergedInto: canonical.ID}
	for _, dup := range group[1:] {
		if dup.Metadata.Contains(tag) {
			continue
		}
		if _, err := s.provider.UpdateCustomer(ctx, dup.ID, "", tag); err != nil {
			report.Failed++
			s.effects.failed("reconcile_duplicate", err, map[string]string{"customer_id": dup.ID})
			continue
		}
		written++
	}

	report.Updated += written
	// Повторный проход без записей событие не публикует
	if written > 0 {
		s.effects.publish(ctx, EventCustomerReconciled, canonical.ID, result)
	}
	return result
}

// groupByEmail сохраняет порядок выдачи провайдера внутри группы и между группами
func groupByEmail(customers []domain.Customer) [][]domain.Customer {
	index := make(map[string]int)
	var groups [][]domain.Customer
	for _, c := range customers {
		email := domain.NormalizeEmail(c.Email)
		if email == "" {
			continue
		}
		i, ok := index[email]
		if !ok {
			i = len(groups)
			index[email] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], c)
	}
	return groups
}
