package service

import (
	"context"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// MaxDashboardPageSize верхняя граница страницы клиентов и параллельных запросов карт
const MaxDashboardPageSize = 100

// DashboardCache снимок админ-панели. GetDashboard возвращает nil, nil при промахе.
type DashboardCache interface {
	GetDashboard(ctx context.Context) (*domain.Dashboard, error)
	CacheDashboard(ctx context.Context, dashboard *domain.Dashboard) error
	// InvalidateDashboard сбрасывает снимок после изменения клиентов
	InvalidateDashboard(ctx context.Context) error
}

// DashboardResult админ-панель и признак ответа из кеша
type DashboardResult struct {
	Dashboard *domain.Dashboard
	Cached    bool
}

// DashboardService сводное представление клиентов. Только чтение.
type DashboardService interface {
	BuildDashboard(ctx context.Context, refresh bool) (*DashboardResult, error)
}

type dashboardService struct {
	provider BillingProvider
	cache    DashboardCache
	pageSize int
	metrics  metrics.SignupMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewDashboardService создает сервис админ-панели. cache может быть nil.
func NewDashboardService(provider BillingProvider, cache DashboardCache, pageSize int, m metrics.SignupMetrics, log *logger.Logger) DashboardService {
	if pageSize <= 0 || pageSize > MaxDashboardPageSize {
		pageSize = MaxDashboardPageSize
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &dashboardService{
		provider: provider,
		cache:    cache,
		pageSize: pageSize,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// BuildDashboard читает страницу клиентов, параллельно запрашивает карты каждого
// и ждет все запросы перед подсчетом статистики. refresh игнорирует кеш.
func (s *dashboardService) BuildDashboard(ctx context.Context, refresh bool) (*DashboardResult, error) {
	if s.cache != nil && !refresh {
		cached, err := s.cache.GetDashboard(ctx)
		if err != nil {
			s.log.Warnw("Dashboard cache read failed", "error", err)
		}
		if cached != nil {
			return &DashboardResult{Dashboard: cached, Cached: true}, nil
		}
	}

	customers, err := s.provider.ListCustomers(ctx, s.pageSize)
	if err != nil {
		s.log.Error("Failed to list customers: %v", err)
		return nil, providerFailure(err, domain.CodeInternal)
	}

	sessions, err := s.provider.ListSetupSessions(ctx, s.pageSize)
	if err != nil {
		s.log.Error("Failed to list setup sessions: %v", err)
		return nil, providerFailure(err, domain.CodeInternal)
	}
	latest := latestSessionByCustomer(sessions)

	cards := make([][]domain.Card, len(customers))
	g, gctx := errgroup.WithContext(ctx)
	for i := range customers {
		i := i
		g.Go(func() error {
			list, err := s.provider.ListCards(gctx, customers[i].ID)
			if err != nil {
				s.log.Warnw("Failed to list cards", "customer_id", customers[i].ID, "error", err)
				return err
			}
			cards[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, providerFailure(err, domain.CodeInternal)
	}

	rows := make([]domain.DashboardRow, 0, len(customers))
	for i, c := range customers {
		rows = append(rows, domain.BuildRow(domain.CustomerWithCards{Customer: c, Cards: cards[i]}, latest[c.ID]))
	}

	dashboard := &domain.Dashboard{
		Stats:       domain.Aggregate(rows),
		Customers:   rows,
		LastUpdated: s.now().UTC(),
	}
	s.metrics.SetAccessTypeCounts(tierCounts(dashboard.Stats))
	s.log.Info("Dashboard built: %d customers, %d with cards", dashboard.Stats.Total, dashboard.Stats.WithCards)

	if s.cache != nil {
		if err := s.cache.CacheDashboard(ctx, dashboard); err != nil {
			s.log.Warnw("Failed to cache dashboard", "error", err)
		}
	}

	return &DashboardResult{Dashboard: dashboard}, nil
}

// latestSessionByCustomer сессии приходят от новых к старым, первая найденная - последняя
func latestSessionByCustomer(sessions []domain.CheckoutSession) map[string]*domain.CheckoutSession {
	latest := make(map[string]*domain.CheckoutSession, len(sessions))
	for i := range sessions {
		id := sessions[i].CustomerID
		if id == "" {
			continue
		}
		if _, ok := latest[id]; !ok {
			latest[id] = &sessions[i]
		}
	}
	return latest
}

func tierCounts(stats domain.DashboardStats) map[string]int {
	counts := make(map[string]int, len(stats.ByTier))
	for tier, t := range stats.ByTier {
		counts[tier] = t.Total
	}
	return counts
}
