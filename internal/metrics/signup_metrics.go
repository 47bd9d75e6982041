package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SignupMetrics интерфейс для метрик регистраций
type SignupMetrics interface {
	IncCustomerResolved(outcome string)
	IncSessionCreated(mode, flow string)
	IncSessionResolved(status string)
	IncBaselineSubmitted(mirrored bool)
	IncRescanRequested(mirrored bool)
	IncBestEffortFailure(operation string)
	ObserveProviderCall(operation string, duration time.Duration, err error)
	SetAccessTypeCounts(counts map[string]int)
}

type signupMetrics struct {
	customersResolved  *prometheus.CounterVec
	sessionsCreated    *prometheus.CounterVec
	sessionsResolved   *prometheus.CounterVec
	baselineSubmitted  *prometheus.CounterVec
	rescanRequested    *prometheus.CounterVec
	bestEffortFailures *prometheus.CounterVec
	providerDuration   *prometheus.HistogramVec
	accessTypes        *prometheus.GaugeVec
}

// NewSignupMetrics создает метрики регистраций
func NewSignupMetrics(registry *prometheus.Registry) SignupMetrics {
	factory := promauto.With(registry)

	return &signupMetrics{
		customersResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_customers_resolved_total",
				Help: "Customer find-or-create outcomes",
			},
			[]string{"outcome"},
		),
		sessionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_sessions_created_total",
				Help: "Hosted checkout sessions created",
			},
			[]string{"mode", "flow"},
		),
		sessionsResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_sessions_resolved_total",
				Help: "Session resolutions by reported status",
			},
			[]string{"status"},
		),
		baselineSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_baseline_submissions_total",
				Help: "Baseline submissions by mirror outcome",
			},
			[]string{"mirrored"},
		),
		rescanRequested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_rescan_requests_total",
				Help: "Rescan requests by mirror outcome",
			},
			[]string{"mirrored"},
		),
		bestEffortFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_best_effort_failures_total",
				Help: "Secondary writes that failed and were swallowed",
			},
			[]string{"operation"},
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signup_provider_call_duration_seconds",
				Help:    "Billing provider call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "success"},
		),
		accessTypes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signup_customers_by_access_type",
				Help: "Customers per access classification at the last dashboard build",
			},
			[]string{"access_type"},
		),
	}
}

func (m *signupMetrics) IncCustomerResolved(outcome string) {
	m.customersResolved.WithLabelValues(outcome).Inc()
}

func (m *signupMetrics) IncSessionCreated(mode, flow string) {
	m.sessionsCreated.WithLabelValues(mode, flow).Inc()
}

func (m *signupMetrics) IncSessionResolved(status string) {
	m.sessionsResolved.WithLabelValues(status).Inc()
}

func (m *signupMetrics) IncBaselineSubmitted(mirrored bool) {
	m.baselineSubmitted.WithLabelValues(strconv.FormatBool(mirrored)).Inc()
}

func (m *signupMetrics) IncRescanRequested(mirrored bool) {
	m.rescanRequested.WithLabelValues(strconv.FormatBool(mirrored)).Inc()
}

func (m *signupMetrics) IncBestEffortFailure(operation string) {
	m.bestEffortFailures.WithLabelValues(operation).Inc()
}

func (m *signupMetrics) ObserveProviderCall(operation string, duration time.Duration, err error) {
	m.providerDuration.WithLabelValues(operation, strconv.FormatBool(err == nil)).Observe(duration.Seconds())
}

// SetAccessTypeCounts заменяет значения gauge целиком
func (m *signupMetrics) SetAccessTypeCounts(counts map[string]int) {
	m.accessTypes.Reset()
	for accessType, n := range counts {
		m.accessTypes.WithLabelValues(accessType).Set(float64(n))
	}
}

// Noop метрики-заглушка для тестов и CLI
type Noop struct{}

func (Noop) IncCustomerResolved(string)                          {}
func (Noop) IncSessionCreated(string, string)                    {}
func (Noop) IncSessionResolved(string)                           {}
func (Noop) IncBaselineSubmitted(bool)                           {}
func (Noop) IncRescanRequested(bool)                             {}
func (Noop) IncBestEffortFailure(string)                         {}
func (Noop) ObserveProviderCall(string, time.Duration, error)    {}
func (Noop) SetAccessTypeCounts(map[string]int)                  {}
