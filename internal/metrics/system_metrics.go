package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RuntimeMetrics периодический снимок состояния процесса
type RuntimeMetrics interface {
	Record()
	// Run пишет снимки с заданным интервалом до отмены ctx
	Run(ctx context.Context, interval time.Duration)
}

type runtimeMetrics struct {
	log         *logger.Logger
	startedAt   time.Time
	goroutines  prometheus.Gauge
	heapAlloc   prometheus.Gauge
	heapObjects prometheus.Gauge
	sysBytes    prometheus.Gauge
	gcCycles    prometheus.Gauge
	uptime      prometheus.Gauge
	build       *prometheus.GaugeVec
}

// NewRuntimeMetrics создает метрики процесса и отмечает версию сборки
func NewRuntimeMetrics(registry *prometheus.Registry, version string, log *logger.Logger) RuntimeMetrics {
	factory := promauto.With(registry)

	m := &runtimeMetrics{
		log:       log,
		startedAt: time.Now(),
		goroutines: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signup_runtime_goroutines",
			Help: "Current number of goroutines",
		}),
		heapAlloc: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signup_runtime_heap_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		}),
		heapObjects: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signup_runtime_heap_objects",
			Help: "Number of allocated heap objects",
		}),
		sysBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signup_runtime_sys_bytes",
			Help: "Total memory obtained from the OS",
		}),
		gcCycles: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signup_runtime_gc_cycles",
			Help: "Completed GC cycles since start",
		}),
		uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signup_uptime_seconds",
			Help: "Seconds since the process started",
		}),
		build: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "signup_build_info",
			Help: "Build version of the running binary",
		}, []string{"version", "go_version"}),
	}
	m.build.WithLabelValues(version, runtime.Version()).Set(1)
	return m
}

// Record снимает текущие значения
func (m *runtimeMetrics) Record() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.goroutines.Set(float64(runtime.NumGoroutine()))
	m.heapAlloc.Set(float64(stats.HeapAlloc))
	m.heapObjects.Set(float64(stats.HeapObjects))
	m.sysBytes.Set(float64(stats.Sys))
	m.gcCycles.Set(float64(stats.NumGC))
	m.uptime.Set(time.Since(m.startedAt).Seconds())
}

func (m *runtimeMetrics) Run(ctx context.Context, interval time.Duration) {
	m.Record()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Record()
			case <-ctx.Done():
				m.log.Debug("Runtime metrics recording stopped")
				return
			}
		}
	}()
	m.log.Info("Runtime metrics recording started with interval %s", interval)
}
