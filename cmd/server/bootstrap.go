package main

import (
	"context"
	"fmt"

	"github.com/Dhoini/clearpath-signup/config"
	"github.com/Dhoini/clearpath-signup/internal/kafka"
	"github.com/Dhoini/clearpath-signup/internal/kafka/producer"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/internal/reporting"
	"github.com/Dhoini/clearpath-signup/internal/repository"
	"github.com/Dhoini/clearpath-signup/internal/repository/postgres"
	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/Dhoini/clearpath-signup/internal/stripe"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// app общие зависимости команд
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	metrics  metrics.SignupMetrics
	reporter reporting.Reporter
	provider *stripe.Provider

	locker    service.EmailLocker
	cache     service.DashboardCache
	publisher service.EventPublisher
	store     repository.SubmissionRepository

	closers []func()
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Level: logger.ParseLevel(cfg.App.LogLevel),
		JSON:  cfg.IsProduction(),
	})
}

// bootstrap поднимает конфигурацию, логгер, метрики и клиента Stripe.
// Redis, Postgres и Kafka необязательны: ошибка подключения понижает режим работы, а не останавливает запуск.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := newLogger(cfg)
	registry := prometheus.NewRegistry()
	signupMetrics := metrics.NewSignupMetrics(registry)

	reporter, err := reporting.New(cfg.Sentry.DSN, cfg.App.Env, Version)
	if err != nil {
		log.Warn("Error reporting disabled: %v", err)
		reporter = reporting.Noop{}
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  signupMetrics,
		reporter: reporter,
		provider: stripe.NewProvider(stripe.Options{
			APIKey:  cfg.Stripe.SecretKey,
			BaseURL: cfg.Stripe.APIURL,
			Timeout: cfg.Stripe.Timeout,
		}, signupMetrics, log),
		store: repository.NewMemorySubmissionRepository(),
	}
	a.closers = append(a.closers, reporter.Flush)

	if !a.provider.Configured() {
		log.Warn("STRIPE_SECRET_KEY is not set: checkout and dashboard calls will fail, baseline submissions stay local")
	}

	a.connectRedis(ctx)
	a.connectPostgres(ctx)
	a.connectKafka(ctx)

	return a, nil
}

func (a *app) connectRedis(ctx context.Context) {
	if a.cfg.Redis.Addr == "" {
		a.log.Info("REDIS_ADDR is not set: identity lock and dashboard cache disabled")
		return
	}
	client, err := repository.NewRedisClient(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB, a.log)
	if err != nil {
		a.log.Warn("Redis unavailable, continuing without lock and cache: %v", err)
		return
	}
	a.closers = append(a.closers, func() { closeRedis(client, a.log) })

	a.locker = repository.NewRedisEmailLocker(client, a.cfg.Redis.IdentityLockTTL, a.log)
	a.cache = repository.NewRedisCacheRepository(client, a.cfg.Dashboard.CacheTTL, a.log)
}

func closeRedis(client *redis.Client, log *logger.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("Failed to close redis client: %v", err)
	}
}

func (a *app) connectPostgres(ctx context.Context) {
	if a.cfg.Database.URL == "" {
		a.log.Info("DATABASE_URL is not set: submissions are kept in memory")
		return
	}
	pool, err := postgres.NewConnection(ctx, a.cfg.Database.URL, a.log)
	if err != nil {
		a.log.Warn("Postgres unavailable, submissions are kept in memory: %v", err)
		return
	}
	repo := postgres.NewSubmissionRepository(pool, a.log)
	if err := repo.EnsureSchema(ctx); err != nil {
		a.log.Warn("Failed to prepare submissions schema, submissions are kept in memory: %v", err)
		pool.Close()
		return
	}
	a.closers = append(a.closers, pool.Close)
	a.store = repo
}

func (a *app) connectKafka(ctx context.Context) {
	if len(a.cfg.Kafka.Brokers) == 0 {
		a.log.Info("KAFKA_BROKERS is not set: event publishing disabled")
		return
	}
	kafkaConfig := kafka.NewConfig(a.cfg.Kafka.Brokers, a.cfg.Kafka.TopicPrefix)

	topics := kafka.Topics(kafkaConfig.TopicPrefix,
		service.EventSessionCreated,
		service.EventBaselineQueued,
		service.EventRescanRequested,
		service.EventCustomerReconciled,
	)
	if err := kafka.EnsureKafkaTopics(ctx, kafkaConfig.Brokers, topics, a.log); err != nil {
		a.log.Warn("Kafka topics were not verified: %v", err)
	}

	syncProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, kafka.NewSaramaConfig(kafkaConfig))
	if err != nil {
		a.log.Warn("Kafka unavailable, event publishing disabled: %v", err)
		return
	}
	events := producer.NewEventProducer(syncProducer, kafkaConfig.TopicPrefix, a.log)
	a.closers = append(a.closers, func() {
		if err := events.Close(); err != nil {
			a.log.Warn("Failed to close kafka producer: %v", err)
		}
	})
	a.publisher = events
}

func (a *app) identity() service.IdentityService {
	return service.NewIdentityService(a.provider, a.locker, a.metrics, a.log)
}

// mirrorIdentity nil без ключа Stripe: заявки тогда не зеркалируются на клиента
func (a *app) mirrorIdentity(identity service.IdentityService) service.IdentityService {
	if !a.provider.Configured() {
		return nil
	}
	return identity
}

// close освобождает ресурсы в обратном порядке
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}
