package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const (
	dashboardKey = "dashboard:snapshot"

	// TTL для кэша
	defaultCacheTTL = 30 * time.Second
)

// NewRedisClient подключается к Redis, повторяя ping с экспоненциальной задержкой
func NewRedisClient(ctx context.Context, addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 10 * time.Second

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	}
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", addr)
	return client, nil
}

// RedisCacheRepository снимок админ-панели в Redis
type RedisCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCacheRepository создает кеш админ-панели
func NewRedisCacheRepository(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCacheRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCacheRepository{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// CacheDashboard кеширует снимок админ-панели
func (r *RedisCacheRepository) CacheDashboard(ctx context.Context, dashboard *domain.Dashboard) error {
	data, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard: %w", err)
	}

	if err := r.client.Set(ctx, dashboardKey, data, r.ttl).Err(); err != nil {
		r.log.Errorw("Failed to cache dashboard in Redis", "error", err)
		return fmt.Errorf("failed to cache dashboard: %w", err)
	}

	r.log.Debugw("Dashboard cached", "customers", len(dashboard.Customers), "ttl", r.ttl)
	return nil
}

// GetDashboard возвращает снимок из кеша; nil, nil если ключа нет
func (r *RedisCacheRepository) GetDashboard(ctx context.Context) (*domain.Dashboard, error) {
	data, err := r.client.Get(ctx, dashboardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.log.Debugw("Dashboard not found in cache")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dashboard from cache: %w", err)
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(data, &dashboard); err != nil {
		r.log.Errorw("Failed to unmarshal cached dashboard", "error", err)
		return nil, fmt.Errorf("failed to unmarshal cached dashboard: %w", err)
	}
	return &dashboard, nil
}

// InvalidateDashboard удаляет снимок
func (r *RedisCacheRepository) InvalidateDashboard(ctx context.Context) error {
	if err := r.client.Del(ctx, dashboardKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate dashboard cache: %w", err)
	}
	return nil
}
