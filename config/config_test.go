package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, maxDashboardPageSize, cfg.Dashboard.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Redis.IdentityLockTTL)
	assert.Equal(t, "clearpath.", cfg.Kafka.TopicPrefix)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Stripe.SecretKey)
	assert.Empty(t, cfg.Admin.Token)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"APP_ENV":             "Production",
		"PORT":                "9090",
		"STRIPE_SECRET_KEY":   "sk_test_123",
		"STRIPE_TIMEOUT":      "5s",
		"DASHBOARD_PAGE_SIZE": 25,
		"KAFKA_BROKERS":       "kafka-1:9092, kafka-2:9092,",
		"REDIS_DB":            2,
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.Equal(t, 5*time.Second, cfg.Stripe.Timeout)
	assert.Equal(t, 25, cfg.Dashboard.PageSize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestFromViper_Validation(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{name: "empty port", values: map[string]any{"PORT": ""}},
		{name: "zero page size", values: map[string]any{"DASHBOARD_PAGE_SIZE": 0}},
		{name: "page size above limit", values: map[string]any{"DASHBOARD_PAGE_SIZE": maxDashboardPageSize + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newViper(tt.values))
			assert.Error(t, err)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
	assert.Equal(t, []string{"a", "b"}, splitList("a,b"))
}
