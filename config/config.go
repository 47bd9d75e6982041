package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	maxDashboardPageSize = 100
)

// Config структура конфигурации приложения
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Stripe    StripeConfig
	Admin     AdminConfig
	Dashboard DashboardConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Sentry    SentryConfig
}

// AppConfig окружение и уровень логирования
type AppConfig struct {
	Env      string
	LogLevel string
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StripeConfig конфигурация Stripe
type StripeConfig struct {
	SecretKey string
	// APIURL переопределяет адрес Stripe API, например для stripe-mock
	APIURL  string
	Timeout time.Duration
}

// AdminConfig секреты админ-панели. Читаются один раз при старте.
type AdminConfig struct {
	Token     string
	JWTSecret string
}

// DashboardConfig параметры админ-панели
type DashboardConfig struct {
	PageSize int
	CacheTTL time.Duration
}

// DatabaseConfig локальное хранилище заявок; пустой URL - хранилище в памяти
type DatabaseConfig struct {
	URL string
}

// RedisConfig блокировка по email и кеш админ-панели; пустой адрес отключает обе функции
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	IdentityLockTTL time.Duration
}

// KafkaConfig публикация событий; пустой список брокеров отключает публикацию
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// SentryConfig отчетность об ошибках; пустой DSN отключает ее
type SentryConfig struct {
	DSN string
}

// IsProduction true для production окружения
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_API_URL", "")
	v.SetDefault("STRIPE_TIMEOUT", "30s")
	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("ADMIN_JWT_SECRET", "")
	v.SetDefault("DASHBOARD_PAGE_SIZE", maxDashboardPageSize)
	v.SetDefault("DASHBOARD_CACHE_TTL", "30s")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDENTITY_LOCK_TTL", "10s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "clearpath.")
	v.SetDefault("SENTRY_DSN", "")
}

// Load загружает конфигурацию: .env (кроме production), затем необязательный config.yaml, затем переменные окружения
func Load(configPath string) (*Config, error) {
	if os.Getenv("APP_ENV") != EnvProduction {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv() // Чтение переменных окружения

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      strings.ToLower(v.GetString("APP_ENV")),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Stripe: StripeConfig{
			SecretKey: v.GetString("STRIPE_SECRET_KEY"),
			APIURL:    v.GetString("STRIPE_API_URL"),
			Timeout:   v.GetDuration("STRIPE_TIMEOUT"),
		},
		Admin: AdminConfig{
			Token:     v.GetString("ADMIN_TOKEN"),
			JWTSecret: v.GetString("ADMIN_JWT_SECRET"),
		},
		Dashboard: DashboardConfig{
			PageSize: v.GetInt("DASHBOARD_PAGE_SIZE"),
			CacheTTL: v.GetDuration("DASHBOARD_CACHE_TTL"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:            v.GetString("REDIS_ADDR"),
			Password:        v.GetString("REDIS_PASSWORD"),
			DB:              v.GetInt("REDIS_DB"),
			IdentityLockTTL: v.GetDuration("IDENTITY_LOCK_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			TopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
		},
		Sentry: SentryConfig{
			DSN: v.GetString("SENTRY_DSN"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.Dashboard.PageSize <= 0 || c.Dashboard.PageSize > maxDashboardPageSize {
		return fmt.Errorf("DASHBOARD_PAGE_SIZE must be between 1 and %d", maxDashboardPageSize)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
