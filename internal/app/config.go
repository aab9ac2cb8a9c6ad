package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rodrigofontes/vendaspro/internal/messaging/kafka"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultMetricsAddr     = ":9090"
	defaultShutdownTimeout = 10 * time.Second

	defaultOutboxPollInterval = 1 * time.Second
	defaultOutboxBatchSize    = 100
	defaultOutboxMaxAttempts  = 3
	defaultOutboxRetryDelay   = 50 * time.Millisecond
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	// AuthToken защищает /api/v1; пустое значение отключает авторизацию.
	AuthToken string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers     string
	OrderEventsTopic string
	DLQTopic         string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию: HTTP API на :8080,
// метрики на :9090 и in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            defaultHTTPAddr,
		MetricsAddr:         defaultMetricsAddr,
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		OrderEventsTopic:    kafka.TopicOrderEvents,
		DLQTopic:            kafka.TopicDeadLetterQueue,
		OutboxPollInterval:  defaultOutboxPollInterval,
		OutboxBatchSize:     defaultOutboxBatchSize,
		OutboxMaxAttempts:   defaultOutboxMaxAttempts,
		OutboxRetryDelay:    defaultOutboxRetryDelay,
		ShutdownTimeout:     defaultShutdownTimeout,
	}
}

// LoadConfigFromEnv читает переменные окружения VENDASPRO_* поверх значений
// по умолчанию. Если задан только DSN, драйвер переключается на postgres.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.HTTPAddr = envString("VENDASPRO_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("VENDASPRO_METRICS_ADDR", cfg.MetricsAddr)
	cfg.AuthToken = envString("VENDASPRO_AUTH_TOKEN", cfg.AuthToken)

	cfg.PostgresDSN = envString("VENDASPRO_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.StorageDriver = envString("VENDASPRO_STORAGE_DRIVER", cfg.StorageDriver)
	if cfg.PostgresDSN != "" && os.Getenv("VENDASPRO_STORAGE_DRIVER") == "" {
		cfg.StorageDriver = StorageDriverPostgres
	}
	cfg.PostgresAutoMigrate = envBool("VENDASPRO_POSTGRES_AUTO_MIGRATE", cfg.PostgresAutoMigrate)

	cfg.KafkaBrokers = envString("VENDASPRO_KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.OrderEventsTopic = envString("VENDASPRO_ORDER_EVENTS_TOPIC", cfg.OrderEventsTopic)
	cfg.DLQTopic = envString("VENDASPRO_DLQ_TOPIC", cfg.DLQTopic)

	cfg.OutboxPollInterval = envDuration("VENDASPRO_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.OutboxBatchSize = envInt("VENDASPRO_OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxAttempts = envInt("VENDASPRO_OUTBOX_MAX_ATTEMPTS", cfg.OutboxMaxAttempts)
	cfg.OutboxRetryDelay = envDuration("VENDASPRO_OUTBOX_RETRY_DELAY", cfg.OutboxRetryDelay)

	cfg.ShutdownTimeout = envDuration("VENDASPRO_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	return cfg
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
