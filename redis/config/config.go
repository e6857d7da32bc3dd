// Package config provides Redis connection configuration for the sync queue.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RedisConfig holds Redis connection and worker parameters.
type RedisConfig struct {
	Host            string
	Port            int
	Password        string
	DB              int
	Workers         int
	RetryInterval   time.Duration
	MaxRetries      int
	RetentionPeriod time.Duration
	QueuePriorities map[string]int
}

const (
	defaultHost          = "localhost"
	defaultPort          = 6379
	defaultDB            = 0
	defaultWorkers       = 10
	defaultRetryInterval = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetention     = 7 * 24 * time.Hour
	minPort              = 1
	maxPort              = 65535
)

// DefaultQueuePriorities defines the default priority settings for task queues
var DefaultQueuePriorities = map[string]int{
	"critical": 6,
	"default":  3,
	"low":      1,
}

// NewRedisConfig creates a new Redis configuration from environment variables
func NewRedisConfig() (*RedisConfig, error) {
	cfg := &RedisConfig{
		Host:            getEnvOrDefault("REDIS_HOST", defaultHost),
		Password:        os.Getenv("REDIS_PASSWORD"),
		Port:            getEnvInt("REDIS_PORT", defaultPort),
		DB:              getEnvInt("REDIS_DB", defaultDB),
		Workers:         getEnvInt("REDIS_WORKERS", defaultWorkers),
		MaxRetries:      getEnvInt("REDIS_MAX_RETRIES", defaultMaxRetries),
		RetryInterval:   getEnvDuration("REDIS_RETRY_INTERVAL", defaultRetryInterval),
		RetentionPeriod: getEnvDuration("REDIS_RETENTION_PERIOD", defaultRetention),
		QueuePriorities: DefaultQueuePriorities,
	}

	if cfg.Port < minPort || cfg.Port > maxPort {
		return nil, fmt.Errorf("invalid redis port: %d", cfg.Port)
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("invalid worker count: %d", cfg.Workers)
	}

	return cfg, nil
}

// GetRedisAddr returns the host:port address for the Redis server
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}

	return d
}
