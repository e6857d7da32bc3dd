// Package runner parses configuration and selects the process run mode.
package runner

import (
	"context"
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

const (
	RunModeWorker = iota + 1
	RunModeWeb
	RunModeAll
	RunModeMigrate
)

var ErrInvalidRunMode = errors.New("invalid run mode")

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type Config struct {
	RunMode          int
	Addr             string
	Debug            bool
	Dsn              string
	ZohoClientID     string
	ZohoClientSecret string
	ZohoAccountsURL  string
	ZohoAPIURL       string
	EncryptionKey    string
	SyncRateLimit    int
	SyncRateWindow   time.Duration
	MigrationsDir    string
}

// ParseConfig reads flags with environment fallbacks. Flags win.
func ParseConfig() *Config {
	cfg := Config{}

	var mode string

	flag.StringVar(&mode, "mode", envOr("RUN_MODE", "all"), "run mode: worker, web, all, migrate")
	flag.StringVar(&cfg.Addr, "addr", envOr("ADDR", ":8080"), "http listen address")
	flag.BoolVar(&cfg.Debug, "debug", envBool("DEBUG"), "enable debug logging")
	flag.StringVar(&cfg.Dsn, "dsn", os.Getenv("DATABASE_URL"), "postgres connection string")
	flag.StringVar(&cfg.ZohoClientID, "zoho-client-id", os.Getenv("ZOHO_CLIENT_ID"), "zoho oauth client id")
	flag.StringVar(&cfg.ZohoClientSecret, "zoho-client-secret", os.Getenv("ZOHO_CLIENT_SECRET"), "zoho oauth client secret")
	flag.StringVar(&cfg.ZohoAccountsURL, "zoho-accounts-url", os.Getenv("ZOHO_ACCOUNTS_URL"), "zoho accounts base url override")
	flag.StringVar(&cfg.ZohoAPIURL, "zoho-api-url", os.Getenv("ZOHO_API_URL"), "zoho api base url override")
	flag.StringVar(&cfg.MigrationsDir, "migrations", envOr("MIGRATIONS_DIR", "scripts/migrations"), "migrations directory")
	flag.IntVar(&cfg.SyncRateLimit, "sync-rate-limit", envInt("SYNC_RATE_LIMIT", 10), "max user-triggered syncs per tenant per window")
	flag.DurationVar(&cfg.SyncRateWindow, "sync-rate-window", envDuration("SYNC_RATE_WINDOW", time.Hour), "rate limit window")
	flag.Parse()

	cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")

	switch mode {
	case "worker":
		cfg.RunMode = RunModeWorker
	case "web":
		cfg.RunMode = RunModeWeb
	case "all":
		cfg.RunMode = RunModeAll
	case "migrate":
		cfg.RunMode = RunModeMigrate
	}

	return &cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envBool(key string) bool {
	v := os.Getenv(key)

	return v == "1" || v == "true"
}

func envInt(key string, fallback int) int {
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

func envDuration(key string, fallback time.Duration) time.Duration {
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
