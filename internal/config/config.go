// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
)

// ErrMissingRequired is wrapped by Load when a required variable is unset or empty.
var ErrMissingRequired = errors.New("required environment variable not set")

// webhookSecretPattern is the character set Telegram accepts for secret_token.
var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SecretKey     []byte
	TelegramToken string

	StoreBackend  model.StoreBackend
	RedisURL      string
	DBPath        string
	PurgeInterval time.Duration

	EntryTTL      time.Duration
	DisclosureTTL time.Duration

	ListenAddr    string
	WebhookURL    string
	WebhookSecret string
	PollTimeout   time.Duration
	MaxInFlight   int

	LogLevel slog.Level
}

// WebhookMode reports whether updates arrive by webhook instead of long polling.
func (c *Config) WebhookMode() bool {
	return c.WebhookURL != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// EPHEMVAULT_SECRET_KEY and EPHEMVAULT_TELEGRAM_TOKEN are required.
// Optional variables with defaults: EPHEMVAULT_STORE_BACKEND (redis),
// EPHEMVAULT_REDIS_URL (redis://redis:6379/0), EPHEMVAULT_DB_PATH (ephemvault.db),
// EPHEMVAULT_PURGE_INTERVAL (30s), EPHEMVAULT_ENTRY_TTL (60s),
// EPHEMVAULT_DISCLOSURE_TTL (10s), EPHEMVAULT_LISTEN_ADDR (127.0.0.1:8080),
// EPHEMVAULT_WEBHOOK_URL (empty: long polling), EPHEMVAULT_WEBHOOK_SECRET (empty),
// EPHEMVAULT_POLL_TIMEOUT (30s), EPHEMVAULT_MAX_IN_FLIGHT (16),
// EPHEMVAULT_LOG_LEVEL (info).
func Load() (*Config, error) {
	secretKey := os.Getenv("EPHEMVAULT_SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("EPHEMVAULT_SECRET_KEY: %w", ErrMissingRequired)
	}

	token := os.Getenv("EPHEMVAULT_TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("EPHEMVAULT_TELEGRAM_TOKEN: %w", ErrMissingRequired)
	}

	backend := model.StoreBackendRedis
	if v, ok := os.LookupEnv("EPHEMVAULT_STORE_BACKEND"); ok && v != "" {
		backend = model.StoreBackend(strings.ToLower(strings.TrimSpace(v)))
	}
	switch backend {
	case model.StoreBackendRedis, model.StoreBackendSQLite, model.StoreBackendMemory:
	default:
		return nil, fmt.Errorf("EPHEMVAULT_STORE_BACKEND has unknown backend %q (want redis, sqlite or memory)", backend)
	}

	redisURL := "redis://redis:6379/0"
	if v, ok := os.LookupEnv("EPHEMVAULT_REDIS_URL"); ok {
		redisURL = v
	}

	dbPath := "ephemvault.db"
	if v, ok := os.LookupEnv("EPHEMVAULT_DB_PATH"); ok {
		dbPath = v
	}

	purgeInterval, err := durationEnv("EPHEMVAULT_PURGE_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	entryTTL, err := durationEnv("EPHEMVAULT_ENTRY_TTL", model.DefaultEntryTTL)
	if err != nil {
		return nil, err
	}
	disclosureTTL, err := durationEnv("EPHEMVAULT_DISCLOSURE_TTL", model.DefaultDisclosureTTL)
	if err != nil {
		return nil, err
	}
	pollTimeout, err := durationEnv("EPHEMVAULT_POLL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("EPHEMVAULT_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	webhookURL := os.Getenv("EPHEMVAULT_WEBHOOK_URL")
	if webhookURL != "" {
		u, err := url.Parse(webhookURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return nil, fmt.Errorf("EPHEMVAULT_WEBHOOK_URL must be an absolute https URL, got %q", webhookURL)
		}
	}

	webhookSecret := os.Getenv("EPHEMVAULT_WEBHOOK_SECRET")
	if webhookSecret != "" && !webhookSecretPattern.MatchString(webhookSecret) {
		return nil, errors.New("EPHEMVAULT_WEBHOOK_SECRET must be 1-256 characters of A-Z, a-z, 0-9, _ or -")
	}

	maxInFlight := 16
	if v, ok := os.LookupEnv("EPHEMVAULT_MAX_IN_FLIGHT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("EPHEMVAULT_MAX_IN_FLIGHT must be a positive integer, got %q", v)
		}
		maxInFlight = parsed
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("EPHEMVAULT_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("EPHEMVAULT_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return &Config{
		SecretKey:     []byte(secretKey),
		TelegramToken: token,
		StoreBackend:  backend,
		RedisURL:      redisURL,
		DBPath:        dbPath,
		PurgeInterval: purgeInterval,
		EntryTTL:      entryTTL,
		DisclosureTTL: disclosureTTL,
		ListenAddr:    listenAddr,
		WebhookURL:    webhookURL,
		WebhookSecret: webhookSecret,
		PollTimeout:   pollTimeout,
		MaxInFlight:   maxInFlight,
		LogLevel:      logLevel,
	}, nil
}

// durationEnv parses key as a positive duration, returning def when unset.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}

	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, parsed)
	}
	return parsed, nil
}
