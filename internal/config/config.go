// Package config loads process configuration from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the configuration of both the gateway and the session process
type Config struct {
	// Gateway
	Addr        string
	DBType      string
	DatabaseURL string

	// Session
	RemoteURL      string
	Token          string
	UserID         string
	LocalStore     string
	LocalStorePath string

	ProbeInterval       time.Duration
	SyncInterval        time.Duration
	InactivityPoll      time.Duration
	InactivityThreshold time.Duration
	RequestTimeout      time.Duration
	BackoffMax          time.Duration

	NotificationStartHour int
	NotificationEndHour   int

	// Content agent
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Telegram notifications, disabled without a token
	TelegramToken  string
	TelegramChatID int64

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:                  ":8080",
		DBType:                "sqlite",
		DatabaseURL:           "data/levelup.db",
		RemoteURL:             "http://localhost:8080",
		LocalStore:            "sqlite",
		LocalStorePath:        "data/local",
		ProbeInterval:         30 * time.Second,
		SyncInterval:          5 * time.Minute,
		InactivityPoll:        time.Minute,
		InactivityThreshold:   30 * time.Minute,
		RequestTimeout:        10 * time.Second,
		BackoffMax:            30 * time.Minute,
		NotificationStartHour: 8,
		NotificationEndHour:   22,
		OpenAIModel:           "gpt-4o-mini",
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// Load reads an optional .env file and then the environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv overlays the variables returned by getenv on DefaultConfig
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
			return
		}
		*dst = d
	}
	hour := func(key string, dst *int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			errs = append(errs, fmt.Errorf("%s: invalid hour %q", key, v))
			return
		}
		*dst = h
	}

	str("LEVELUP_ADDR", &cfg.Addr)
	str("DB_TYPE", &cfg.DBType)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("LEVELUP_REMOTE_URL", &cfg.RemoteURL)
	str("LEVELUP_TOKEN", &cfg.Token)
	str("LEVELUP_USER_ID", &cfg.UserID)
	str("LOCAL_STORE", &cfg.LocalStore)
	str("LOCAL_STORE_PATH", &cfg.LocalStorePath)
	dur("PROBE_INTERVAL", &cfg.ProbeInterval)
	dur("SYNC_INTERVAL", &cfg.SyncInterval)
	dur("INACTIVITY_POLL", &cfg.InactivityPoll)
	dur("INACTIVITY_THRESHOLD", &cfg.InactivityThreshold)
	dur("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	dur("BACKOFF_MAX", &cfg.BackoffMax)
	hour("NOTIFICATION_START_HOUR", &cfg.NotificationStartHour)
	hour("NOTIFICATION_END_HOUR", &cfg.NotificationEndHour)
	str("OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	str("OPENAI_MODEL", &cfg.OpenAIModel)
	str("OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	str("TELEGRAM_BOT_TOKEN", &cfg.TelegramToken)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	if v := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TELEGRAM_CHAT_ID: invalid chat id %q", v))
		} else {
			cfg.TelegramChatID = id
		}
	}

	switch cfg.DBType {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_TYPE: unsupported value %q", cfg.DBType))
	}
	switch cfg.LocalStore {
	case "sqlite", "badger", "memory":
	default:
		errs = append(errs, fmt.Errorf("LOCAL_STORE: unsupported value %q", cfg.LocalStore))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
