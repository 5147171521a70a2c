// Package config loads the service configuration from the environment
// (optionally seeded from a .env file) and the signal tuning from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"intraday-signals/internal/model"
	"intraday-signals/internal/signal"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Watchlist
	Symbols        []string
	Interval       model.Interval
	RefreshSeconds int
	Workers        int
	Market         string // NSE, NYSE or none
	SkipWhenClosed bool

	// Feed
	FeedBaseURL string
	FeedRange   string
	FeedRPS     float64
	CSVDir      string // serve bars from CSV files instead of the live feed

	// Infrastructure
	HTTPAddr      string
	MetricsAddr   string // optional standalone /metrics + /healthz listener
	RedisAddr     string // empty disables the cache and publisher
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	ArchivePath   string // empty disables the SQLite archive

	// Alerts
	WebhookURL       string
	TelegramBotToken string
	TelegramChatID   string

	// Logging
	LogLevel string
	LogFile  string

	// Signal tuning, from SIGNALS_CONFIG plus env overrides.
	Signal signal.Config
}

// Load reads .env (if present) and the environment. Invalid values are
// returned as *model.ConfigError.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		Symbols:        splitList(getEnv("SYMBOLS", "TCS.NS,INFY.NS,RELIANCE.NS")),
		Market:         getEnv("MARKET", "NSE"),
		SkipWhenClosed: getBool("SKIP_WHEN_CLOSED", false),

		FeedBaseURL: os.Getenv("FEED_BASE_URL"),
		FeedRange:   os.Getenv("FEED_RANGE"),
		CSVDir:      os.Getenv("CSV_DIR"),

		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		ArchivePath:   os.Getenv("ARCHIVE_PATH"),

		WebhookURL:       os.Getenv("WEBHOOK_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}
	if len(c.Symbols) == 0 {
		return nil, &model.ConfigError{Field: "SYMBOLS", Reason: "no tickers configured"}
	}

	var err error
	if c.Interval, err = model.ParseInterval(getEnv("INTERVAL", "5m")); err != nil {
		return nil, err
	}
	if c.RefreshSeconds, err = getInt("REFRESH_SECONDS", 60); err != nil {
		return nil, err
	}
	if c.RefreshSeconds < 10 {
		return nil, &model.ConfigError{Field: "REFRESH_SECONDS", Reason: fmt.Sprintf("%d is below the 10 second minimum", c.RefreshSeconds)}
	}
	if c.Workers, err = getInt("WORKERS", 4); err != nil {
		return nil, err
	}
	if c.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	ttl, err := getInt("CACHE_TTL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	c.CacheTTL = time.Duration(ttl) * time.Second
	if c.FeedRPS, err = getFloat("FEED_RPS", 2); err != nil {
		return nil, err
	}

	if c.Signal, err = LoadSignal(os.Getenv("SIGNALS_CONFIG")); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadSignal reads the signal tuning from path (defaults when empty) and
// applies the INDICATORS, MIN_AGREEMENT, INCLUSIVE_ZERO and MAX_HISTORY
// overrides.
func LoadSignal(path string) (signal.Config, error) {
	cfg := signal.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = signal.LoadConfig(path); err != nil {
			return signal.Config{}, err
		}
	}
	if v := os.Getenv("INDICATORS"); v != "" {
		cfg.Indicators = splitList(v)
	}
	if _, ok := os.LookupEnv("MIN_AGREEMENT"); ok {
		n, err := getInt("MIN_AGREEMENT", 0)
		if err != nil {
			return signal.Config{}, err
		}
		cfg.Options.MinAgreement = n
	}
	if _, ok := os.LookupEnv("INCLUSIVE_ZERO"); ok {
		cfg.Options.InclusiveZero = getBool("INCLUSIVE_ZERO", false)
	}
	if os.Getenv("MAX_HISTORY") != "" {
		n, err := getInt("MAX_HISTORY", 0)
		if err != nil {
			return signal.Config{}, err
		}
		cfg.MaxHistory = n
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &model.ConfigError{Field: key, Reason: fmt.Sprintf("%q is not an integer", v)}
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, &model.ConfigError{Field: key, Reason: fmt.Sprintf("%q is not a number", v)}
	}
	return f, nil
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
