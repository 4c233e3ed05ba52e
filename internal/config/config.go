package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultSpreadsheetID is the published warehouse sheet.
const DefaultSpreadsheetID = "1wqtDeNZvW6jAKiuln2RVjvC9Ruy5i465OyMvypapcvs"

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Published sheet source.
	SpreadsheetID     string
	SheetName         string
	SheetHost         string
	SheetURL          string // overrides the URL built from the fields above
	SheetFetchTimeout time.Duration
	FallbackFile      string

	RefreshInterval        time.Duration
	ManualRefreshPerMinute int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Snapshot change feed; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// FeedEnabled reports whether snapshots should be published to Kafka.
func (c *Config) FeedEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("SHEET_FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "5m"))
	if err != nil || refreshInterval < 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL")
	}

	manualRefresh, err := strconv.Atoi(sharedcfg.EnvOrDefault("MANUAL_REFRESH_PER_MINUTE", "6"))
	if err != nil || manualRefresh < 1 {
		return nil, errors.New("invalid MANUAL_REFRESH_PER_MINUTE")
	}

	var brokers []string
	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		SpreadsheetID:     strings.TrimSpace(sharedcfg.EnvOrDefault("SPREADSHEET_ID", DefaultSpreadsheetID)),
		SheetName:         sharedcfg.EnvOrDefault("SHEET_NAME", "Warehouse"),
		SheetHost:         sharedcfg.EnvOrDefault("SHEET_HOST", "docs.google.com"),
		SheetURL:          strings.TrimSpace(os.Getenv("SHEET_URL")),
		SheetFetchTimeout: fetchTimeout,
		FallbackFile:      os.Getenv("FALLBACK_FILE"),

		RefreshInterval:        refreshInterval,
		ManualRefreshPerMinute: manualRefresh,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "warehouse-directory"),
	}

	if cfg.SheetURL == "" {
		if cfg.SpreadsheetID == "" {
			return nil, errors.New("SPREADSHEET_ID is required when SHEET_URL is not set")
		}
		if cfg.SheetName == "" {
			return nil, errors.New("SHEET_NAME is required when SHEET_URL is not set")
		}
	}
	if cfg.FeedEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
