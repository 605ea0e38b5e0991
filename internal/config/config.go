package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Snapshot retrieval.
	SnapshotSource   string // "github" or "dir"
	SnapshotDir      string
	GitHubOwner      string
	GitHubRepo       string
	GitHubPath       string
	GitHubRef        string
	FetchConcurrency int
	FetchTimeout     time.Duration
	FetchCacheSize   int

	// Dataset constants for normalization and reconciliation. These are
	// tied to one real-world reporting transition; treat as configuration
	// so the pipeline can outlive the dataset.
	CutoverDate        time.Time
	CutoverCountries   []string
	EpicenterSubregion string
	EpicenterRegion    string

	// Optional panel sink.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Outputs.
	ChartEnabled bool
	ChartDir     string
	OutputDir    string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	fetchConcurrency, err := parseBoundedInt("FETCH_CONCURRENCY", 4, 1, 32)
	if err != nil {
		return nil, err
	}
	fetchCacheSize, err := parseBoundedInt("FETCH_CACHE_SIZE", 128, 1, 10000)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cutoverDate, err := parseDate("CUTOVER_DATE", "2020-03-01")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SnapshotSource:   envOrDefault("SNAPSHOT_SOURCE", "github"),
		SnapshotDir:      envOrDefault("SNAPSHOT_DIR", "data/daily_reports"),
		GitHubOwner:      envOrDefault("GITHUB_OWNER", "CSSEGISandData"),
		GitHubRepo:       envOrDefault("GITHUB_REPO", "COVID-19"),
		GitHubPath:       envOrDefault("GITHUB_PATH", "csse_covid_19_data/csse_covid_19_daily_reports"),
		GitHubRef:        envOrDefault("GITHUB_REF", "master"),
		FetchConcurrency: fetchConcurrency,
		FetchTimeout:     fetchTimeout,
		FetchCacheSize:   fetchCacheSize,

		CutoverDate:        cutoverDate,
		CutoverCountries:   splitList(envOrDefault("CUTOVER_COUNTRIES", "US,Canada")),
		EpicenterSubregion: envOrDefault("EPICENTER_SUBREGION", "Hubei"),
		EpicenterRegion:    strings.TrimSpace(envOrDefault("EPICENTER_REGION", "Mainland China")),

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: strings.TrimSpace(envOrDefault("KAFKA_SINK_TOPIC", "reconciled-case-counts")),

		ChartEnabled: envOrDefault("CHART_ENABLED", "true") == "true",
		ChartDir:     envOrDefault("CHART_DIR", "charts"),
		OutputDir:    envOrDefault("OUTPUT_DIR", "out"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.SnapshotSource != "github" && cfg.SnapshotSource != "dir" {
		return nil, fmt.Errorf("SNAPSHOT_SOURCE must be \"github\" or \"dir\", got %q", cfg.SnapshotSource)
	}
	if cfg.SnapshotSource == "dir" && cfg.SnapshotDir == "" {
		return nil, errors.New("SNAPSHOT_DIR is required when SNAPSHOT_SOURCE is \"dir\"")
	}
	if cfg.EpicenterRegion == "" {
		return nil, errors.New("EPICENTER_REGION is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}
	if cfg.ChartEnabled && cfg.ChartDir == "" {
		return nil, errors.New("CHART_ENABLED is true but CHART_DIR is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBoundedInt(key string, fallback, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("%s must be an integer in [%d, %d], got %q", key, minVal, maxVal, s)
	}
	return n, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func parseDate(key, fallback string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", envOrDefault(key, fallback), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date: %w", key, err)
	}
	return t, nil
}
