package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs. Postgres is required outside development; Redis and
	// ClickHouse are optional.
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Trigger delivery
	NotifyChannel string

	// Stats worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Aggregation
	RecomputeConcurrency int
	LeaderboardMinPosts  int64
	MonthlyMinPosts      int64
	LeaderboardLimit     int
	SummaryCacheTTL      time.Duration

	// On-demand jobs
	JobRatePerMinute int

	Schedule Schedule
}

// Schedule holds the JST wall-clock times of the periodic jobs. Times are
// HH:MM.
type Schedule struct {
	Nightly    string `yaml:"nightly"`
	Monthly    string `yaml:"monthly"`
	MonthlyDay int    `yaml:"monthly_day"`
	Weekly     string `yaml:"weekly"`
	WeeklyDay  string `yaml:"weekly_day"`
}

// DefaultSchedule is nightly at 03:00, the 1st at 04:00 and Monday at 04:30.
func DefaultSchedule() Schedule {
	return Schedule{
		Nightly:    "03:00",
		Monthly:    "04:00",
		MonthlyDay: 1,
		Weekly:     "04:30",
		WeeklyDay:  "monday",
	}
}

// fileOverlay is the optional YAML file named by STATS_CONFIG_FILE.
type fileOverlay struct {
	Schedule *Schedule `yaml:"schedule"`
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		NotifyChannel: getEnv("NOTIFY_CHANNEL", "game_writes"),

		WorkerCount:   getEnvInt("WORKER_COUNT", 8),
		QueueSize:     getEnvInt("QUEUE_SIZE", 10000),
		BatchSize:     getEnvInt("BATCH_SIZE", 500),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		RecomputeConcurrency: getEnvInt("RECOMPUTE_CONCURRENCY", 16),
		LeaderboardMinPosts:  int64(getEnvInt("LEADERBOARD_MIN_POSTS", 5)),
		MonthlyMinPosts:      int64(getEnvInt("MONTHLY_MIN_POSTS", 5)),
		LeaderboardLimit:     getEnvInt("LEADERBOARD_LIMIT", 100),
		SummaryCacheTTL:      getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),

		JobRatePerMinute: getEnvInt("JOB_RATE_PER_MINUTE", 6),

		Schedule: DefaultSchedule(),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.ClickHouseURL = getEnv("CLICKHOUSE_URL", "")

	// Critical configuration - fail if missing. Development falls back to the
	// in-memory store.
	var err error
	if cfg.Env == "development" {
		cfg.PostgresURL = getEnv("POSTGRES_URL", "")
	} else if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}

	if path := getEnv("STATS_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// applyFile overlays the YAML file onto cfg. Only keys present in the file
// replace the defaults.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if s := overlay.Schedule; s != nil {
		if s.Nightly != "" {
			c.Schedule.Nightly = s.Nightly
		}
		if s.Monthly != "" {
			c.Schedule.Monthly = s.Monthly
		}
		if s.MonthlyDay != 0 {
			c.Schedule.MonthlyDay = s.MonthlyDay
		}
		if s.Weekly != "" {
			c.Schedule.Weekly = s.Weekly
		}
		if s.WeeklyDay != "" {
			c.Schedule.WeeklyDay = s.WeeklyDay
		}
	}
	return nil
}

// IsDevelopment reports whether the process runs with ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
