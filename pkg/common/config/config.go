package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers   []string
	AlertFeedTopic string

	// Content analyzer
	AnalyzerBaseURL string
	AnalyzerTimeout time.Duration

	// Risk engine
	EntryBatchSize    int
	EntryLookback     time.Duration
	TickInterval      time.Duration
	MinTextLength     int
	EscalationWindow  time.Duration
	RelapseWindow     time.Duration
	StressorEntries   int
	StressorRulesPath string

	// Weekly insight job
	WeeklyBatchSize  int
	WeeklyInterval   time.Duration
	InsightStaleness time.Duration

	// Consent
	ConsentCacheTTL time.Duration
}

func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "sentinela"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "sentinela123"),
		PostgresDB:       getEnv("POSTGRES_DB", "sentinela"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:   getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		AlertFeedTopic: getEnv("ALERT_FEED_TOPIC", "clinical-alerts"),

		AnalyzerBaseURL: getEnv("ANALYZER_BASE_URL", "http://localhost:8086"),
		AnalyzerTimeout: getDuration("ANALYZER_TIMEOUT", 20*time.Second),

		EntryBatchSize:    getIntEnv("ENTRY_BATCH_SIZE", 50),
		EntryLookback:     getDuration("ENTRY_LOOKBACK", 7*24*time.Hour),
		TickInterval:      getDuration("TICK_INTERVAL", 5*time.Minute),
		MinTextLength:     getIntEnv("MIN_TEXT_LENGTH", 10),
		EscalationWindow:  getDuration("ESCALATION_WINDOW", 14*24*time.Hour),
		RelapseWindow:     getDuration("RELAPSE_WINDOW", 90*24*time.Hour),
		StressorEntries:   getIntEnv("STRESSOR_ENTRIES", 5),
		StressorRulesPath: getEnv("STRESSOR_RULES_PATH", ""),

		WeeklyBatchSize:  getIntEnv("WEEKLY_BATCH_SIZE", 20),
		WeeklyInterval:   getDuration("WEEKLY_INTERVAL", 24*time.Hour),
		InsightStaleness: getDuration("INSIGHT_STALENESS", 7*24*time.Hour),

		ConsentCacheTTL: getDuration("CONSENT_CACHE_TTL", time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
