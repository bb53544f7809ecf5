package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	API      APIConfig
	Server   ServerConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	LogLevel string
}

// APIConfig describes the upstream Finance Assistant API and the refresh
// cadence.
type APIConfig struct {
	Host              string
	Port              int
	APIKey            string
	SSL               bool
	ScanInterval      time.Duration
	FinancialInterval time.Duration
	CalendarInterval  time.Duration

	EnableEnhancedSensors   bool
	EnableEnhancedCalendars bool
	EnableRecurringEvents   bool
	EnableCriticalEvents    bool
}

// BaseURL builds the upstream server base URL.
func (a APIConfig) BaseURL() string {
	scheme := "http"
	if a.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, a.Host, a.Port)
}

// RefreshInterval is the effective polling interval. The plain scan interval
// applies unless the enhanced metric set is enabled, in which case the
// higher-resolution financial/calendar knobs take over (the tightest enabled
// one wins).
func (a APIConfig) RefreshInterval() time.Duration {
	interval := a.ScanInterval
	if a.EnableEnhancedSensors && a.FinancialInterval < interval {
		interval = a.FinancialInterval
	}
	if a.EnableEnhancedCalendars && a.CalendarInterval < interval {
		interval = a.CalendarInterval
	}
	return interval
}

// ServerConfig describes the bridge's own HTTP listener.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional refresh-event publisher. An empty
// broker list disables publishing.
type KafkaConfig struct {
	Brokers      []string
	TopicRefresh string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RedisConfig configures the optional last-snapshot mirror. An empty address
// disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// SMTPConfig configures the optional alert mailer. An empty host disables it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.To != "" }

// Load reads configuration from environment variables (and an optional
// .env file).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			Host:              getEnv("FA_HOST", "localhost"),
			Port:              getEnvAsInt("FA_PORT", 8080),
			APIKey:            getEnv("FA_API_KEY", ""),
			SSL:               getEnvAsBool("FA_SSL", false),
			ScanInterval:      getEnvAsDuration("FA_SCAN_INTERVAL", 5*time.Minute),
			FinancialInterval: getEnvAsDuration("FA_FINANCIAL_INTERVAL", 15*time.Minute),
			CalendarInterval:  getEnvAsDuration("FA_CALENDAR_INTERVAL", 30*time.Minute),

			EnableEnhancedSensors:   getEnvAsBool("FA_ENABLE_ENHANCED_SENSORS", true),
			EnableEnhancedCalendars: getEnvAsBool("FA_ENABLE_ENHANCED_CALENDARS", true),
			EnableRecurringEvents:   getEnvAsBool("FA_ENABLE_RECURRING_EVENTS", true),
			EnableCriticalEvents:    getEnvAsBool("FA_ENABLE_CRITICAL_EVENTS", true),
		},
		Server: ServerConfig{
			Port:         getEnvAsInt("BRIDGE_PORT", 8099),
			ReadTimeout:  getEnvAsDuration("BRIDGE_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvAsDuration("BRIDGE_WRITE_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			TopicRefresh: getEnv("KAFKA_TOPIC_REFRESH", "finance.snapshot.refreshed"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Key:      getEnv("REDIS_SNAPSHOT_KEY", "finance_assistant:snapshot"),
			TTL:      getEnvAsDuration("REDIS_SNAPSHOT_TTL", 24*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "finance-bridge@example.com"),
			To:       getEnv("SMTP_TO", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if cfg.API.APIKey == "" {
		return nil, fmt.Errorf("FA_API_KEY is required")
	}
	if cfg.API.Host == "" {
		return nil, fmt.Errorf("FA_HOST is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	if value, err := time.ParseDuration(raw); err == nil {
		return value
	}
	// Bare numbers are seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
