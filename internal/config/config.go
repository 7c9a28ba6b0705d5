package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Data source.
	DBDriver       string
	DBURL          string
	DBUser         string
	DBPassword     string
	DBMaxOpenConns int

	// Messaging provider.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioChatFrom   string
	TwilioSMSFrom    string
	TwilioBaseURL    string
	TwilioTimeout    time.Duration

	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Scheduled mode runs one pass per day at ScheduleHour:ScheduleMinute.
	ScheduleEnabled bool
	ScheduleHour    int
	ScheduleMinute  int

	MetricsPushgatewayURL string

	// Report publishing. Empty values disable the matching publisher.
	ReportPath       string
	KafkaBrokers     []string
	KafkaReportTopic string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file, if present, is read first; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	if err := loadDotenv(sharedcfg.EnvOrDefault("DOTENV_PATH", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	twilioTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("TWILIO_TIMEOUT", "10s"))
	if err != nil || twilioTimeout <= 0 {
		return nil, errors.New("invalid TWILIO_TIMEOUT")
	}

	maxOpen, err := strconv.Atoi(sharedcfg.EnvOrDefault("DB_MAX_OPEN_CONNS", "2"))
	if err != nil || maxOpen <= 0 {
		return nil, errors.New("invalid DB_MAX_OPEN_CONNS")
	}

	hour, minute, err := parseClock(sharedcfg.EnvOrDefault("SCHEDULE_TIME", "05:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIME: %w", err)
	}

	cfg := &Config{
		DBDriver:       strings.ToLower(sharedcfg.EnvOrDefault("DB_DRIVER", DriverMySQL)),
		DBURL:          os.Getenv("DB_URL"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBMaxOpenConns: maxOpen,

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioChatFrom:   os.Getenv("TWILIO_CHAT_FROM"),
		TwilioSMSFrom:    os.Getenv("TWILIO_SMS_FROM"),
		TwilioBaseURL:    sharedcfg.EnvOrDefault("TWILIO_BASE_URL", "https://api.twilio.com"),
		TwilioTimeout:    twilioTimeout,

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,

		ScheduleEnabled: os.Getenv("SCHEDULE_ENABLED") == "true",
		ScheduleHour:    hour,
		ScheduleMinute:  minute,

		MetricsPushgatewayURL: os.Getenv("METRICS_PUSHGATEWAY_URL"),

		ReportPath:       os.Getenv("REPORT_PATH"),
		KafkaBrokers:     sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "coastal-alert-report"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBURL == "" {
		return errors.New("DB_URL is required")
	}
	if c.TwilioAccountSID == "" {
		return errors.New("TWILIO_ACCOUNT_SID is required")
	}
	if c.TwilioAuthToken == "" {
		return errors.New("TWILIO_AUTH_TOKEN is required")
	}
	if c.TwilioChatFrom == "" {
		return errors.New("TWILIO_CHAT_FROM is required")
	}
	if c.TwilioSMSFrom == "" {
		return errors.New("TWILIO_SMS_FROM is required")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaReportTopic == "" {
		return errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// KafkaEnabled reports whether the report should be published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// loadDotenv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotenv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parseClock parses "HH:MM" in 24-hour notation.
func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
