package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // feed time zone lookup without a system zoneinfo

	"github.com/robfig/cron/v3"
)

// Result set backends
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	// Retailer pages
	SaturnURL string
	MMURL     string
	// Time zone the retailer pages report their last update in
	FeedTimezone string

	// Files
	ProductsFile string
	CacheDir     string
	ErrorLogFile string

	// Result set and error marker persistence
	ResultsBackend string
	ResultsFile    string
	ErrorFile      string
	DatabasePath   string

	// Mail configuration
	MailSender   string
	MailPassword string
	MailReceiver string
	SMTPServer   string
	SMTPPort     int

	// Optional memcache for the development page cache
	MemcacheAddr string

	// Optional redis stream for newly found items
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Cron expression; empty runs the pipeline once
	Schedule string

	// Environment
	Environment string

	// integer variables that did not parse, as KEY="value"
	invalid []string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	var invalid []string
	redisDB := getEnvInt("REDIS_DB", 0, &invalid)
	redisStreamCount := getEnvInt("REDIS_STREAM_COUNT", 1, &invalid)
	redisStreamMaxLength := getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000, &invalid)
	smtpPort := getEnvInt("SMTP_PORT", 587, &invalid)

	sender := os.Getenv("MAIL_SENDER")

	return Config{
		SaturnURL:            getEnv("SATURN_URL", "https://schneinet.de/saturn.html"),
		MMURL:                getEnv("MM_URL", "https://schneinet.de/mediamarkt.html"),
		FeedTimezone:         getEnv("FEED_TIMEZONE", "Europe/Berlin"),
		ProductsFile:         getEnv("PRODUCTS_FILE", "data/products.json"),
		CacheDir:             getEnv("CACHE_DIR", "data"),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", "data/error.log"),
		ResultsBackend:       getEnv("RESULTS_BACKEND", BackendCSV),
		ResultsFile:          getEnv("RESULTS_FILE", "data/results.csv"),
		ErrorFile:            getEnv("ERROR_FILE", "data/previous_error.txt"),
		DatabasePath:         getEnv("DATABASE_PATH", "data/fundgrube.db"),
		MailSender:           sender,
		MailPassword:         os.Getenv("MAIL_PASSWORD"),
		MailReceiver:         getEnv("MAIL_RECEIVER", sender),
		SMTPServer:           getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:             smtpPort,
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "fundgrube"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLength,
		Schedule:             os.Getenv("SCHEDULE"),
		Environment:          getEnv("FUNDGRUBE_ENVIRONMENT", "production"),
		invalid:              invalid,
	}
}

// IsDevelopment reports whether pages may be served from the local cache
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// MailEnabled reports whether credentials for sending mail are present
func (c *Config) MailEnabled() bool {
	return c.MailSender != "" && c.MailPassword != ""
}

// Location resolves FeedTimezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.FeedTimezone)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if len(c.invalid) > 0 {
		return fmt.Errorf("invalid integer values: %s", strings.Join(c.invalid, ", "))
	}
	if c.SaturnURL == "" || c.MMURL == "" {
		return fmt.Errorf("retailer URLs must not be empty")
	}
	if c.ProductsFile == "" {
		return fmt.Errorf("PRODUCTS_FILE must not be empty")
	}
	switch c.ResultsBackend {
	case BackendCSV:
		if c.ResultsFile == "" || c.ErrorFile == "" {
			return fmt.Errorf("RESULTS_FILE and ERROR_FILE are required for the csv backend")
		}
	case BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown RESULTS_BACKEND %q", c.ResultsBackend)
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("invalid SMTP_PORT %d", c.SMTPPort)
	}
	if c.RedisAddr != "" && (c.RedisStreamCount <= 0 || c.RedisStreamMaxLength <= 0) {
		return fmt.Errorf("REDIS_STREAM_COUNT and REDIS_STREAM_MAX_LENGTH must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid FEED_TIMEZONE %q: %w", c.FeedTimezone, err)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid SCHEDULE %q: %w", c.Schedule, err)
		}
	}
	return nil
}

// getEnvInt parses an integer environment variable. Unparseable values
// yield the default and are recorded in invalid
func getEnvInt(key string, defaultValue int, invalid *[]string) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		*invalid = append(*invalid, fmt.Sprintf("%s=%q", key, value))
		return defaultValue
	}
	return n
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
