package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL     string
	Source      string
	UserAgent   string
	HTTPTimeout time.Duration
	PoliteDelay time.Duration

	DBDriver string
	DBDSN    string

	ReportDir    string
	ReportFormat string

	Schedule string
	Port     string

	LogLevel  string
	LogFormat string
	LogFile   string

	PushgatewayURL string

	invalid []string
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	var invalid []string
	cfg := Config{
		BaseURL:        getEnv("BASE_URL", "https://mauritiusjobs.govmu.org/"),
		Source:         getEnv("SOURCE", "govmu"),
		UserAgent:      getEnv("USER_AGENT", "Mozilla/5.0"),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 30*time.Second, &invalid),
		PoliteDelay:    getEnvDuration("POLITE_DELAY", time.Second, &invalid),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBDSN:          getEnv("DB_DSN", "jobs.db"),
		ReportDir:      getEnv("REPORT_DIR", "."),
		ReportFormat:   getEnv("REPORT_FORMAT", "csv"),
		Schedule:       os.Getenv("SCHEDULE"),
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		LogFile:        os.Getenv("LOG_FILE"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}
	cfg.invalid = invalid
	return cfg
}

// Validate rejects configurations the run cannot start with.
func (c Config) Validate() error {
	if len(c.invalid) > 0 {
		return fmt.Errorf("invalid duration in %s", strings.Join(c.invalid, ", "))
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BASE_URL must be an absolute URL, got %q", c.BaseURL)
	}
	if c.Source == "" {
		return fmt.Errorf("SOURCE is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.PoliteDelay < 0 {
		return fmt.Errorf("POLITE_DELAY cannot be negative, got %s", c.PoliteDelay)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	switch c.ReportFormat {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("REPORT_FORMAT must be csv or xlsx, got %q", c.ReportFormat)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration, invalid *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*invalid = append(*invalid, key)
		return fallback
	}
	return d
}
