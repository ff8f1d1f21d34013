package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds process-level settings loaded from the environment.
// Per-service HTTP settings live in shared.ServiceConfig; this covers the
// knobs an operator actually changes between runs.
type Config struct {
	ServerPort string
	LogLevel   string
	LogFormat  string

	MaxFunds        int
	NavWindowMonths int
	OutputFile      string
	ScrapeCron      string

	PageDelay       time.Duration
	FundDelay       time.Duration
	StatsRetryDelay time.Duration

	ChromeFallback bool
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),

		MaxFunds:        getEnvInt("MAX_FUNDS", 200),
		NavWindowMonths: getEnvInt("NAV_WINDOW_MONTHS", 12),
		OutputFile:      getEnv("OUTPUT_FILE", "cleaned_data.xlsx"),
		ScrapeCron:      getEnv("SCRAPE_CRON", "0 2 * * *"),

		PageDelay:       getEnvDuration("PAGE_DELAY", 3*time.Second),
		FundDelay:       getEnvDuration("FUND_DELAY", 3*time.Second),
		StatsRetryDelay: getEnvDuration("STATS_RETRY_DELAY", 5*time.Second),

		ChromeFallback: getEnvBool("CHROME_FALLBACK", false),
	}
}

// ConfigureLogging applies the configured level and format to logrus.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %v", key, value, fallback)
		return fallback
	}
	return parsed
}
