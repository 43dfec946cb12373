package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the environment-side settings of the scraper: everything that
// is deployment-specific rather than per-run. The per-run search parameters
// (center, query, target count, radius) come from the command line.
//
// Fields:
// - Env: The current environment (local, development, production) controlling log output.
// - MetricsPort: Port of the monitoring server; 0 disables it.
// - FetcherType: Which place fetcher to use (web, places-api).
// - APIKey: The API key for the places-api fetcher.
// - RateLimit: Outbound request-rate floor in requests per second.
// - Database: Optional PostgreSQL sink for collected places.
type Config struct {
	Env         string
	MetricsPort int
	FetcherType string
	APIKey      string
	RateLimit   int
	Database    PostgresConfig
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// Enabled reports whether a database sink was configured at all.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// MustLoad loads the configuration from the environment and returns a Config struct.
func MustLoad() *Config {
	_ = godotenv.Load()

	metricsPort, err := strconv.Atoi(setDefaultEnv("SCOUT_METRICS_PORT", "0"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	rateLimit, err := strconv.Atoi(setDefaultEnv("SCOUT_RATE_LIMIT", "1"))
	if err != nil {
		panic("failed to parse rate limit from configuration, must be an integer")
	}

	return &Config{
		Env:         setDefaultEnv("SCOUT_ENV", "production"),
		MetricsPort: metricsPort,
		FetcherType: setDefaultEnv("SCOUT_FETCHER_TYPE", "web"),
		APIKey:      os.Getenv("SCOUT_API_KEY"),
		RateLimit:   rateLimit,
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     setDefaultEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
