package portal

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/joho/godotenv"
)

// DefaultBaseURL is the production API origin baked into the client. It is
// used whenever no explicit configuration is provided.
const DefaultBaseURL = "https://api.syntaxclub.in"

// Environment variables the config loader reads.
const (
	EnvBaseURL     = "PORTAL_API_BASE_URL"
	EnvUserAgent   = "PORTAL_USER_AGENT"
	EnvTimeout     = "PORTAL_HTTP_TIMEOUT_SECONDS"
	EnvStoragePath = "PORTAL_STORAGE_PATH"
	EnvDebug       = "PORTAL_DEBUG"
)

// Config holds the client options.
type Config struct {
	// BaseURL is the API origin, e.g. https://api.syntaxclub.in.
	BaseURL string
	// UserAgent rides on every request.
	UserAgent string
	// Timeout bounds each HTTP call.
	Timeout time.Duration
	// StoragePath locates the persisted storage document. Empty means the
	// platform default under the user config directory.
	StoragePath string
	// Debug turns on verbose logging in the default logger.
	Debug bool
}

// DefaultConfig returns the baked-in configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "syntaxclub-go-portal/1.0",
		Timeout:   10 * time.Second,
	}
}

// ConfigFromEnv loads configuration from the environment on top of the
// defaults. A .env file in the working directory is honored when present.
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.BaseURL = getEnv(EnvBaseURL, cfg.BaseURL)
	cfg.UserAgent = getEnv(EnvUserAgent, cfg.UserAgent)
	cfg.StoragePath = getEnv(EnvStoragePath, cfg.StoragePath)

	if seconds, err := strconv.Atoi(getEnv(EnvTimeout, "")); err == nil && seconds > 0 {
		cfg.Timeout = time.Duration(seconds) * time.Second
	}
	if debug, err := strconv.ParseBool(getEnv(EnvDebug, "")); err == nil {
		cfg.Debug = debug
	}

	return cfg
}

// Validate checks the config for values the client cannot run without.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.UserAgent, validation.Required),
	)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
