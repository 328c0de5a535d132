package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmarchetti/cadenza/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port           string
	DBPath         string
	ProviderURL    string
	Quality        string
	LogLevel       string
	LogFormat      string
	PrefetchBehind int
	PrefetchAhead  int
	StepDelay      time.Duration
	LocatorTTL     time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", constants.DefaultPort),
		DBPath:         getEnv("DB_PATH", constants.DefaultDBPath),
		ProviderURL:    getEnv("PROVIDER_URL", constants.DefaultProviderURL),
		Quality:        getEnv("QUALITY", constants.DefaultQuality),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		PrefetchBehind: getEnvInt("PREFETCH_BEHIND", constants.PrefetchBehind),
		PrefetchAhead:  getEnvInt("PREFETCH_AHEAD", constants.PrefetchAhead),
		StepDelay:      getEnvDuration("PREFETCH_STEP_DELAY", constants.PrefetchStepDelay),
		LocatorTTL:     getEnvDuration("LOCATOR_TTL", constants.LocatorTTL),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.ProviderURL == "" {
		errors = append(errors, "PROVIDER_URL cannot be empty")
	} else {
		if _, err := url.Parse(c.ProviderURL); err != nil {
			errors = append(errors, fmt.Sprintf("PROVIDER_URL is not a valid URL: %s", c.ProviderURL))
		}
	}

	validQualities := map[string]bool{
		constants.QualityLossless:      true,
		constants.QualityHiResLossless: true,
		constants.QualityHigh:          true,
		constants.QualityLow:           true,
	}
	if !validQualities[c.Quality] {
		errors = append(errors, fmt.Sprintf("QUALITY must be one of: LOSSLESS, HI_RES_LOSSLESS, HIGH, LOW, got: %s", c.Quality))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if c.PrefetchBehind < 0 {
		errors = append(errors, fmt.Sprintf("PREFETCH_BEHIND cannot be negative, got: %d", c.PrefetchBehind))
	}
	if c.PrefetchAhead < 0 {
		errors = append(errors, fmt.Sprintf("PREFETCH_AHEAD cannot be negative, got: %d", c.PrefetchAhead))
	}
	if c.LocatorTTL <= 0 {
		errors = append(errors, fmt.Sprintf("LOCATOR_TTL must be positive, got: %s", c.LocatorTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
