package config

import (
	"os"
	"strconv"
)

// Config holds the gateway's process-wide configuration, read from the
// environment. Flags bound via viper in cmd/main override these values.
type Config struct {
	Token       string
	CatalogPath string
	LimitsPath  string

	// Explicit rate-limit overrides. Nil means "not set" and the tier
	// resolver falls through to the tiers document or defaults.
	MaxRows     *int
	MinInterval *float64
	Points      *int

	MCPPort int
	Debug   bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Token:       getEnvOrFallback("TUSHARE_TOKEN", "TS_TOKEN"),
		CatalogPath: getEnvOrDefault("TUSHARE_SPECS_PATH", "tushare_specs.json"),
		LimitsPath:  os.Getenv("TUSHARE_LIMITS_PATH"),
		MaxRows:     getEnvInt("TUSHARE_MAX_ROWS"),
		MinInterval: getEnvFloat("TUSHARE_MIN_INTERVAL_SECONDS"),
		Points:      getEnvInt("TUSHARE_POINTS"),
		MCPPort:     getEnvIntOrDefault("TUSHARE_MCP_PORT", 3000),
		Debug:       os.Getenv("TUSHARE_DEBUG") != "",
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrFallback(key, fallbackKey string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return os.Getenv(fallbackKey)
}

// getEnvInt returns nil for unset or unparseable values; a bad override
// falls through to the next precedence level instead of aborting.
func getEnvInt(key string) *int {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &intValue
}

func getEnvFloat(key string) *float64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &floatValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
