// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/clicker-autopilot/internal/types"
)

// Config holds all application configuration
type Config struct {
	// HTTP port for the metrics/health listener
	Port string

	// Base URL of the clicker service API
	APIBaseURL string

	// Path to the YAML accounts roster
	AccountsFile string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Per-call HTTP timeout
	RequestTimeout time.Duration

	// Optimizer settings
	AutoUpgrade          bool
	MinSignificance      float64
	BalanceToSave        int64
	MaxLevel             int
	ExpireMultiplier     float64
	PrioritizeFirstLevel bool

	// Energy settings
	ApplyDailyEnergy bool
	SleepByMinEnergy time.Duration

	// Daily event settings
	AutoClaimDailyCipher bool
	AutoFinishMiniGame   bool
	AutoBuyCombo         bool
	DefaultExchange      string

	// PromoCodes maps a promotional event id to the code to redeem for it
	PromoCodes map[types.EventID]string
}

// Load creates a new Config from environment variables
func Load() Config {
	return Config{
		Port:           GetEnvOrDefault("PORT", "8080"),
		APIBaseURL:     GetEnvOrDefault("API_BASE_URL", "https://api.clicker-game.example"),
		AccountsFile:   GetEnvOrDefault("ACCOUNTS_FILE", "accounts.yaml"),
		OtelEndpoint:   GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		RequestTimeout: GetEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),

		AutoUpgrade:          GetEnvAsBool("AUTO_UPGRADE", true),
		MinSignificance:      GetEnvAsFloat("MIN_SIGNIFICANCE", 0.1),
		BalanceToSave:        int64(GetEnvAsInt("BALANCE_TO_SAVE", 10000)),
		MaxLevel:             GetEnvAsInt("MAX_LEVEL", 20),
		ExpireMultiplier:     GetEnvAsFloat("EXPIRE_MULTIPLIER", 1.0),
		PrioritizeFirstLevel: GetEnvAsBool("PRIORITIZE_FIRST_LEVEL", false),

		ApplyDailyEnergy: GetEnvAsBool("APPLY_DAILY_ENERGY", true),
		SleepByMinEnergy: GetEnvAsDuration("SLEEP_BY_MIN_ENERGY", 200*time.Second),

		AutoClaimDailyCipher: GetEnvAsBool("AUTO_CLAIM_DAILY_CIPHER", false),
		AutoFinishMiniGame:   GetEnvAsBool("AUTO_FINISH_MINI_GAME", false),
		AutoBuyCombo:         GetEnvAsBool("AUTO_BUY_COMBO", false),
		DefaultExchange:      GetEnvOrDefault("DEFAULT_EXCHANGE", "bybit"),

		PromoCodes: parsePromoCodes(GetEnvOrDefault("PROMO_CODES", "")),
	}
}

// parsePromoCodes parses "event_id:CODE,event_id:CODE" pairs. Malformed
// pairs are dropped.
func parsePromoCodes(raw string) map[types.EventID]string {
	codes := make(map[types.EventID]string)
	for _, pair := range strings.Split(raw, ",") {
		id, code, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || id == "" || code == "" {
			continue
		}
		codes[types.EventID(id)] = code
	}
	return codes
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
