package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Store drivers understood by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string
	StoreDriver   string
	// RedisURL enables the shared auto-match lock; empty means in-process locking.
	RedisURL       string
	MigrationsPath string

	OperationTimeout         time.Duration
	ReconciliationTolerance  decimal.Decimal
	MatchDateWindowDays      int
	MatchSuggestionThreshold float64
	AuditMaxRetries          uint64

	// RateLimit uses the ulule/limiter formatted rate, e.g. "100-M".
	RateLimit          string
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("OPERATION_TIMEOUT", "10s")
	viper.SetDefault("RECONCILIATION_TOLERANCE", "0.01")
	viper.SetDefault("MATCH_DATE_WINDOW_DAYS", 3)
	viper.SetDefault("MATCH_SUGGESTION_THRESHOLD", 0.8)
	viper.SetDefault("AUDIT_MAX_RETRIES", 3)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    viper.GetString("PGSQL_URL"),
		Port:           viper.GetString("PORT"),
		IsProduction:   viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:  viper.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:      viper.GetString("JWT_SECRET"),
		StoreDriver:    strings.ToLower(viper.GetString("STORE_DRIVER")),
		RedisURL:       viper.GetString("REDIS_URL"),
		MigrationsPath: viper.GetString("MIGRATIONS_PATH"),
		RateLimit:      viper.GetString("RATE_LIMIT"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StoreDriverMemory:
		log.Println("Warning: STORE_DRIVER=memory, data will not survive a restart.")
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if viper.GetString("JWT_SECRET") == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	timeoutStr := viper.GetString("OPERATION_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
		log.Printf("Warning: Invalid value for OPERATION_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
	}
	cfg.OperationTimeout = timeout

	tolerance, err := decimal.NewFromString(viper.GetString("RECONCILIATION_TOLERANCE"))
	if err != nil || tolerance.IsNegative() {
		return nil, fmt.Errorf("invalid RECONCILIATION_TOLERANCE %q", viper.GetString("RECONCILIATION_TOLERANCE"))
	}
	cfg.ReconciliationTolerance = tolerance

	cfg.MatchDateWindowDays = viper.GetInt("MATCH_DATE_WINDOW_DAYS")
	if cfg.MatchDateWindowDays < 0 {
		return nil, fmt.Errorf("MATCH_DATE_WINDOW_DAYS must not be negative, got %d", cfg.MatchDateWindowDays)
	}

	cfg.MatchSuggestionThreshold = viper.GetFloat64("MATCH_SUGGESTION_THRESHOLD")
	if cfg.MatchSuggestionThreshold <= 0 || cfg.MatchSuggestionThreshold > 1 {
		return nil, fmt.Errorf("MATCH_SUGGESTION_THRESHOLD must be in (0, 1], got %v", cfg.MatchSuggestionThreshold)
	}

	cfg.AuditMaxRetries = viper.GetUint64("AUDIT_MAX_RETRIES")

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}
