package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// defaultCORSOrigin is used when CORS_ALLOWED_ORIGINS is empty; gin-contrib/cors
// refuses to start with no origins at all.
const defaultCORSOrigin = "http://localhost:3000"

// Storage backends selectable with DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	DBMaxConns     int32
	MigrationsPath string
	EnableDBCheck  bool

	Port         string
	IsProduction bool
	LogLevel     slog.Level

	// EncryptionKey is the base64 CredentialVault key. It is never generated
	// here; losing it makes every stored secret unreadable.
	EncryptionKey   string
	TxTimeout       time.Duration
	LockTimeout     time.Duration
	SettlementDelay time.Duration

	AuthEnabled bool
	JWTSecret   string
	JWTIssuer   string

	RateLimit          string // ulule format, e.g. "100-M"; empty disables
	CORSAllowedOrigins []string

	PosthogAPIKey   string
	PosthogEndpoint string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_DRIVER", DriverPostgres)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENCRYPTION_KEY", "")
	v.SetDefault("TX_TIMEOUT", "5s")
	v.SetDefault("LOCK_TIMEOUT", "2s")
	v.SetDefault("SETTLEMENT_DELAY", "0s")
	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "wallet-ledger")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigin)
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	// RATE_LIMIT= must be able to switch the limiter off.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseDriver:  strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DRIVER"))),
		DatabaseURL:     v.GetString("PGSQL_URL"),
		DBMaxConns:      v.GetInt32("DB_MAX_CONNS"),
		MigrationsPath:  v.GetString("MIGRATIONS_PATH"),
		EnableDBCheck:   v.GetBool("ENABLE_DB_CHECK"),
		Port:            v.GetString("PORT"),
		IsProduction:    v.GetBool("IS_PRODUCTION"),
		EncryptionKey:   strings.TrimSpace(v.GetString("ENCRYPTION_KEY")),
		AuthEnabled:     v.GetBool("AUTH_ENABLED"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		RateLimit:       strings.TrimSpace(v.GetString("RATE_LIMIT")),
		PosthogAPIKey:   v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint: v.GetString("POSTHOG_ENDPOINT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		log.Printf("Warning: Invalid value for LOG_LEVEL ('%s'). Defaulting to info.\n", v.GetString("LOG_LEVEL"))
		cfg.LogLevel = slog.LevelInfo
	}

	cfg.TxTimeout = durationOrDefault(v, "TX_TIMEOUT", 5*time.Second)
	cfg.LockTimeout = durationOrDefault(v, "LOCK_TIMEOUT", 2*time.Second)
	cfg.SettlementDelay = durationOrDefault(v, "SETTLEMENT_DELAY", 0)

	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 10
	}

	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		log.Printf("Warning: CORS_ALLOWED_ORIGINS is empty. Defaulting to %s\n", defaultCORSOrigin)
		cfg.CORSAllowedOrigins = []string{defaultCORSOrigin}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations the service cannot start with.
func (c *Config) validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("PGSQL_URL is required when DATABASE_DRIVER=postgres"))
		}
	case DriverMemory:
		if c.IsProduction {
			log.Println("Warning: DATABASE_DRIVER=memory in production. Data is lost on restart.")
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.DatabaseDriver))
	}
	if c.EncryptionKey == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required; generate one with cmd/keygen"))
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when AUTH_ENABLED=true"))
	}
	if c.TxTimeout > 0 && c.LockTimeout > c.TxTimeout {
		log.Printf("Warning: LOCK_TIMEOUT (%s) exceeds TX_TIMEOUT (%s); the transaction deadline wins.\n", c.LockTimeout, c.TxTimeout)
	}
	return errors.Join(errs...)
}

func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
