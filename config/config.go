package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fitsync/fitsync-backend/models"
)

// Config represents the complete application configuration. It is built once
// at startup and treated as immutable afterwards; components receive the
// sections they need at construction time.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Supabase      SupabaseConfig
	App           AppConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// SupabaseConfig holds the trust material for verifying Supabase-issued JWTs.
// JWKSURL selects rotating-key mode (RS256) and takes precedence; otherwise
// JWTSecret selects shared-secret mode (HS256). Issuer and Audience are
// matched exactly against token claims.
type SupabaseConfig struct {
	URL         string
	JWTSecret   string
	JWKSURL     string
	Issuer      string // defaults to URL + "/auth/v1"
	Audience    string
	CacheTTL    time.Duration // JWKS cache lifetime
	HTTPTimeout time.Duration // JWKS fetch timeout
}

// AppConfig holds application-level behavior toggles
type AppConfig struct {
	TrackSessions      bool
	PreferenceDefaults models.PreferenceDefaults
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env if present (missing file is not an error)
	_ = godotenv.Load(".env")

	supabaseURL := getEnv("SUPABASE_URL", "")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Supabase: SupabaseConfig{
			URL:         supabaseURL,
			JWTSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
			JWKSURL:     getEnv("SUPABASE_JWKS_URL", ""),
			Issuer:      getEnv("SUPABASE_ISSUER", defaultIssuer(supabaseURL)),
			Audience:    getEnv("SUPABASE_AUDIENCE", "authenticated"),
			CacheTTL:    getEnvAsDuration("SUPABASE_JWKS_CACHE_TTL", time.Hour),
			HTTPTimeout: getEnvAsDuration("SUPABASE_HTTP_TIMEOUT", 10*time.Second),
		},
		App: AppConfig{
			TrackSessions: getEnvAsBool("TRACK_SESSIONS", true),
			PreferenceDefaults: models.PreferenceDefaults{
				Timezone:     getEnv("DEFAULT_TIMEZONE", "America/New_York"),
				UnitSystem:   models.UnitSystem(getEnv("DEFAULT_UNIT_SYSTEM", string(models.UnitMetric))),
				VoiceEnabled: getEnvAsBool("DEFAULT_VOICE_ENABLED", true),
				Language:     getEnv("DEFAULT_LANGUAGE", "en"),
				NotifPush:    getEnvAsBool("DEFAULT_NOTIF_PUSH", true),
				NotifEmail:   getEnvAsBool("DEFAULT_NOTIF_EMAIL", false),
				NotifSMS:     getEnvAsBool("DEFAULT_NOTIF_SMS", false),
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Supabase.JWTSecret == "" && c.Supabase.JWKSURL == "" {
		return fmt.Errorf("supabase trust material required: set SUPABASE_JWT_SECRET or SUPABASE_JWKS_URL")
	}
	if c.Supabase.Issuer == "" {
		return fmt.Errorf("supabase issuer is required: set SUPABASE_URL or SUPABASE_ISSUER")
	}
	if c.Supabase.Audience == "" {
		return fmt.Errorf("supabase audience is required")
	}

	switch c.App.PreferenceDefaults.UnitSystem {
	case models.UnitMetric, models.UnitImperial:
	default:
		return fmt.Errorf("invalid DEFAULT_UNIT_SYSTEM: %s", c.App.PreferenceDefaults.UnitSystem)
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// defaultIssuer derives the expected issuer from the Supabase project URL
func defaultIssuer(supabaseURL string) string {
	if supabaseURL == "" {
		return ""
	}
	return strings.TrimSuffix(supabaseURL, "/") + "/auth/v1"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "fitsync"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "fitsync"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
