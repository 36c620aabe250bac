package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port     string
		Env      string
		Timeout  time.Duration
		BaseURL  string
		GRPCPort string
	}

	// Database configuration
	Database struct {
		Driver     string
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		SSLMode    string
		MaxConns   int
		Timeout    time.Duration
		SQLitePath string
	}

	// JWT configuration
	JWT struct {
		Secret      string
		ExpiryHours time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// LLM provider configuration. An empty key for the selected provider
	// switches the AI features to their deterministic fallbacks.
	LLM struct {
		Provider      string
		OpenAIKey     string
		OpenAIModel   string
		OpenAIBaseURL string
		GeminiKey     string
		GeminiModel   string
		Timeout       time.Duration
		MaxTokens     int
	}

	// Redis configuration
	Redis struct {
		URL      string
		Password string
		DB       int
	}

	// Vault configuration
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		SecretsPath string
	}

	// Evidence vault configuration
	Evidence struct {
		MasterKey string
	}

	// Observability configuration
	Observability struct {
		TraceStdout       bool
		OpenAPISchemaPath string
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load reads a fresh Config from the environment without touching the singleton.
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.Server.Port)
	cfg.Server.GRPCPort = getEnvString("GRPC_PORT", "")

	// Database config
	cfg.Database.Driver = getEnvString("DB_DRIVER", "postgres")
	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "aura")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)
	cfg.Database.SQLitePath = getEnvString("SQLITE_PATH", "aura.db")

	// JWT config
	cfg.JWT.Secret = getEnvString("JWT_SECRET", "")
	cfg.JWT.ExpiryHours = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	// Security config
	cfg.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 10<<20) // 10MB

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// LLM config
	cfg.LLM.Provider = strings.ToLower(getEnvString("LLM_PROVIDER", "openai"))
	cfg.LLM.OpenAIKey = getEnvString("OPENAI_API_KEY", "")
	cfg.LLM.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-4o-mini")
	cfg.LLM.OpenAIBaseURL = getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.LLM.GeminiKey = getEnvString("GEMINI_API_KEY", "")
	cfg.LLM.GeminiModel = getEnvString("GEMINI_MODEL", "gemini-1.5-flash")
	cfg.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", 20*time.Second)
	cfg.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", 1024)

	// Redis config
	cfg.Redis.URL = getEnvString("REDIS_URL", "")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// Vault config
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "aura")

	// Evidence config
	cfg.Evidence.MasterKey = getEnvString("EVIDENCE_MASTER_KEY", "")

	// Observability
	cfg.Observability.TraceStdout = getEnvBool("TRACE_STDOUT", false)
	cfg.Observability.OpenAPISchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "")

	// Cache settings
	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

	return cfg
}

// IsProduction reports whether the service runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
