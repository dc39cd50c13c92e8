package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Env      Environment `envconfig:"ENV" default:"development"`
	LogLevel string      `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool        `envconfig:"DEBUG" default:"false"`

	// Application
	App AppConfig

	// Server
	Server ServerConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Temporal
	Temporal TemporalConfig

	// AI providers
	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
	Providers ProviderConfig

	// Browser collector
	Browser BrowserConfig

	// NLP
	NLP NLPConfig

	// Artifact storage
	Storage StorageConfig

	// Rate limits
	RateLimits RateLimitConfig

	// Security
	Security SecurityConfig
}

// AppConfig holds application metadata
type AppConfig struct {
	Name    string `envconfig:"APP_NAME" default:"webpulse"`
	Version string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"180s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	MaxRequestSize  int64         `envconfig:"SERVER_MAX_REQUEST_SIZE" default:"1048576"` // 1MB
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"webpulse"`
	Password        string        `envconfig:"DB_PASSWORD" default:""`
	Database        string        `envconfig:"DB_NAME" default:"webpulse"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"1m"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	Host         string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port         int           `envconfig:"REDIS_PORT" default:"6379"`
	Password     string        `envconfig:"REDIS_PASSWORD" default:""`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"5"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Addr returns Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TemporalConfig holds Temporal settings
type TemporalConfig struct {
	Enabled     bool   `envconfig:"TEMPORAL_ENABLED" default:"false"`
	Host        string `envconfig:"TEMPORAL_HOST" default:"localhost"`
	Port        int    `envconfig:"TEMPORAL_PORT" default:"7233"`
	Namespace   string `envconfig:"TEMPORAL_NAMESPACE" default:"webpulse"`
	TaskQueue   string `envconfig:"TEMPORAL_TASK_QUEUE" default:"webpulse-comparisons"`
	WorkerCount int    `envconfig:"TEMPORAL_WORKER_COUNT" default:"4"`
}

// Address returns Temporal address
func (c TemporalConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AnthropicConfig holds Anthropic provider settings
type AnthropicConfig struct {
	APIKey    string        `envconfig:"ANTHROPIC_API_KEY" default:""`
	BaseURL   string        `envconfig:"ANTHROPIC_BASE_URL" default:""`
	Model     string        `envconfig:"ANTHROPIC_MODEL" default:""`
	Timeout   time.Duration `envconfig:"ANTHROPIC_TIMEOUT" default:"30s"`
	MaxTokens int           `envconfig:"ANTHROPIC_MAX_TOKENS" default:"4096"`
}

// OpenAIConfig holds OpenAI provider settings
type OpenAIConfig struct {
	APIKey  string        `envconfig:"OPENAI_API_KEY" default:""`
	BaseURL string        `envconfig:"OPENAI_BASE_URL" default:""`
	Model   string        `envconfig:"OPENAI_MODEL" default:""`
	Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"30s"`
}

// ProviderConfig tunes how the provider fallback chain behaves
type ProviderConfig struct {
	// Order lists provider names in preference order. The static fallback
	// always terminates the chain and is not listed here.
	Order           []string      `envconfig:"PROVIDER_ORDER" default:"anthropic,openai"`
	AttemptTimeout  time.Duration `envconfig:"PROVIDER_ATTEMPT_TIMEOUT" default:"12s"`
	RateLimitRPM    int           `envconfig:"PROVIDER_RATE_LIMIT_RPM" default:"60"`
	BreakerCooldown time.Duration `envconfig:"PROVIDER_BREAKER_COOLDOWN" default:"30s"`
}

// BrowserConfig tunes the headless browser collector
type BrowserConfig struct {
	Enabled     bool          `envconfig:"BROWSER_ENABLED" default:"true"`
	Headless    bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	NavTimeout  time.Duration `envconfig:"BROWSER_NAV_TIMEOUT" default:"30s"`
	SettleDelay time.Duration `envconfig:"BROWSER_SETTLE_DELAY" default:"1500ms"`
}

// NLPConfig tunes the content analysis orchestrator
type NLPConfig struct {
	CacheTTL  time.Duration `envconfig:"NLP_CACHE_TTL" default:"1h"`
	CacheSize int           `envconfig:"NLP_CACHE_SIZE" default:"50"`
}

// StorageConfig holds object storage settings for audit artifacts
type StorageConfig struct {
	Enabled   bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint  string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	Bucket    string `envconfig:"STORAGE_BUCKET" default:"webpulse-artifacts"`
	UseSSL    bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMin int  `envconfig:"RATE_LIMIT_REQUESTS_PER_MIN" default:"60"`
}

// SecurityConfig holds security settings
type SecurityConfig struct {
	CORSEnabled        bool     `envconfig:"CORS_ENABLED" default:"true"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	for _, name := range c.Providers.Order {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "anthropic", "openai":
		default:
			errs = append(errs, fmt.Sprintf("unknown provider %q in PROVIDER_ORDER", name))
		}
	}

	if c.Env != EnvDevelopment && c.Database.Password == "" {
		errs = append(errs, "DB_PASSWORD is required in non-development mode")
	}

	if c.RateLimits.Enabled && c.RateLimits.RequestsPerMin <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MIN must be positive when rate limiting is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// GetLogLevel returns the appropriate zap log level
func (c *Config) GetLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}
