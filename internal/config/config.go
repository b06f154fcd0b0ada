package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/config"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/database"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/httpclient"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/tracing"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8003"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours (default: 7 days)
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"168"`

	// PostgreSQL (wishlist)
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth. An empty secret falls back to the gateway's X-User-ID header.
	JWTSecret string `env:"JWT_SECRET" envDefault:""`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTL <= 0 {
		return fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTL)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %v", c.OTELSampleRate)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	return nil
}

// CartTTLDuration is CartTTL as a duration.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// Redis returns the cart store connection settings.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Addr = c.RedisAddr
	rc.Password = c.RedisPass
	rc.DB = c.RedisDB
	return rc
}

// Postgres returns the wishlist store connection settings.
func (c *Config) Postgres() *database.PostgresConfig {
	pc := database.DefaultPostgresConfig()
	pc.Host = c.PostgresHost
	pc.Port = c.PostgresPort
	pc.User = c.PostgresUser
	pc.Password = c.PostgresPassword
	pc.DBName = c.PostgresDB
	pc.SSLMode = c.PostgresSSLMode
	pc.MaxConns = c.PostgresMaxConns
	return &pc
}

// Tracing returns the tracer settings for serviceName.
func (c *Config) Tracing(serviceName string) tracing.Config {
	tc := tracing.DefaultConfig(serviceName)
	tc.Environment = c.Environment
	tc.Enabled = c.OTELEnabled
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	return tc
}

// ClientConfig holds configuration for the shopper client.
type ClientConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`

	// APIURL is the storefront API. Empty runs against in-memory fixtures.
	APIURL string `env:"STOREFRONT_API_URL" envDefault:""`
	// Token is a bearer token; its subject names the shopper.
	Token string `env:"STOREFRONT_TOKEN" envDefault:""`
	// UserID is sent as X-User-ID when no token is configured.
	UserID string `env:"STOREFRONT_USER_ID" envDefault:"demo-user"`

	CatalogURL       string `env:"CATALOG_URL" envDefault:""`
	CatalogCacheSize int    `env:"CATALOG_CACHE_SIZE" envDefault:"256"`

	RemoteTimeout    time.Duration `env:"REMOTE_TIMEOUT" envDefault:"10s"`
	RemoteMaxRetries int           `env:"REMOTE_MAX_RETRIES" envDefault:"2"`

	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerOpenTimeout  time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
}

// LoadClient reads the shopper client configuration from environment variables.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ClientConfig) validate() error {
	for name, raw := range map[string]string{"STOREFRONT_API_URL": c.APIURL, "CATALOG_URL": c.CatalogURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.CatalogCacheSize <= 0 {
		return fmt.Errorf("CATALOG_CACHE_SIZE must be positive, got %d", c.CatalogCacheSize)
	}
	if c.RemoteMaxRetries < 0 {
		return fmt.Errorf("REMOTE_MAX_RETRIES must not be negative, got %d", c.RemoteMaxRetries)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be within (0,1], got %v", c.BreakerFailureRatio)
	}
	return nil
}

// Offline reports whether the client runs without a storefront API.
func (c *ClientConfig) Offline() bool {
	return c.APIURL == ""
}

// HTTPClient returns the retrying transport settings.
func (c *ClientConfig) HTTPClient() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.RemoteTimeout
	hc.MaxRetries = c.RemoteMaxRetries
	return hc
}

// Breaker returns the circuit breaker settings for name.
func (c *ClientConfig) Breaker(name string) httpclient.CircuitBreakerConfig {
	bc := httpclient.DefaultCircuitBreakerConfig(name)
	bc.FailureRatio = c.BreakerFailureRatio
	bc.MinRequests = c.BreakerMinRequests
	bc.Timeout = c.BreakerOpenTimeout
	return bc
}
