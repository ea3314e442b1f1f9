package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"

	// MaxPaymentDelay keeps a simulated charge well inside the one minute an
	// idempotency claim is held.
	MaxPaymentDelay = 30 * time.Second
)

type Config struct {
	Port       string        `env:"PORT,           default=8080"`
	Env        string        `env:"ENV,            default=development"`
	JWTSecret  string        `env:"JWT_SECRET"`
	LogLevel   string        `env:"LOG_LEVEL,      default=info"`
	SessionTTL time.Duration `env:"SESSION_TTL,    default=24h"`

	StoreDriver   string `env:"STORE_DRIVER,   default=memory"`
	SessionDriver string `env:"SESSION_DRIVER, default=memory"`
	Seed          bool   `env:"SEED,           default=true"`

	HTTP    HTTPConfig
	License LicenseConfig
	Notify  NotifyConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type HTTPConfig struct {
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT, default=30s"`
}

type LicenseConfig struct {
	// Price is in whole rupees.
	Price        int64         `env:"LICENSE_PRICE, default=25000"`
	PaymentDelay time.Duration `env:"PAYMENT_DELAY, default=1500ms"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=tradeloom"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.StoreDriver != DriverMemory && c.StoreDriver != DriverMongo {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %s or %s, got %q", DriverMemory, DriverMongo, c.StoreDriver))
	}
	if c.SessionDriver != DriverMemory && c.SessionDriver != DriverRedis {
		errs = append(errs, fmt.Errorf("SESSION_DRIVER must be %s or %s, got %q", DriverMemory, DriverRedis, c.SessionDriver))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.License.Price <= 0 {
		errs = append(errs, errors.New("LICENSE_PRICE must be positive"))
	}
	if c.HTTP.WriteTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_WRITE_TIMEOUT must be positive"))
	}
	switch d := c.License.PaymentDelay; {
	case d < 0:
		errs = append(errs, errors.New("PAYMENT_DELAY must not be negative"))
	case d > MaxPaymentDelay:
		errs = append(errs, fmt.Errorf("PAYMENT_DELAY must be at most %s, got %s", MaxPaymentDelay, d))
	case c.HTTP.WriteTimeout > 0 && d > c.HTTP.WriteTimeout/2:
		// the response still has to be written after the delay
		errs = append(errs, fmt.Errorf("PAYMENT_DELAY %s must be at most half of HTTP_WRITE_TIMEOUT %s", d, c.HTTP.WriteTimeout))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
