package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every setting, e.g. PRICESCANNER_ADDR.
const EnvPrefix = "PRICESCANNER"

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	StorageDriver   string        `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	SQLitePath      string        `envconfig:"SQLITE_PATH" default:"pricescanner.db"`
	MigrationsDir   string        `envconfig:"MIGRATIONS_DIR"`
	RedisURL        string        `envconfig:"REDIS_URL"`
	WatchInterval   time.Duration `envconfig:"WATCH_INTERVAL" default:"1s"`
	APIBaseURL      string        `envconfig:"API_BASE_URL" required:"true"`
	APITimeout      time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
	HealthInterval  time.Duration `envconfig:"HEALTH_INTERVAL" default:"30s"`
	AuthCacheTTL    time.Duration `envconfig:"AUTH_CACHE_TTL" default:"15s"`
	ProductCacheTTL time.Duration `envconfig:"PRODUCT_CACHE_TTL" default:"30s"`
	ShopName        string        `envconfig:"SHOP_NAME" default:"Price Scanner"`
	SecureCookies   bool          `envconfig:"SECURE_COOKIES" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes and checks settings that envconfig cannot.
func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("sqlite path is required for the sqlite storage driver")
		}
	case StorageRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return errors.New("redis url is required for the redis storage driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.APIBaseURL)
	}

	if c.WatchInterval <= 0 {
		return errors.New("watch interval must be positive")
	}
	if c.HealthInterval <= 0 {
		return errors.New("health interval must be positive")
	}
	return nil
}
