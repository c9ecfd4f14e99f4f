package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GROCER_"

const (
	CatalogFirestore = "firestore"
	CatalogSQLite    = "sqlite"
)

type Postgres struct {
	Host       string `koanf:"postgres_host"`
	Port       int    `koanf:"postgres_port"`
	User       string `koanf:"postgres_user"`
	Password   string `koanf:"postgres_password"`
	DB         string `koanf:"postgres_db"`
	Migrations string `koanf:"postgres_migrations"`
}

type Config struct {
	HTTPPort        string        `koanf:"http_port"`
	GRPCPort        string        `koanf:"grpc_port"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	LogLevel        string        `koanf:"log_level"`

	// GCPProject is the project hosting Firestore, Firebase Auth and the media bucket.
	GCPProject   string `koanf:"gcp_project"`
	PublicBucket string `koanf:"public_bucket"`
	// AuthDisabled swaps Firebase token checks for a fixed development user.
	AuthDisabled bool `koanf:"auth_disabled"`

	CatalogBackend   string `koanf:"catalog_backend"`
	SQLitePath       string `koanf:"sqlite_path"`
	SQLiteMigrations string `koanf:"sqlite_migrations"`

	MongoURI      string        `koanf:"mongo_uri"`
	MongoDB       string        `koanf:"mongo_db"`
	MongoTimeout  time.Duration `koanf:"mongo_timeout"`
	MongoPoolSize uint64        `koanf:"mongo_pool_size"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	Postgres Postgres `koanf:",squash"`

	// KafkaBrokers is empty when checkout events are disabled.
	KafkaBrokers []string `koanf:"kafka_brokers"`

	Currency           string        `koanf:"currency"`
	ComposerSessionTTL time.Duration `koanf:"composer_session_ttl"`
}

var defaults = map[string]any{
	"http_port":            "8080",
	"grpc_port":            "50060",
	"request_timeout":      "10s",
	"shutdown_timeout":     "10s",
	"log_level":            "info",
	"gcp_project":          "demo-grocer",
	"public_bucket":        "",
	"auth_disabled":        false,
	"catalog_backend":      CatalogFirestore,
	"sqlite_path":          "./data/products.db",
	"sqlite_migrations":    "internal/catalog/migrations",
	"mongo_uri":            "mongodb://localhost:27017",
	"mongo_db":             "grocer",
	"mongo_timeout":        "10s",
	"mongo_pool_size":      20,
	"redis_addr":           "localhost:6379",
	"redis_password":       "",
	"postgres_host":        "localhost",
	"postgres_port":        5432,
	"postgres_user":        "postgres",
	"postgres_password":    "postgres",
	"postgres_db":          "orders",
	"postgres_migrations":  "internal/orders/migrations",
	"kafka_brokers":        "",
	"currency":             "ILS",
	"composer_session_ttl": "30m",
}

// Load reads defaults and then GROCER_* environment overrides.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if cfg.PublicBucket == "" && cfg.GCPProject != "" {
		cfg.PublicBucket = cfg.GCPProject + "-public"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GCPProject == "" {
		return fmt.Errorf("config: gcp_project is required")
	}
	switch c.CatalogBackend {
	case CatalogFirestore, CatalogSQLite:
	default:
		return fmt.Errorf("config: unknown catalog_backend %q", c.CatalogBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request_timeout must be positive")
	}
	if c.MongoTimeout <= 0 {
		return fmt.Errorf("config: mongo_timeout must be positive")
	}
	if c.ComposerSessionTTL <= 0 {
		return fmt.Errorf("config: composer_session_ttl must be positive")
	}
	return nil
}

// EventsEnabled reports whether checkout events flow through Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
