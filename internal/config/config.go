package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config aggregates runtime configuration.
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Store    StoreConfig    `envPrefix:"STORE_"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	SQLite   SQLiteConfig   `envPrefix:"SQLITE_"`
	Logger   LoggerConfig   `envPrefix:"LOG_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
}

// AppConfig identifies the running instance.
type AppConfig struct {
	Name string `env:"NAME" envDefault:"ticketdesk"`
	Env  string `env:"ENV" envDefault:"development"`
}

// StoreConfig selects the durable key-value backend.
type StoreConfig struct {
	Driver    string `env:"DRIVER" envDefault:"file"`
	Namespace string `env:"NAMESPACE" envDefault:"ticketapp"`
	FileDir   string `env:"FILE_DIR" envDefault:".ticketdesk"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN           string `env:"DSN"`
	MaxConns      int32  `env:"MAX_CONNS" envDefault:"4"`
	MinConns      int32  `env:"MIN_CONNS" envDefault:"0"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// SQLiteConfig locates the SQLite database file.
type SQLiteConfig struct {
	Path          string `env:"PATH" envDefault:".ticketdesk/ticketdesk.db"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// AuthConfig defines credential hashing parameters.
type AuthConfig struct {
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// Load reads configuration from environment variables and an optional
// .env file, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis, DriverSQLite:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN required for driver %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverFile && c.Store.FileDir == "" {
		return fmt.Errorf("STORE_FILE_DIR required for driver %q", DriverFile)
	}
	c.Auth.BcryptCost = clampCost(c.Auth.BcryptCost)
	return nil
}

func clampCost(cost int) int {
	if cost < bcrypt.MinCost {
		return bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}
