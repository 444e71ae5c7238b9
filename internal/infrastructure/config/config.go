package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-sql-driver/mysql"
	"github.com/sethvargo/go-envconfig"
)

// Supported credential store backends.
const (
	StoreMongo    = "mongo"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Port      string `env:"PORT, default=3000"`
	Env       string `env:"ENV, default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	Store     string `env:"STORE, default=mongo"`

	// Shared credentials, used to build a connection string when no explicit
	// URI/DSN is configured.
	DB DBConfig

	Mongo MongoConfig
	SQL   SQLConfig
	Redis RedisConfig
}

type DBConfig struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME, default=auth"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=auth"`
}

type SQLConfig struct {
	DSN        string `env:"DATABASE_DSN"`
	SQLitePath string `env:"SQLITE_PATH, default=auth.db"`
}

// RedisConfig enables the registration lock when Addr is set.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails when the signing secret or the selected store's
// credentials are missing.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}

	switch c.Store {
	case StoreMongo:
		if c.Mongo.URI == "" && (c.DB.User == "" || c.DB.Password == "" || c.DB.Host == "") {
			return errors.New("config: MONGO_URI or DB_USER, DB_PASSWORD and DB_HOST are required")
		}
	case StoreMySQL:
		if c.SQL.DSN == "" && (c.DB.User == "" || c.DB.Password == "" || c.DB.Host == "") {
			return errors.New("config: DATABASE_DSN or DB_USER, DB_PASSWORD and DB_HOST are required")
		}
	case StorePostgres:
		if c.SQL.DSN == "" {
			return errors.New("config: DATABASE_DSN is required")
		}
	case StoreSQLite:
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// MongoURI returns MONGO_URI, or an SRV URI assembled from the DB_* variables.
func (c *Config) MongoURI() string {
	if c.Mongo.URI != "" {
		return c.Mongo.URI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// SQLDSN returns the data source name for the selected SQL store.
func (c *Config) SQLDSN() string {
	switch c.Store {
	case StoreSQLite:
		return c.SQL.SQLitePath
	case StoreMySQL:
		if c.SQL.DSN != "" {
			return c.SQL.DSN
		}
		mc := mysql.NewConfig()
		mc.User = c.DB.User
		mc.Passwd = c.DB.Password
		mc.Net = "tcp"
		mc.Addr = c.DB.Host
		if c.DB.Port != "" {
			mc.Addr = c.DB.Host + ":" + c.DB.Port
		}
		mc.DBName = c.DB.Name
		mc.ParseTime = true
		return mc.FormatDSN()
	default:
		return c.SQL.DSN
	}
}
