// Package sqlstore implements the credential store on relational databases.
// MySQL, PostgreSQL (pgx) and SQLite (modernc) share one repository; the
// dialect decides the driver, placeholder style, migration set and how a
// unique-key violation is recognised.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/authsvc/auth-api/internal/infrastructure/db/sqlstore/migrations"
)

const defaultTimeout = 10 * time.Second

// Dialect identifies a supported SQL backend.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) driverName() string {
	switch d {
	case Postgres:
		return "pgx"
	default:
		return string(d)
	}
}

func (d Dialect) gooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return string(d)
}

// Config captures the settings for opening a SQL store.
type Config struct {
	Dialect Dialect
	DSN     string
	Timeout time.Duration
}

// Store owns the connection pool.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects, pings and applies pending migrations.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dsn, err := normalizeDSN(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", cfg.Dialect, err)
	}
	if cfg.Dialect == SQLite {
		// Writers serialise on the file lock anyway.
		db.SetMaxOpenConns(1)
	}

	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(openCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.Dialect, err)
	}

	s := &Store{db: db, dialect: cfg.Dialect}
	if err := s.migrate(openCtx, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Users returns the credential store backed by this database.
func (s *Store) Users() *UserRepository {
	return NewUserRepository(s.db, s.dialect)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context, log zerolog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect(s.dialect.gooseDialect()); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, string(s.dialect)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// normalizeDSN forces parseTime on MySQL DSNs so DATETIME columns scan into
// time.Time.
func normalizeDSN(d Dialect, dsn string) (string, error) {
	switch d {
	case MySQL:
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN(), nil
	case Postgres, SQLite:
		return dsn, nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported dialect %q", d)
	}
}

type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info().Str("component", "migrations").Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatal().Str("component", "migrations").Msgf(format, v...)
}
