// Package store selects and opens the credential store named by
// configuration.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/authsvc/auth-api/internal/core/ports"
	"github.com/authsvc/auth-api/internal/infrastructure/config"
	"github.com/authsvc/auth-api/internal/infrastructure/db/mongo"
	"github.com/authsvc/auth-api/internal/infrastructure/db/sqlstore"
)

// Backend is an open credential store.
type Backend struct {
	Name  string
	Users ports.UserRepository

	ping  func(context.Context) error
	close func(context.Context) error
}

// Open connects to the backend selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	switch cfg.Store {
	case config.StoreMongo:
		s, err := mongo.Connect(ctx, mongo.Config{URI: cfg.MongoURI(), Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return &Backend{Name: "mongodb", Users: s.Users(), ping: s.Ping, close: s.Close}, nil

	case config.StoreMySQL, config.StorePostgres, config.StoreSQLite:
		s, err := sqlstore.Open(ctx, sqlstore.Config{
			Dialect: sqlstore.Dialect(cfg.Store),
			DSN:     cfg.SQLDSN(),
		}, log)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Name:  cfg.Store,
			Users: s.Users(),
			ping:  s.Ping,
			close: func(context.Context) error { return s.Close() },
		}, nil
	}
	return nil, fmt.Errorf("store: unknown backend %q", cfg.Store)
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

func (b *Backend) Close(ctx context.Context) error {
	return b.close(ctx)
}
