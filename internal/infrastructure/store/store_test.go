package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authsvc/auth-api/internal/core/domain"
	"github.com/authsvc/auth-api/internal/infrastructure/config"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{Store: config.StoreSQLite}
	cfg.SQL.SQLitePath = filepath.Join(t.TempDir(), "auth.db")

	b, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })

	assert.Equal(t, "sqlite", b.Name)
	assert.NoError(t, b.Ping(context.Background()))

	_, err = b.Users.FindByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: "cassandra"}, zerolog.Nop())
	assert.Error(t, err)
}
