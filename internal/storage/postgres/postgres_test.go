package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akondltd/radbot/internal/storage"
)

func TestStorageError(t *testing.T) {
	assert.NoError(t, storageError("get trade state", nil))
	assert.ErrorIs(t, storageError("get trade state", pgx.ErrNoRows), storage.ErrNotFound)
	assert.ErrorIs(t, storageError("scan", errors.Join(errors.New("scan optimization result"), pgx.ErrNoRows)), storage.ErrNotFound)

	dup := &pgconn.PgError{Code: pgErrUniqueViolation}
	assert.ErrorIs(t, storageError("insert trade state", dup), storage.ErrDuplicateKey)

	other := &pgconn.PgError{Code: "23503"}
	err := storageError("insert optimization result", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Contains(t, err.Error(), "insert optimization result")
}

func TestPoolOptions(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)
	defaultMax := cfg.MaxConns

	WithMaxConns(0)(cfg)
	WithConnectTimeout(0)(cfg)
	assert.Equal(t, defaultMax, cfg.MaxConns)

	WithMaxConns(3)(cfg)
	WithConnectTimeout(2 * time.Second)(cfg)
	assert.Equal(t, int32(3), cfg.MaxConns)
	assert.Equal(t, 2*time.Second, cfg.ConnConfig.ConnectTimeout)
}
