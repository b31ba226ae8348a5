package db

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"storefront/internal/db/migrations"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	err := RunMigrations(context.Background(), nil, zerolog.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, ".", gotDir)
}

func TestRunMigrations_WrapsError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return errors.New("syntax error")
	}

	err := RunMigrations(context.Background(), nil, zerolog.New(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration failed: syntax error")
}

func TestMigrations_AreEmbedded(t *testing.T) {
	data, err := migrations.FS.ReadFile("00001_init_schema.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "uq_purchases_pending")
}
