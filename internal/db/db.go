package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

// InitDB opens a MySQL pool for dbURL and verifies it answers.
// parseTime is always enabled because the stores scan DATETIME into time.Time.
func InitDB(ctx context.Context, dbURL string, logger zerolog.Logger) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dbURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_URL: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is not responding: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Str("database", cfg.DBName).Msg("Connected to database")
	return db, nil
}
