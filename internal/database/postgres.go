package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/recordclean/internal/config"
)

// ErrNoDatabaseURL is returned when the postgres record store is selected
// without a connection string.
var ErrNoDatabaseURL = errors.New("STORAGE_DRIVER=postgres needs DATABASE_URL for the record tables")

// NewPostgresPool creates and validates the connection pool of the postgres
// record store. Record tables that are missing are logged, since a
// --collection override may point elsewhere.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, ErrNoDatabaseURL
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxDBConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create record store pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping record store: %w", err)
	}

	for _, table := range []string{cfg.AttendanceCollection, cfg.IatCollection} {
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists); err != nil {
			pool.Close()
			return nil, fmt.Errorf("check table %s: %w", table, err)
		}
		if !exists {
			log.Warn().Str("table", table).Msg("Record table missing, run: migrate up")
		}
	}

	log.Info().
		Int32("max_conns", cfg.MaxDBConns).
		Str("database", poolCfg.ConnConfig.Database).
		Msg("PostgreSQL record store connected")

	return pool, nil
}
