// internal/database/db.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DB is the shared pool. It stays nil when no database is configured; callers
// check it before journaling.
var DB *pgxpool.Pool

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          UUID PRIMARY KEY,
	human       TEXT NOT NULL,
	difficulty  TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_round  INT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS round_records (
	session_id     UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	round          INT NOT NULL,
	phase          TEXT NOT NULL,
	current_player TEXT NOT NULL,
	central_gdp    INT NOT NULL,
	entente_gdp    INT NOT NULL,
	war_declared   BOOLEAN NOT NULL,
	recorded_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, round)
);`

// Connect opens the pool, verifies connectivity and creates the journal tables.
func Connect(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("create journal schema: %w", err)
	}
	DB = pool
	log.Info("Connected to Postgres session journal")
	return nil
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}
