package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS upload_records (
	id            UUID PRIMARY KEY,
	user_id       TEXT NOT NULL DEFAULT '',
	filename      TEXT NOT NULL,
	object_url    TEXT NOT NULL DEFAULT '',
	object_key    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_upload_records_user_created
	ON upload_records (user_id, created_at DESC);
`

// Open connects to PostgreSQL via the pgx stdlib driver, verifies the
// connection, and ensures the upload_records table exists.
func Open(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Printf("[DB] connected and schema ensured")
	return conn, nil
}
