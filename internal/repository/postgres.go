package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zhaiyao/internal/model"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates an upload repository over a PostgreSQL
// connection.
func NewPostgresRepository(db *sql.DB) UploadRepository {
	return &postgresRepository{db: db}
}

// Insert stores one upload record, defaulting ID and timestamps when the
// caller left them zero.
func (r *postgresRepository) Insert(ctx context.Context, rec *model.UploadRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	query := `
		INSERT INTO upload_records (
			id, user_id, filename, object_url, object_key,
			status, error_message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Filename,
		rec.ObjectURL,
		rec.ObjectKey,
		rec.Status,
		rec.ErrorMessage,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}
	return nil
}

// ListByUser returns all records for a user ordered by creation time
// descending.
func (r *postgresRepository) ListByUser(ctx context.Context, userID string) ([]model.UploadRecord, error) {
	query := `
		SELECT id, user_id, filename, object_url, object_key,
		       status, error_message, created_at, updated_at
		FROM upload_records
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload records: %w", err)
	}
	defer rows.Close()

	var records []model.UploadRecord
	for rows.Next() {
		var rec model.UploadRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Filename,
			&rec.ObjectURL,
			&rec.ObjectKey,
			&rec.Status,
			&rec.ErrorMessage,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan upload record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upload records: %w", err)
	}
	return records, nil
}
