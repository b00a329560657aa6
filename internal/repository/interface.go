package repository

import (
	"context"

	"zhaiyao/internal/model"
)

// UploadRepository defines the data access surface for upload history.
// Append-only: no updates, no deletes, no pagination.
type UploadRepository interface {
	// Insert stores one upload record.
	Insert(ctx context.Context, rec *model.UploadRecord) error

	// ListByUser returns all records for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.UploadRecord, error)
}
