package model

import (
	"time"

	"github.com/google/uuid"
)

// Upload record status values. A record is written exactly once per
// ingestion attempt and never updated in place.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// UploadRecord is one row per ingestion attempt.
type UploadRecord struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"` // empty for anonymous callers
	Filename     string    `json:"filename"`
	ObjectURL    string    `json:"object_url"` // empty when a remote URL was linked without re-upload
	ObjectKey    string    `json:"object_key"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"` // set only when Status = failed
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
