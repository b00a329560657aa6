package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"zhaiyao/internal/model"
)

// memoryRepository keeps upload history in process memory. It backs the
// server when DATABASE_URL is unset; history then lasts only as long as the
// process does.
type memoryRepository struct {
	mu      sync.Mutex
	records []model.UploadRecord
}

// NewMemoryRepository creates an in-memory upload repository.
func NewMemoryRepository() UploadRepository {
	return &memoryRepository{}
}

func (r *memoryRepository) Insert(_ context.Context, rec *model.UploadRecord) error {
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

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]model.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.UploadRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
