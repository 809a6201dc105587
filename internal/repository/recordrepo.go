package repository

import (
	"context"

	"github.com/and161185/health-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// RecordRepository provides append-only access to diagnosis records.
type RecordRepository interface {
	// Append stores a new record.
	Append(ctx context.Context, rec model.DiagnosisRecord) error
	// ListByUser returns the user's records in insertion order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.DiagnosisRecord, error)
}
