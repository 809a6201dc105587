package docstore

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/health-keeper/internal/model"
	"github.com/and161185/health-keeper/internal/repository"
)

// RecordRepo implements repository.RecordRepository on the diagnosis_records collection.
type RecordRepo struct {
	c *Collection[model.DiagnosisRecord]
}

var _ repository.RecordRepository = (*RecordRepo)(nil)

// NewRecordRepo constructs a record repository.
func NewRecordRepo(store repository.Persistence) *RecordRepo {
	return &RecordRepo{c: NewCollection[model.DiagnosisRecord](store, repository.CollectionRecords, 0)}
}

// Append adds rec at the end of the collection.
func (r *RecordRepo) Append(ctx context.Context, rec model.DiagnosisRecord) error {
	return r.c.Update(ctx, func(recs []model.DiagnosisRecord) ([]model.DiagnosisRecord, error) {
		return append(recs, rec), nil
	})
}

// ListByUser returns the user's records in insertion order.
func (r *RecordRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.DiagnosisRecord, error) {
	recs, err := r.c.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.DiagnosisRecord, 0)
	for _, rec := range recs {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
