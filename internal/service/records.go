package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/model"
	"github.com/and161185/health-keeper/internal/repository"
)

// UserFinder resolves user ids. CredentialStore satisfies it.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (model.User, error)
}

// RecordStore keeps the append-only diagnosis history of each user.
type RecordStore struct {
	repo  repository.RecordRepository
	users UserFinder
	now   func() time.Time
}

// NewRecordStore constructs a RecordStore.
func NewRecordStore(repo repository.RecordRepository, users UserFinder) *RecordStore {
	return &RecordStore{repo: repo, users: users, now: time.Now}
}

// Append persists a new record for userID and returns it.
func (s *RecordStore) Append(ctx context.Context, userID uuid.UUID, category model.Category, answers model.Answers, p model.Prediction) (model.DiagnosisRecord, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return model.DiagnosisRecord{}, err
	}
	if _, err := model.ParseCategory(string(category)); err != nil {
		return model.DiagnosisRecord{}, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.DiagnosisRecord{}, err
	}

	created := s.now().UTC()
	if p.ComputedAt.After(created) {
		created = p.ComputedAt
	}
	p.Recommendations = append([]string(nil), p.Recommendations...)
	p.Referrals = append([]model.Referral(nil), p.Referrals...)

	rec := model.DiagnosisRecord{
		ID:           id,
		UserID:       userID,
		Category:     category,
		InputAnswers: answers.Clone(),
		Prediction:   p,
		CreatedAt:    created,
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return model.DiagnosisRecord{}, fmt.Errorf("append record: %w", err)
	}
	return rec, nil
}

// ListByOwner returns the owner's records in ascending CreatedAt order.
func (s *RecordStore) ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.DiagnosisRecord, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	recs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]model.DiagnosisRecord, 0, len(recs))
	for _, r := range recs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *RecordStore) ensureUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return errs.ErrUnknownUser
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: %s", errs.ErrUnknownUser, userID)
		}
		return err
	}
	return nil
}
