package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/model"
	"github.com/and161185/health-keeper/internal/risk"
)

// DiagnosisService defines the assessment use cases exposed to clients.
type DiagnosisService interface {
	// Submit assesses answers for category and records the result.
	Submit(ctx context.Context, userID uuid.UUID, category string, answers model.Answers) (model.DiagnosisRecord, error)
	// History returns the caller's records, oldest first.
	History(ctx context.Context, userID uuid.UUID) ([]model.DiagnosisRecord, error)
	// Categories lists supported categories.
	Categories() []model.Category
}

type DiagnosisServiceImpl struct {
	assessor risk.Assessor
	records  *RecordStore
}

var _ DiagnosisService = (*DiagnosisServiceImpl)(nil)

// NewDiagnosisService wires an assessor to a record store.
func NewDiagnosisService(assessor risk.Assessor, records *RecordStore) *DiagnosisServiceImpl {
	return &DiagnosisServiceImpl{assessor: assessor, records: records}
}

// Submit validates input, runs the assessor and appends the outcome.
// Nothing is stored when validation or assessment fails.
func (s *DiagnosisServiceImpl) Submit(ctx context.Context, userID uuid.UUID, category string, answers model.Answers) (model.DiagnosisRecord, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return model.DiagnosisRecord{}, fmt.Errorf("%w: category is required", errs.ErrValidation)
	}
	if len(answers) == 0 {
		return model.DiagnosisRecord{}, fmt.Errorf("%w: inputAnswers must not be empty", errs.ErrValidation)
	}
	cat, err := model.ParseCategory(category)
	if err != nil {
		return model.DiagnosisRecord{}, err
	}

	p, err := s.assessor.Assess(cat, answers)
	if err != nil {
		return model.DiagnosisRecord{}, fmt.Errorf("assess: %w", err)
	}
	if err := checkPrediction(p); err != nil {
		return model.DiagnosisRecord{}, fmt.Errorf("assess: invalid prediction: %w", err)
	}
	return s.records.Append(ctx, userID, cat, answers, p)
}

// checkPrediction rejects assessor output that would store a malformed record.
func checkPrediction(p model.Prediction) error {
	switch {
	case !p.Risk.Valid():
		return fmt.Errorf("risk level %q", p.Risk)
	case p.Confidence < 0 || p.Confidence > 100:
		return fmt.Errorf("confidence %d out of range", p.Confidence)
	case len(p.Recommendations) == 0:
		return errors.New("no recommendations")
	}
	return nil
}

func (s *DiagnosisServiceImpl) History(ctx context.Context, userID uuid.UUID) ([]model.DiagnosisRecord, error) {
	return s.records.ListByOwner(ctx, userID)
}

func (s *DiagnosisServiceImpl) Categories() []model.Category {
	return model.Categories()
}
