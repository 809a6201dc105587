// Package model defines domain entities used by services and repositories.
package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/health-keeper/internal/errs"
)

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// User represents an account. PasswordHash never leaves the service layer.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string // normalized, unique
	PasswordHash string `json:"-"` // encoded Argon2id digest
	CreatedAt    time.Time
}

// NormalizeEmail returns the canonical form used for storage and uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Category is a condition category from a closed, known set.
type Category string

const (
	CategoryCardiovascular Category = "cardiovascular"
	CategoryHepatic        Category = "hepatic"
	CategoryRenal          Category = "renal"
	CategoryMetabolic      Category = "metabolic"
)

var categories = []Category{
	CategoryCardiovascular,
	CategoryHepatic,
	CategoryRenal,
	CategoryMetabolic,
}

// Categories returns the supported categories in a fixed order.
func Categories() []Category {
	return slices.Clone(categories)
}

// ParseCategory validates s against the closed category set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !slices.Contains(categories, c) {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownCategory, s)
	}
	return c, nil
}

// RiskLevel is the three-valued ordinal produced by an assessor.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Valid reports whether r is one of the three known levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

// Referral names a specialist the user may be referred to.
type Referral struct {
	Specialty string `json:"specialty"`
	Name      string `json:"name"`
}

// Prediction is an assessor's output.
type Prediction struct {
	Risk            RiskLevel  `json:"risk"`
	Confidence      int        `json:"confidence"` // percent
	Recommendations []string   `json:"recommendations"`
	Referrals       []Referral `json:"referrals,omitempty"`
	ComputedAt      time.Time  `json:"computedAt"`
}

// DiagnosisRecord is an immutable, append-only assessment entry owned by a user.
type DiagnosisRecord struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"userId"`
	Category     Category   `json:"category"`
	InputAnswers Answers    `json:"inputAnswers"`
	Prediction   Prediction `json:"prediction"`
	CreatedAt    time.Time  `json:"createdAt"` // >= Prediction.ComputedAt
}
