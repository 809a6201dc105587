// Package convert maps domain entities to and from the JSON wire shapes of the HTTP API.
package convert

import (
	"time"

	model "github.com/and161185/health-keeper/internal/model"
)

// --- requests ---

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RenameRequest is the body of PATCH /auth/me.
type RenameRequest struct {
	Name string `json:"name"`
}

// PredictRequest is the body of POST /diagnosis/predict.
type PredictRequest struct {
	Category     string        `json:"category"`
	InputAnswers model.Answers `json:"inputAnswers"`
}

// --- views ---

// UserView is the public projection of a user; the password digest is never included.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// PredictionView is the wire form of an assessment; Recommendations is never null.
type PredictionView struct {
	Risk            string           `json:"risk"`
	Confidence      int              `json:"confidence"`
	Recommendations []string         `json:"recommendations"`
	Referrals       []model.Referral `json:"referrals,omitempty"`
	ComputedAt      time.Time        `json:"computedAt"`
}

// RecordView is a history entry as returned to its owner.
type RecordView struct {
	ID           string         `json:"id"`
	Category     string         `json:"category"`
	InputAnswers model.Answers  `json:"inputAnswers"`
	Prediction   PredictionView `json:"prediction"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// --- responses ---

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}

// UserResponse wraps the caller's profile.
type UserResponse struct {
	User UserView `json:"user"`
}

// PredictResponse carries a fresh prediction and the ID of the stored record.
type PredictResponse struct {
	Prediction PredictionView `json:"prediction"`
	RecordID   string         `json:"recordId"`
}

// HistoryResponse lists the caller's records, oldest first.
type HistoryResponse struct {
	Records []RecordView `json:"records"`
}

// CategoriesResponse lists the supported categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToUserView projects a user for external responses.
func ToUserView(u model.User) UserView {
	return UserView{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// ToAuthResponse pairs an issued token with its user.
func ToAuthResponse(t model.Tokens, u model.User) AuthResponse {
	return AuthResponse{Token: t.AccessToken, ExpiresAt: t.ExpiresAt, User: ToUserView(u)}
}

// ToPredictionView copies slices so the view never aliases stored state.
func ToPredictionView(p model.Prediction) PredictionView {
	return PredictionView{
		Risk:            string(p.Risk),
		Confidence:      p.Confidence,
		Recommendations: append(make([]string, 0, len(p.Recommendations)), p.Recommendations...),
		Referrals:       append([]model.Referral(nil), p.Referrals...),
		ComputedAt:      p.ComputedAt,
	}
}

// ToRecordView projects a stored record; the owner ID is omitted.
func ToRecordView(r model.DiagnosisRecord) RecordView {
	answers := r.InputAnswers.Clone()
	if answers == nil {
		answers = model.Answers{}
	}
	return RecordView{
		ID:           r.ID.String(),
		Category:     string(r.Category),
		InputAnswers: answers,
		Prediction:   ToPredictionView(r.Prediction),
		CreatedAt:    r.CreatedAt,
	}
}

// ToRecordViews never returns nil so an empty history encodes as [].
func ToRecordViews(rs []model.DiagnosisRecord) []RecordView {
	out := make([]RecordView, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToRecordView(r))
	}
	return out
}

// ToPredictResponse builds the predict reply from the appended record.
func ToPredictResponse(r model.DiagnosisRecord) PredictResponse {
	return PredictResponse{Prediction: ToPredictionView(r.Prediction), RecordID: r.ID.String()}
}

// ToCategoriesResponse converts categories to their wire names.
func ToCategoriesResponse(cs []model.Category) CategoriesResponse {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, string(c))
	}
	return CategoriesResponse{Categories: out}
}
