// Package risk maps questionnaire answers to a risk prediction.
//
// The production RandomAssessor is a placeholder model: it honours the output
// contract (three risk levels, confidence within [MinConfidence, MaxConfidence],
// canned recommendations per level, canned referrals per category) and nothing
// more. Any real model implementing Assessor can replace it.
package risk

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/and161185/health-keeper/internal/model"
)

// Confidence bounds, inclusive.
const (
	MinConfidence = 80
	MaxConfidence = 99
)

// Assessor produces a prediction for a category and its answers.
type Assessor interface {
	Assess(category model.Category, answers model.Answers) (model.Prediction, error)
}

var levels = []model.RiskLevel{model.RiskLow, model.RiskModerate, model.RiskHigh}

var recommendations = map[model.RiskLevel][]string{
	model.RiskLow: {
		"Maintain a balanced diet and regular physical activity.",
		"Keep up with routine annual check-ups.",
		"Stay hydrated and get enough sleep.",
	},
	model.RiskModerate: {
		"Schedule a consultation with your general practitioner.",
		"Monitor your symptoms and keep a daily log.",
		"Reduce alcohol, salt and processed food intake.",
		"Repeat this assessment in one month.",
	},
	model.RiskHigh: {
		"Seek medical attention promptly.",
		"Book an appointment with a specialist as soon as possible.",
		"Avoid strenuous activity until you have been examined.",
		"Bring this assessment and your recent test results to the appointment.",
	},
}

var referrals = map[model.Category][]model.Referral{
	model.CategoryCardiovascular: {
		{Specialty: "Cardiology", Name: "Cardiologist"},
		{Specialty: "Vascular medicine", Name: "Vascular specialist"},
	},
	model.CategoryHepatic: {
		{Specialty: "Hepatology", Name: "Hepatologist"},
		{Specialty: "Gastroenterology", Name: "Gastroenterologist"},
	},
	model.CategoryRenal: {
		{Specialty: "Nephrology", Name: "Nephrologist"},
		{Specialty: "Urology", Name: "Urologist"},
	},
	model.CategoryMetabolic: {
		{Specialty: "Endocrinology", Name: "Endocrinologist"},
		{Specialty: "Dietetics", Name: "Clinical dietitian"},
	},
}

// Recommendations returns the canned list for level (a copy).
func Recommendations(level model.RiskLevel) []string {
	return slices.Clone(recommendations[level])
}

// Referrals returns the canned specialists for category (a copy), empty if unknown.
func Referrals(category model.Category) []model.Referral {
	return slices.Clone(referrals[category])
}

// RandomAssessor selects risk and confidence uniformly at random.
type RandomAssessor struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewRandomAssessor constructs an assessor. A nil rnd uses a randomly seeded PCG source;
// a nil now uses time.Now.
func NewRandomAssessor(rnd *rand.Rand, now func() time.Time) *RandomAssessor {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &RandomAssessor{rnd: rnd, now: now}
}

// Assess implements Assessor. Answers are not inspected.
func (a *RandomAssessor) Assess(category model.Category, _ model.Answers) (model.Prediction, error) {
	if _, err := model.ParseCategory(string(category)); err != nil {
		return model.Prediction{}, err
	}

	// *rand.Rand is not safe for concurrent use
	a.mu.Lock()
	level := levels[a.rnd.IntN(len(levels))]
	confidence := MinConfidence + a.rnd.IntN(MaxConfidence-MinConfidence+1)
	a.mu.Unlock()

	return model.Prediction{
		Risk:            level,
		Confidence:      confidence,
		Recommendations: Recommendations(level),
		Referrals:       Referrals(category),
		ComputedAt:      a.now().UTC(),
	}, nil
}
