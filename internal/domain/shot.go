package domain

import (
	"time"

	"github.com/google/uuid"
)

// Physically plausible ranges for normalized metrics. Values outside these
// bounds become nil rather than silently clamped data.
const (
	MinBallSpeed   = 10.0
	MaxBallSpeed   = 250.0
	MinDistance    = 5.0
	MaxDistance    = 450.0
	MinSpin        = 0.0
	MaxSpin        = 8000.0
	MinLaunchAngle = -5.0
	MaxLaunchAngle = 50.0
)

// DerivedMetrics are computed from the primary fields during normalization.
// A metric is nil when its inputs were missing.
type DerivedMetrics struct {
	Carry        *float64 `json:"carry,omitempty"`         // yards
	Roll         *float64 `json:"roll,omitempty"`          // yards
	PeakHeight   *float64 `json:"peak_height,omitempty"`   // feet
	DescentAngle *float64 `json:"descent_angle,omitempty"` // degrees
	SmashFactor  *float64 `json:"smash_factor,omitempty"`
}

// Conditions capture the environment the shot was hit in.
type Conditions struct {
	Temperature *float64 `json:"temperature,omitempty"` // fahrenheit
	WindSpeed   *float64 `json:"wind_speed,omitempty"`  // mph
	Altitude    *float64 `json:"altitude,omitempty"`    // feet
}

// NormalizedShot is the canonical shot record produced by the normalize
// stage. It is frozen before the analysis fan-out: the three concurrent
// analysis workers receive it read-only and must never mutate it.
type NormalizedShot struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Club        string    `json:"club,omitempty"` // canonical identifier, e.g. "7-iron"
	Speed       *float64  `json:"speed,omitempty"`
	Distance    *float64  `json:"distance,omitempty"`
	Spin        *float64  `json:"spin,omitempty"`
	LaunchAngle *float64  `json:"launch_angle,omitempty"`

	Derived    DerivedMetrics `json:"derived"`
	Conditions Conditions     `json:"conditions"`

	// Validation metadata collected during normalization. Errors are
	// human-readable and never halt the stage.
	ValidationErrors []string `json:"validation_errors,omitempty"`
	IsValid          bool     `json:"is_valid"`

	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoringResult is the output of the score worker.
type ScoringResult struct {
	Total      float64            `json:"total"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"`
	Grade      string             `json:"grade,omitempty"`
	Tips       []string           `json:"tips,omitempty"`
	Confidence float64            `json:"confidence"`
}

// DefaultScoringResult is the documented fallback substituted when the score
// worker fails: zero score, low confidence.
func DefaultScoringResult() *ScoringResult {
	return &ScoringResult{Total: 0, Confidence: 0.1}
}

// ClubGap describes a distance gap between adjacent clubs in the bag.
type ClubGap struct {
	FromClub string  `json:"from_club"`
	ToClub   string  `json:"to_club"`
	GapYards float64 `json:"gap_yards"`
}

// BagAnalysisResult is the output of the equipment-comparison worker.
type BagAnalysisResult struct {
	ClubAverages    map[string]float64 `json:"club_averages,omitempty"`
	Gaps            []ClubGap          `json:"gaps,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	Confidence      float64            `json:"confidence"`
}

// DefaultBagAnalysisResult is the documented fallback substituted when the
// equipment-comparison worker fails: empty comparison, low confidence.
func DefaultBagAnalysisResult() *BagAnalysisResult {
	return &BagAnalysisResult{Confidence: 0.1}
}

// ValidationResult is the output of the validate worker and the single
// authoritative input to the pipeline's validation gate.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Flags       []string `json:"flags,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// DefaultValidationResult is the fail-open fallback substituted when the
// validate worker fails: blocking a user's shot on an infrastructure fault
// is worse than a false accept.
func DefaultValidationResult() *ValidationResult {
	return &ValidationResult{IsValid: true, Confidence: 0.1}
}
