package agents

import (
	"context"
	"fmt"
	"math"

	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/google/uuid"
)

// carryFraction approximates carry as a fixed share of total distance when
// the monitor reports only total.
const carryFraction = 0.92

// typicalClubSpeeds holds representative clubhead speeds (mph) used to
// derive smash factor when the monitor does not report club speed.
var typicalClubSpeeds = map[string]float64{
	"driver":         105,
	"3-wood":         100,
	"5-wood":         97,
	"hybrid":         95,
	"3-iron":         93,
	"4-iron":         91,
	"5-iron":         89,
	"6-iron":         87,
	"7-iron":         85,
	"8-iron":         83,
	"9-iron":         81,
	"pitching-wedge": 79,
	"gap-wedge":      76,
	"sand-wedge":     74,
	"lob-wedge":      72,
}

// NormalizeAgent deterministically maps a Transcript to a NormalizedShot.
// It is a pure transformation: same transcript in, identical shot out, no
// external calls, no failure path. The coordinator stamps the shot's ID and
// timestamp after normalization, keeping this stage idempotent.
type NormalizeAgent struct{}

// NewNormalizeAgent creates a NormalizeAgent.
func NewNormalizeAgent() *NormalizeAgent { return &NormalizeAgent{} }

// Name implements Agent.
func (a *NormalizeAgent) Name() string { return "normalize" }

// HealthCheck implements Agent; a pure transformation is always healthy.
func (a *NormalizeAgent) HealthCheck(_ context.Context) error { return nil }

// Normalize converts the transcript into the canonical shot record:
// range checking (out-of-range inputs become nil, never silently clamped),
// canonical club resolution, derived metrics, and a validation pass that
// collects error strings without halting.
func (a *NormalizeAgent) Normalize(transcript *domain.Transcript, userID uuid.UUID) domain.NormalizedShot {
	shot := domain.NormalizedShot{
		UserID:     userID,
		Club:       domain.CanonicalClub(transcript.ClubLabel),
		Confidence: transcript.Confidence,
		Source:     transcript.Source,
	}

	var errs []string
	shot.Speed = rangeChecked(transcript.Speed, domain.MinBallSpeed, domain.MaxBallSpeed, "speed", "mph", &errs)
	shot.Distance = rangeChecked(transcript.Distance, domain.MinDistance, domain.MaxDistance, "distance", "yards", &errs)
	shot.Spin = rangeChecked(transcript.Spin, domain.MinSpin, domain.MaxSpin, "spin", "rpm", &errs)
	shot.LaunchAngle = rangeChecked(transcript.LaunchAngle, domain.MinLaunchAngle, domain.MaxLaunchAngle, "launch angle", "degrees", &errs)

	if shot.Speed == nil && shot.Distance == nil {
		errs = append(errs, "no usable speed or distance reading")
	}

	shot.Derived = deriveMetrics(&shot)
	shot.ValidationErrors = errs
	shot.IsValid = len(errs) == 0

	return shot
}

// rangeChecked returns the value when it falls inside [min, max], nil
// otherwise. Out-of-range values append a human-readable error.
func rangeChecked(value *float64, min, max float64, field, unit string, errs *[]string) *float64 {
	if value == nil {
		return nil
	}
	if *value < min || *value > max {
		*errs = append(*errs, fmt.Sprintf(
			"%s %.1f %s is outside the plausible range [%.0f, %.0f]",
			field, *value, unit, min, max))
		return nil
	}
	v := *value
	return &v
}

// deriveMetrics computes carry, roll, peak height, descent angle, and smash
// factor from whichever primary fields survived range checking.
func deriveMetrics(shot *domain.NormalizedShot) domain.DerivedMetrics {
	var derived domain.DerivedMetrics

	if shot.Distance != nil {
		carry := math.Round(*shot.Distance*carryFraction*10) / 10
		roll := math.Round((*shot.Distance-carry)*10) / 10
		derived.Carry = &carry
		derived.Roll = &roll
	}

	if shot.Speed != nil && shot.LaunchAngle != nil && *shot.LaunchAngle > 0 {
		// Projectile approximation, feet; good enough for presentation.
		radians := *shot.LaunchAngle * math.Pi / 180
		fps := *shot.Speed * 1.467
		peak := math.Round((fps*math.Sin(radians))*(fps*math.Sin(radians))/(2*32.17)*10) / 10
		derived.PeakHeight = &peak

		descent := math.Round(*shot.LaunchAngle*1.5*10) / 10
		derived.DescentAngle = &descent
	}

	if shot.Speed != nil && shot.Club != "" {
		if clubSpeed, ok := typicalClubSpeeds[shot.Club]; ok {
			smash := math.Round(*shot.Speed/clubSpeed*100) / 100
			derived.SmashFactor = &smash
		}
	}

	return derived
}
