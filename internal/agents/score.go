package agents

import (
	"context"
	"errors"
	"math"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// Scoring weights. The exact values are fixed business constants; the
// pipeline only cares that scoring is deterministic for a frozen shot.
const (
	speedWeight    = 0.30
	distanceWeight = 0.35
	spinWeight     = 0.15
	launchWeight   = 0.20
)

// ErrInsufficientData is returned when a shot carries none of the metrics
// scoring needs. The coordinator substitutes the documented default.
var ErrInsufficientData = errors.New("shot has no scorable metrics")

// ScoreAgent grades a frozen NormalizedShot against expectations for the
// club and the user's handicap. It reads the shot, never mutates it, and
// returns a fresh result.
type ScoreAgent struct{}

// NewScoreAgent creates a ScoreAgent.
func NewScoreAgent() *ScoreAgent { return &ScoreAgent{} }

// Name implements Agent.
func (a *ScoreAgent) Name() string { return "score" }

// HealthCheck implements Agent.
func (a *ScoreAgent) HealthCheck(_ context.Context) error { return nil }

// Score computes the shot's total score and per-metric breakdown.
func (a *ScoreAgent) Score(_ context.Context, shot domain.NormalizedShot, user *domain.User) (*domain.ScoringResult, error) {
	if shot.Speed == nil && shot.Distance == nil && shot.Spin == nil && shot.LaunchAngle == nil {
		return nil, ErrInsufficientData
	}

	breakdown := make(map[string]float64)
	var total, weightUsed float64

	if shot.Speed != nil {
		s := metricScore(*shot.Speed, 60, 180)
		breakdown["speed"] = s
		total += s * speedWeight
		weightUsed += speedWeight
	}
	if shot.Distance != nil {
		s := metricScore(*shot.Distance, 50, expectedDistance(shot.Club))
		breakdown["distance"] = s
		total += s * distanceWeight
		weightUsed += distanceWeight
	}
	if shot.Spin != nil {
		s := spinScore(*shot.Spin, shot.Club)
		breakdown["spin"] = s
		total += s * spinWeight
		weightUsed += spinWeight
	}
	if shot.LaunchAngle != nil {
		s := launchScore(*shot.LaunchAngle)
		breakdown["launch"] = s
		total += s * launchWeight
		weightUsed += launchWeight
	}

	// Rescale so missing metrics don't drag the total down.
	total = total / weightUsed

	// Handicap adjustment: the same swing scores better for a 25 than a
	// scratch golfer, capped at +10.
	if user != nil && user.Handicap > 0 {
		total += math.Min(user.Handicap*0.4, 10)
	}
	total = math.Min(math.Round(total*10)/10, 100)

	result := &domain.ScoringResult{
		Total:      total,
		Breakdown:  breakdown,
		Grade:      grade(total),
		Tips:       scoringTips(breakdown),
		Confidence: shot.Confidence,
	}
	return result, nil
}

// metricScore maps value linearly onto [0,100] between floor and ceiling.
func metricScore(value, floor, ceiling float64) float64 {
	if ceiling <= floor {
		return 0
	}
	s := (value - floor) / (ceiling - floor) * 100
	return math.Max(0, math.Min(100, math.Round(s*10)/10))
}

// expectedDistance returns the ceiling distance for the club, defaulting
// to a mid-iron when the club is unknown.
func expectedDistance(club string) float64 {
	expectations := map[string]float64{
		"driver":         280,
		"3-wood":         240,
		"5-wood":         220,
		"hybrid":         210,
		"5-iron":         190,
		"6-iron":         180,
		"7-iron":         170,
		"8-iron":         155,
		"9-iron":         140,
		"pitching-wedge": 125,
		"sand-wedge":     95,
	}
	if d, ok := expectations[club]; ok {
		return d
	}
	return 170
}

// spinScore rewards spin near the club's ideal window.
func spinScore(spin float64, club string) float64 {
	ideal := 6500.0
	switch club {
	case "driver":
		ideal = 2500
	case "3-wood", "5-wood", "hybrid":
		ideal = 3500
	}
	deviation := math.Abs(spin-ideal) / ideal
	return math.Max(0, math.Round((1-deviation)*100*10)/10)
}

// launchScore rewards launch in the all-purpose 12-18 degree window.
func launchScore(launch float64) float64 {
	switch {
	case launch >= 12 && launch <= 18:
		return 100
	case launch >= 8 && launch < 12, launch > 18 && launch <= 25:
		return 75
	case launch >= 4 && launch < 8, launch > 25 && launch <= 35:
		return 50
	default:
		return 25
	}
}

func grade(total float64) string {
	switch {
	case total >= 90:
		return "A"
	case total >= 80:
		return "B"
	case total >= 65:
		return "C"
	case total >= 50:
		return "D"
	default:
		return "F"
	}
}

func scoringTips(breakdown map[string]float64) []string {
	var tips []string
	if s, ok := breakdown["spin"]; ok && s < 50 {
		tips = append(tips, "spin is well outside the ideal window for this club")
	}
	if s, ok := breakdown["launch"]; ok && s < 50 {
		tips = append(tips, "work on launch angle; 12-18 degrees carries best")
	}
	if s, ok := breakdown["distance"]; ok && s < 40 {
		tips = append(tips, "distance is short of expectations for this club")
	}
	return tips
}
