package agents

import (
	"context"
	"fmt"
	"sort"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// gapThresholdYards is the spacing between adjacent clubs above which the
// bag has a coverage hole worth flagging.
const gapThresholdYards = 25

// BagAgent compares a shot against the user's recent history to analyze
// equipment coverage: per-club distance averages and gaps between adjacent
// clubs. It reads the frozen shot and the user's history, never mutating
// either.
type BagAgent struct{}

// NewBagAgent creates a BagAgent.
func NewBagAgent() *BagAgent { return &BagAgent{} }

// Name implements Agent.
func (a *BagAgent) Name() string { return "compare-equipment" }

// HealthCheck implements Agent.
func (a *BagAgent) HealthCheck(_ context.Context) error { return nil }

// Compare analyzes the shot in the context of the user's recent shots.
func (a *BagAgent) Compare(_ context.Context, shot domain.NormalizedShot, user *domain.User) (*domain.BagAnalysisResult, error) {
	shots := make([]domain.NormalizedShot, 0, 1)
	if user != nil {
		shots = append(shots, user.RecentShots...)
	}
	shots = append(shots, shot)

	return a.Aggregate(shots), nil
}

// Aggregate runs one equipment-comparison pass over a set of shots. Used
// directly by the batch pipeline after all items are processed.
func (a *BagAgent) Aggregate(shots []domain.NormalizedShot) *domain.BagAnalysisResult {
	totals := make(map[string]float64)
	counts := make(map[string]int)

	for _, s := range shots {
		if s.Club == "" || s.Distance == nil {
			continue
		}
		totals[s.Club] += *s.Distance
		counts[s.Club]++
	}

	if len(counts) == 0 {
		return &domain.BagAnalysisResult{Confidence: 0.3}
	}

	averages := make(map[string]float64, len(counts))
	for club, total := range totals {
		averages[club] = float64(int(total/float64(counts[club])*10)) / 10
	}

	gaps := findGaps(averages)

	result := &domain.BagAnalysisResult{
		ClubAverages: averages,
		Gaps:         gaps,
		Confidence:   confidenceFromSampleSize(len(shots)),
	}
	for _, gap := range gaps {
		result.Recommendations = append(result.Recommendations, fmt.Sprintf(
			"%.0f yard gap between %s and %s; consider a club that covers it",
			gap.GapYards, gap.FromClub, gap.ToClub))
	}
	return result
}

// findGaps sorts clubs by average distance and flags adjacent pairs spaced
// wider than the threshold.
func findGaps(averages map[string]float64) []domain.ClubGap {
	type clubAvg struct {
		club string
		avg  float64
	}

	ordered := make([]clubAvg, 0, len(averages))
	for club, avg := range averages {
		ordered = append(ordered, clubAvg{club: club, avg: avg})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].avg > ordered[j].avg })

	var gaps []domain.ClubGap
	for i := 1; i < len(ordered); i++ {
		spacing := ordered[i-1].avg - ordered[i].avg
		if spacing > gapThresholdYards {
			gaps = append(gaps, domain.ClubGap{
				FromClub: ordered[i].club,
				ToClub:   ordered[i-1].club,
				GapYards: spacing,
			})
		}
	}
	return gaps
}

// confidenceFromSampleSize grows confidence with more observed shots,
// capped below certainty.
func confidenceFromSampleSize(n int) float64 {
	switch {
	case n >= 20:
		return 0.9
	case n >= 10:
		return 0.75
	case n >= 5:
		return 0.6
	case n >= 2:
		return 0.45
	default:
		return 0.3
	}
}
