package agents

import (
	"context"
	"fmt"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// Recommendation limits per device class: mobile screens get fewer items.
const (
	mobileRecommendationLimit  = 2
	desktopRecommendationLimit = 5
)

// MetricView is one metric selected for display.
type MetricView struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Presentation is the user-tailored response shape assembled from the
// analysis results.
type Presentation struct {
	Headline        string             `json:"headline"`
	Metrics         []MetricView       `json:"metrics"`
	Emphasis        string             `json:"emphasis"`
	Recommendations []string           `json:"recommendations,omitempty"`
	SkillLevel      domain.SkillLevel  `json:"skill_level"`
	Device          domain.DeviceClass `json:"device"`
}

// PresentAgent adapts analysis results to the user's experience profile and
// device class. It is a total, pure transformation: no external calls, no
// failure path.
type PresentAgent struct{}

// NewPresentAgent creates a PresentAgent.
func NewPresentAgent() *PresentAgent { return &PresentAgent{} }

// Name implements Agent.
func (a *PresentAgent) Name() string { return "adapt-presentation" }

// HealthCheck implements Agent.
func (a *PresentAgent) HealthCheck(_ context.Context) error { return nil }

// Present assembles the tailored response. Nil analysis results are
// tolerated; the presentation simply omits their sections.
func (a *PresentAgent) Present(
	shot domain.NormalizedShot,
	scoring *domain.ScoringResult,
	bag *domain.BagAnalysisResult,
	validation *domain.ValidationResult,
	user *domain.User,
	reqCtx *domain.RequestContext,
) *Presentation {
	skill := domain.SkillLevelBeginner
	if user != nil {
		skill = user.EffectiveSkillLevel()
	}
	device := domain.DeviceClassDesktop
	if reqCtx != nil {
		device = reqCtx.EffectiveDevice()
	}

	p := &Presentation{
		SkillLevel: skill,
		Device:     device,
		Headline:   headline(shot, scoring),
		Metrics:    selectMetrics(shot, skill, device),
		Emphasis:   emphasis(skill),
	}

	limit := desktopRecommendationLimit
	if device == domain.DeviceClassMobile {
		limit = mobileRecommendationLimit
	}
	p.Recommendations = collectRecommendations(scoring, bag, validation, limit)

	return p
}

func headline(shot domain.NormalizedShot, scoring *domain.ScoringResult) string {
	club := shot.Club
	if club == "" {
		club = "shot"
	}
	if scoring == nil || scoring.Total == 0 {
		return fmt.Sprintf("Your %s analysis is ready", club)
	}
	return fmt.Sprintf("Your %s scored %.0f (%s)", club, scoring.Total, scoring.Grade)
}

// selectMetrics picks which numbers to surface. Beginners see the
// intuitive pair; intermediates add spin and launch; advanced golfers on
// desktop see everything including derived metrics. Mobile trims the list.
func selectMetrics(shot domain.NormalizedShot, skill domain.SkillLevel, device domain.DeviceClass) []MetricView {
	var metrics []MetricView

	appendMetric := func(label string, value *float64, format string) {
		if value != nil {
			metrics = append(metrics, MetricView{Label: label, Value: fmt.Sprintf(format, *value)})
		}
	}

	appendMetric("Distance", shot.Distance, "%.0f yd")
	appendMetric("Ball speed", shot.Speed, "%.0f mph")

	if skill != domain.SkillLevelBeginner {
		appendMetric("Spin", shot.Spin, "%.0f rpm")
		appendMetric("Launch", shot.LaunchAngle, "%.1f°")
	}

	if skill == domain.SkillLevelAdvanced && device == domain.DeviceClassDesktop {
		appendMetric("Carry", shot.Derived.Carry, "%.0f yd")
		appendMetric("Peak height", shot.Derived.PeakHeight, "%.0f ft")
		appendMetric("Descent", shot.Derived.DescentAngle, "%.1f°")
		appendMetric("Smash factor", shot.Derived.SmashFactor, "%.2f")
	}

	if device == domain.DeviceClassMobile && len(metrics) > 4 {
		metrics = metrics[:4]
	}

	return metrics
}

func emphasis(skill domain.SkillLevel) string {
	switch skill {
	case domain.SkillLevelAdvanced:
		return "numbers"
	case domain.SkillLevelIntermediate:
		return "trends"
	default:
		return "encouragement"
	}
}

func collectRecommendations(
	scoring *domain.ScoringResult,
	bag *domain.BagAnalysisResult,
	validation *domain.ValidationResult,
	limit int,
) []string {
	var recs []string
	if scoring != nil {
		recs = append(recs, scoring.Tips...)
	}
	if bag != nil {
		recs = append(recs, bag.Recommendations...)
	}
	if validation != nil {
		recs = append(recs, validation.Suggestions...)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
