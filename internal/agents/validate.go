package agents

import (
	"context"
	"fmt"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// ValidateAgent is the authoritative checkpoint before presentation and
// feed publishing: it confirms the normalized shot is internally
// consistent. Its verdict feeds the pipeline's validation gate.
type ValidateAgent struct{}

// NewValidateAgent creates a ValidateAgent.
func NewValidateAgent() *ValidateAgent { return &ValidateAgent{} }

// Name implements Agent.
func (a *ValidateAgent) Name() string { return "validate" }

// HealthCheck implements Agent.
func (a *ValidateAgent) HealthCheck(_ context.Context) error { return nil }

// Validate runs consistency checks over the frozen shot. Range errors
// collected during normalization fail validation outright; cross-field
// checks add flags with remediation suggestions.
func (a *ValidateAgent) Validate(_ context.Context, shot domain.NormalizedShot) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{
		IsValid:    true,
		Confidence: 0.9,
	}

	if len(shot.ValidationErrors) > 0 {
		result.IsValid = false
		result.Flags = append(result.Flags, shot.ValidationErrors...)
		result.Suggestions = append(result.Suggestions,
			"re-enter the out-of-range readings or re-upload the source data")
	}

	// Cross-field plausibility: a short shot with tour ball speed (or the
	// reverse) usually means a mislabeled upload.
	if shot.Speed != nil && shot.Distance != nil {
		if *shot.Speed > 150 && *shot.Distance < 80 {
			result.IsValid = false
			result.Flags = append(result.Flags, fmt.Sprintf(
				"ball speed %.0f mph is inconsistent with distance %.0f yards",
				*shot.Speed, *shot.Distance))
			result.Suggestions = append(result.Suggestions,
				"check whether the distance reading is carry-only or mislabeled")
		}
		if *shot.Speed < 40 && *shot.Distance > 250 {
			result.IsValid = false
			result.Flags = append(result.Flags, fmt.Sprintf(
				"distance %.0f yards is implausible at ball speed %.0f mph",
				*shot.Distance, *shot.Speed))
			result.Suggestions = append(result.Suggestions,
				"verify the units of the speed reading")
		}
	}

	if shot.Confidence < 0.3 {
		// Low extraction confidence is a flag, not a rejection.
		result.Flags = append(result.Flags,
			"extraction confidence is low; values may be inaccurate")
		result.Confidence = 0.5
	}

	return result, nil
}
