package agents

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/generation"
)

// visionPrompt instructs the inference service to read launch-monitor
// numbers off a photo. The response is parsed tolerantly; any shape the
// model produces is acceptable.
const visionPrompt = `You are reading a golf launch monitor screen or scorecard photo.
Extract any of the following you can see, one per line, as "field: value":
ball speed (mph), total distance (yards), spin (rpm), launch angle (degrees), club.
If a field is not visible, omit its line.`

// transcriptConfidence levels by extraction path.
const (
	telemetryTranscriptConfidence = 0.95
	visionTranscriptConfidence    = 0.75
)

// TranscribeAgent turns an IngestResult into a Transcript. Simulator
// telemetry passes through with light annotations; images go through the
// external vision service; everything else falls back to the explicit
// low-confidence unavailable transcript. The stage never fails.
type TranscribeAgent struct {
	inferencer generation.Inferencer
	logger     *slog.Logger
}

// NewTranscribeAgent creates a TranscribeAgent over the given inference
// service.
func NewTranscribeAgent(inferencer generation.Inferencer, logger *slog.Logger) *TranscribeAgent {
	return &TranscribeAgent{
		inferencer: inferencer,
		logger:     logger.With("component", "transcribe_agent"),
	}
}

// Name implements Agent.
func (a *TranscribeAgent) Name() string { return "transcribe" }

// HealthCheck implements Agent. The agent is degraded without an inference
// service: simulator uploads still work, image uploads fall back.
func (a *TranscribeAgent) HealthCheck(_ context.Context) error {
	if a.inferencer == nil {
		return fmt.Errorf("%w: no inference service configured", ErrDegraded)
	}
	return nil
}

// Transcribe extracts transcript fields from the ingest result. It always
// returns a usable transcript; failures surface as the low-confidence
// unavailable transcript, never as an error.
func (a *TranscribeAgent) Transcribe(ctx context.Context, ingested *IngestResult) *domain.Transcript {
	switch ingested.Kind {
	case domain.MediaKindSimulator:
		return a.fromTelemetry(ingested)
	case domain.MediaKindImage:
		return a.fromImage(ctx, ingested)
	default:
		// Voice clips and unknown blobs have no extraction path yet.
		return domain.UnavailableTranscript(string(ingested.Kind))
	}
}

// fromTelemetry passes simulator numbers through and annotates them with
// pure-function insights.
func (a *TranscribeAgent) fromTelemetry(ingested *IngestResult) *domain.Transcript {
	telemetry := ingested.Telemetry
	if telemetry == nil {
		return domain.UnavailableTranscript("simulator")
	}

	confidence := telemetryTranscriptConfidence
	if ingested.NeedsManualReview {
		confidence = ingested.Confidence
	}

	transcript := &domain.Transcript{
		Speed:             telemetry.BallSpeed,
		Distance:          telemetry.TotalDistance,
		Spin:              telemetry.Spin,
		LaunchAngle:       telemetry.LaunchAngle,
		ClubLabel:         telemetry.Club,
		Confidence:        confidence,
		Source:            telemetry.Vendor,
		NeedsManualReview: ingested.NeedsManualReview,
	}
	transcript.Insights = annotateTelemetry(telemetry)
	return transcript
}

// annotateTelemetry derives ball-flight classification, a club suggestion,
// and improvement tips from the numeric fields alone.
func annotateTelemetry(t *SimulatorTelemetry) []string {
	var insights []string

	if t.LaunchAngle != nil && t.Spin != nil {
		switch {
		case *t.LaunchAngle < 10 && *t.Spin < 3000:
			insights = append(insights, "ball flight: penetrating low launch")
		case *t.LaunchAngle > 20 && *t.Spin > 6000:
			insights = append(insights, "ball flight: high spinning, likely ballooning")
		default:
			insights = append(insights, "ball flight: mid trajectory")
		}
	}

	if t.Club == "" && t.TotalDistance != nil {
		insights = append(insights, fmt.Sprintf("club suggestion: %s", suggestClub(*t.TotalDistance)))
	}

	if t.Spin != nil && *t.Spin > 7000 {
		insights = append(insights, "tip: excessive spin costs distance; check strike location")
	}
	if t.LaunchAngle != nil && *t.LaunchAngle < 5 {
		insights = append(insights, "tip: launch is very low; consider moving ball forward in stance")
	}

	return insights
}

// suggestClub maps a total distance to the club most golfers hit that far.
func suggestClub(distance float64) string {
	switch {
	case distance >= 230:
		return "driver"
	case distance >= 200:
		return "3-wood"
	case distance >= 180:
		return "hybrid"
	case distance >= 165:
		return "5-iron"
	case distance >= 150:
		return "7-iron"
	case distance >= 130:
		return "9-iron"
	case distance >= 100:
		return "pitching-wedge"
	default:
		return "sand-wedge"
	}
}

// fromImage calls the vision service and parses its free-text response.
// Inference failures of any kind fall back to the unavailable transcript.
func (a *TranscribeAgent) fromImage(ctx context.Context, ingested *IngestResult) *domain.Transcript {
	if a.inferencer == nil {
		return domain.UnavailableTranscript("image")
	}

	text, err := a.inferencer.Infer(ctx, visionPrompt, ingested.Image, ingested.ImageMIME)
	if err != nil {
		a.logger.WarnContext(ctx, "vision inference failed, falling back",
			"error", err)
		return domain.UnavailableTranscript("image")
	}

	transcript := parseVisionResponse(text)
	transcript.Source = "image"
	return transcript
}

// Field patterns for tolerant extraction from model free text. Values may
// carry units ("142 mph", "155yd") or not.
var (
	speedPattern    = regexp.MustCompile(`(?i)(?:ball\s*)?speed[^0-9-]*(-?\d+(?:\.\d+)?)`)
	distancePattern = regexp.MustCompile(`(?i)(?:total\s*)?distance[^0-9-]*(-?\d+(?:\.\d+)?)`)
	spinPattern     = regexp.MustCompile(`(?i)spin(?:\s*rate)?[^0-9-]*(-?\d+(?:\.\d+)?)`)
	launchPattern   = regexp.MustCompile(`(?i)launch(?:\s*angle)?[^0-9-]*(-?\d+(?:\.\d+)?)`)
	clubPattern     = regexp.MustCompile(`(?i)club[^:]*:\s*([A-Za-z0-9 -]+)`)
)

// parseVisionResponse pulls transcript fields out of the model's free-text
// answer. It must not fail on any input: fields it cannot find stay nil,
// and a response with no recognizable fields yields the unavailable
// transcript.
func parseVisionResponse(text string) *domain.Transcript {
	transcript := &domain.Transcript{Confidence: visionTranscriptConfidence}

	found := false
	if v, ok := firstNumber(speedPattern, text); ok {
		transcript.Speed = &v
		found = true
	}
	if v, ok := firstNumber(distancePattern, text); ok {
		transcript.Distance = &v
		found = true
	}
	if v, ok := firstNumber(spinPattern, text); ok {
		transcript.Spin = &v
		found = true
	}
	if v, ok := firstNumber(launchPattern, text); ok {
		transcript.LaunchAngle = &v
		found = true
	}
	if m := clubPattern.FindStringSubmatch(text); m != nil {
		transcript.ClubLabel = strings.TrimSpace(m[1])
		found = true
	}

	if !found {
		return domain.UnavailableTranscript("image")
	}
	return transcript
}

func firstNumber(pattern *regexp.Regexp, text string) (float64, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
