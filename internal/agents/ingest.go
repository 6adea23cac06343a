package agents

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// Confidence levels assigned by ingest based on how the payload was
// recognized.
const (
	vendorParseConfidence  = 0.9
	genericParseConfidence = 0.5
	unknownBlobConfidence  = 0.2
)

// IngestResult is the ingest stage's classification of a payload. Exactly
// one of Telemetry / Image / Audio is populated for recognized payloads;
// none for unknown blobs.
type IngestResult struct {
	Kind              domain.MediaKind
	Vendor            string
	Telemetry         *SimulatorTelemetry
	Image             []byte
	ImageMIME         string
	Audio             []byte
	AudioMIME         string
	Confidence        float64
	NeedsManualReview bool
}

// IngestAgent format-sniffs uploads and routes them to a vendor parser or
// the generic fallback. It never fails: unrecognized input produces a
// low-confidence result flagged for manual review.
type IngestAgent struct {
	bridge *SimulatorBridge
	logger *slog.Logger
}

// NewIngestAgent creates an IngestAgent over the given simulator bridge.
func NewIngestAgent(bridge *SimulatorBridge, logger *slog.Logger) *IngestAgent {
	return &IngestAgent{
		bridge: bridge,
		logger: logger.With("component", "ingest_agent"),
	}
}

// Name implements Agent.
func (a *IngestAgent) Name() string { return "ingest" }

// HealthCheck implements Agent, delegating to the simulator bridge.
func (a *IngestAgent) HealthCheck(ctx context.Context) error {
	return a.bridge.HealthCheck(ctx)
}

// Ingest classifies the payload. It always returns a result, never an
// error: the worst case is an unknown blob with lowered confidence and the
// manual-review flag set.
func (a *IngestAgent) Ingest(ctx context.Context, payload *domain.MediaPayload) *IngestResult {
	switch {
	case isImage(payload):
		return &IngestResult{
			Kind:       domain.MediaKindImage,
			Image:      payload.Content,
			ImageMIME:  imageMIME(payload),
			Confidence: payload.Confidence,
		}

	case isAudio(payload):
		return &IngestResult{
			Kind:       domain.MediaKindVoice,
			Audio:      payload.Content,
			AudioMIME:  payload.MIMEType,
			Confidence: payload.Confidence,
		}
	}

	// Everything else is treated as potential simulator output.
	adapter, vendorMatched := a.bridge.Resolve(payload)
	telemetry, err := adapter.Parse(payload.Content)
	if err != nil {
		a.logger.DebugContext(ctx, "payload did not parse as simulator output",
			"payload_id", payload.ID,
			"adapter", adapter.Vendor(),
			"error", err)
		return &IngestResult{
			Kind:              domain.MediaKindUnknown,
			Confidence:        unknownBlobConfidence,
			NeedsManualReview: true,
		}
	}

	confidence := genericParseConfidence
	if vendorMatched {
		confidence = vendorParseConfidence
	}

	return &IngestResult{
		Kind:              domain.MediaKindSimulator,
		Vendor:            adapter.Vendor(),
		Telemetry:         telemetry,
		Confidence:        confidence,
		NeedsManualReview: !vendorMatched,
	}
}

// jpegMagic and pngMagic are the file signatures sniffed when the caller
// did not supply a MIME type.
var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
)

func isImage(payload *domain.MediaPayload) bool {
	if strings.HasPrefix(payload.MIMEType, "image/") {
		return true
	}
	return bytes.HasPrefix(payload.Content, jpegMagic) || bytes.HasPrefix(payload.Content, pngMagic)
}

func imageMIME(payload *domain.MediaPayload) string {
	if payload.MIMEType != "" {
		return payload.MIMEType
	}
	if bytes.HasPrefix(payload.Content, pngMagic) {
		return "image/png"
	}
	return "image/jpeg"
}

func isAudio(payload *domain.MediaPayload) bool {
	return strings.HasPrefix(payload.MIMEType, "audio/") || payload.Kind == domain.MediaKindVoice
}
