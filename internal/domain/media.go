package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MediaKind identifies the shape of an uploaded payload.
type MediaKind string

// Possible media kinds
const (
	MediaKindSimulator MediaKind = "simulator_reading"
	MediaKindImage     MediaKind = "image"
	MediaKindVoice     MediaKind = "voice_clip"
	MediaKindUnknown   MediaKind = "unknown_blob"
)

// Common validation errors for MediaPayload
var (
	ErrEmptyMediaID      = errors.New("media payload ID cannot be empty")
	ErrEmptyMediaContent = errors.New("media payload content cannot be empty")
	ErrInvalidConfidence = errors.New("confidence must be within [0,1]")
)

// MediaPayload is the raw upload handed to the pipeline. It is produced by
// the caller, consumed once by the ingest stage, and treated as immutable
// from then on.
type MediaPayload struct {
	ID         uuid.UUID `json:"id"`
	Kind       MediaKind `json:"kind"`
	Source     string    `json:"source"`
	MIMEType   string    `json:"mime_type,omitempty"`
	Content    []byte    `json:"content"`
	Confidence float64   `json:"confidence"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewMediaPayload creates a MediaPayload with a fresh ID and the current
// timestamp. The kind may be MediaKindUnknown; ingest will sniff it.
func NewMediaPayload(kind MediaKind, source, mimeType string, content []byte, confidence float64) (*MediaPayload, error) {
	p := &MediaPayload{
		ID:         uuid.New(),
		Kind:       kind,
		Source:     source,
		MIMEType:   mimeType,
		Content:    content,
		Confidence: confidence,
		ReceivedAt: time.Now().UTC(),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks if the MediaPayload has valid data.
func (p *MediaPayload) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyMediaID
	}

	if len(p.Content) == 0 {
		return ErrEmptyMediaContent
	}

	if p.Confidence < 0 || p.Confidence > 1 {
		return ErrInvalidConfidence
	}

	return nil
}
