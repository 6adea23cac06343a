package domain

// Transcript is the key/value extraction pulled out of a MediaPayload by the
// transcribe stage. Numeric fields are pointers: nil means the field could
// not be extracted, which is distinct from a zero reading.
//
// A Transcript carries its own confidence, independent of the payload's:
// a high-confidence simulator frame can still yield a low-confidence
// transcript when the vendor omits fields.
type Transcript struct {
	Speed       *float64 `json:"speed,omitempty"`        // ball speed, mph
	Distance    *float64 `json:"distance,omitempty"`     // total distance, yards
	Spin        *float64 `json:"spin,omitempty"`         // backspin, rpm
	LaunchAngle *float64 `json:"launch_angle,omitempty"` // degrees
	ClubLabel   string   `json:"club_label,omitempty"`   // as reported, uncanonicalized
	Insights    []string `json:"insights,omitempty"`
	Confidence  float64  `json:"confidence"`
	Source      string   `json:"source,omitempty"`

	// NeedsManualReview is set when extraction fell back to a generic
	// parser and the values should be double-checked by the user.
	NeedsManualReview bool `json:"needs_manual_review,omitempty"`
}

// UnavailableTranscript is the explicit fallback returned when extraction
// fails entirely. It never panics downstream stages: every field is absent
// and the confidence documents how little we know.
func UnavailableTranscript(source string) *Transcript {
	return &Transcript{
		Confidence:        0.1,
		Source:            source,
		NeedsManualReview: true,
		Insights:          []string{"transcription unavailable; manual review required"},
	}
}

// Float64Ptr returns a pointer to v. Convenience for building transcripts.
func Float64Ptr(v float64) *float64 {
	return &v
}
