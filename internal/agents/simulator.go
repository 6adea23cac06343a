package agents

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// SimulatorTelemetry is one launch-monitor reading with vendor-agnostic
// field names. Pointer fields are nil when the vendor omitted them.
type SimulatorTelemetry struct {
	Vendor        string   `json:"vendor"`
	BallSpeed     *float64 `json:"ball_speed,omitempty"`     // mph
	TotalDistance *float64 `json:"total_distance,omitempty"` // yards
	Spin          *float64 `json:"spin,omitempty"`           // rpm
	LaunchAngle   *float64 `json:"launch_angle,omitempty"`   // degrees
	Club          string   `json:"club,omitempty"`
}

// ErrUnrecognizedFormat is returned by an adapter's Parse when the content
// does not match its vendor format.
var ErrUnrecognizedFormat = errors.New("unrecognized simulator format")

// SimulatorAdapter abstracts one launch-monitor vendor. Unknown vendors
// fall back to the generic field-extraction adapter.
type SimulatorAdapter interface {
	// Vendor returns the adapter's vendor identifier.
	Vendor() string

	// Detect reports whether the payload looks like this vendor's format.
	Detect(payload *domain.MediaPayload) bool

	// Parse extracts a single telemetry reading from the content.
	Parse(content []byte) (*SimulatorTelemetry, error)

	// BatchImport extracts every reading from a multi-shot export.
	BatchImport(ctx context.Context, content []byte) ([]*SimulatorTelemetry, error)

	// Connect verifies the vendor integration is reachable.
	Connect(ctx context.Context) error

	// HealthCheck probes the adapter.
	HealthCheck(ctx context.Context) error
}

// ---- trackman-style JSON adapter ----

// trackmanFrame is the vendor's JSON shape; the DeviceID marker identifies it.
type trackmanFrame struct {
	DeviceID    string   `json:"DeviceID"`
	BallSpeed   *float64 `json:"BallSpeed"`
	Total       *float64 `json:"Total"`
	SpinRate    *float64 `json:"SpinRate"`
	LaunchAngle *float64 `json:"LaunchAngle"`
	Club        string   `json:"Club"`
}

type trackmanAdapter struct{}

// NewTrackmanAdapter returns the adapter for TrackMan-style JSON frames.
func NewTrackmanAdapter() SimulatorAdapter { return &trackmanAdapter{} }

func (a *trackmanAdapter) Vendor() string { return "trackman" }

func (a *trackmanAdapter) Detect(payload *domain.MediaPayload) bool {
	return bytes.Contains(payload.Content, []byte(`"DeviceID"`)) &&
		bytes.Contains(bytes.ToLower(payload.Content), []byte("trackman"))
}

func (a *trackmanAdapter) Parse(content []byte) (*SimulatorTelemetry, error) {
	var frame trackmanFrame
	if err := json.Unmarshal(content, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}
	if !strings.Contains(strings.ToLower(frame.DeviceID), "trackman") {
		return nil, ErrUnrecognizedFormat
	}

	return &SimulatorTelemetry{
		Vendor:        a.Vendor(),
		BallSpeed:     frame.BallSpeed,
		TotalDistance: frame.Total,
		Spin:          frame.SpinRate,
		LaunchAngle:   frame.LaunchAngle,
		Club:          frame.Club,
	}, nil
}

func (a *trackmanAdapter) BatchImport(_ context.Context, content []byte) ([]*SimulatorTelemetry, error) {
	var frames []trackmanFrame
	if err := json.Unmarshal(content, &frames); err != nil {
		// A single frame export is also accepted.
		single, serr := a.Parse(content)
		if serr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
		}
		return []*SimulatorTelemetry{single}, nil
	}

	readings := make([]*SimulatorTelemetry, 0, len(frames))
	for _, frame := range frames {
		readings = append(readings, &SimulatorTelemetry{
			Vendor:        a.Vendor(),
			BallSpeed:     frame.BallSpeed,
			TotalDistance: frame.Total,
			Spin:          frame.SpinRate,
			LaunchAngle:   frame.LaunchAngle,
			Club:          frame.Club,
		})
	}
	return readings, nil
}

func (a *trackmanAdapter) Connect(_ context.Context) error     { return nil }
func (a *trackmanAdapter) HealthCheck(_ context.Context) error { return nil }

// ---- skytrak-style JSON adapter ----

type skytrakFrame struct {
	Source      string   `json:"source"`
	BallMPH     *float64 `json:"ball_mph"`
	TotalYards  *float64 `json:"total_yards"`
	BackspinRPM *float64 `json:"backspin_rpm"`
	LaunchDeg   *float64 `json:"launch_deg"`
	ClubName    string   `json:"club_name"`
}

type skytrakAdapter struct{}

// NewSkytrakAdapter returns the adapter for SkyTrak-style JSON frames.
func NewSkytrakAdapter() SimulatorAdapter { return &skytrakAdapter{} }

func (a *skytrakAdapter) Vendor() string { return "skytrak" }

func (a *skytrakAdapter) Detect(payload *domain.MediaPayload) bool {
	return bytes.Contains(bytes.ToLower(payload.Content), []byte(`"source":"skytrak"`)) ||
		bytes.Contains(bytes.ToLower(payload.Content), []byte(`"source": "skytrak"`))
}

func (a *skytrakAdapter) Parse(content []byte) (*SimulatorTelemetry, error) {
	var frame skytrakFrame
	if err := json.Unmarshal(content, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}
	if !strings.EqualFold(frame.Source, "skytrak") {
		return nil, ErrUnrecognizedFormat
	}

	return &SimulatorTelemetry{
		Vendor:        a.Vendor(),
		BallSpeed:     frame.BallMPH,
		TotalDistance: frame.TotalYards,
		Spin:          frame.BackspinRPM,
		LaunchAngle:   frame.LaunchDeg,
		Club:          frame.ClubName,
	}, nil
}

func (a *skytrakAdapter) BatchImport(_ context.Context, content []byte) ([]*SimulatorTelemetry, error) {
	var frames []skytrakFrame
	if err := json.Unmarshal(content, &frames); err != nil {
		single, serr := a.Parse(content)
		if serr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
		}
		return []*SimulatorTelemetry{single}, nil
	}

	readings := make([]*SimulatorTelemetry, 0, len(frames))
	for _, frame := range frames {
		readings = append(readings, &SimulatorTelemetry{
			Vendor:        a.Vendor(),
			BallSpeed:     frame.BallMPH,
			TotalDistance: frame.TotalYards,
			Spin:          frame.BackspinRPM,
			LaunchAngle:   frame.LaunchDeg,
			Club:          frame.ClubName,
		})
	}
	return readings, nil
}

func (a *skytrakAdapter) Connect(_ context.Context) error     { return nil }
func (a *skytrakAdapter) HealthCheck(_ context.Context) error { return nil }

// ---- garmin-style CSV adapter ----

// garminAdapter parses CSV exports with a header row of
// club,ball_speed,total_distance,spin,launch_angle.
type garminAdapter struct{}

// NewGarminAdapter returns the adapter for Garmin-style CSV exports.
func NewGarminAdapter() SimulatorAdapter { return &garminAdapter{} }

func (a *garminAdapter) Vendor() string { return "garmin" }

func (a *garminAdapter) Detect(payload *domain.MediaPayload) bool {
	if payload.MIMEType == "text/csv" {
		return true
	}
	head := bytes.ToLower(payload.Content)
	return bytes.HasPrefix(head, []byte("club,ball_speed"))
}

func (a *garminAdapter) Parse(content []byte) (*SimulatorTelemetry, error) {
	readings, err := a.BatchImport(context.Background(), content)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrUnrecognizedFormat)
	}
	return readings[0], nil
}

func (a *garminAdapter) BatchImport(_ context.Context, content []byte) ([]*SimulatorTelemetry, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: missing header or data rows", ErrUnrecognizedFormat)
	}

	header := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := header["club"]; !ok {
		return nil, fmt.Errorf("%w: missing club column", ErrUnrecognizedFormat)
	}

	readings := make([]*SimulatorTelemetry, 0, len(records)-1)
	for _, row := range records[1:] {
		reading := &SimulatorTelemetry{Vendor: a.Vendor()}
		reading.Club = cell(row, header, "club")
		reading.BallSpeed = numericCell(row, header, "ball_speed")
		reading.TotalDistance = numericCell(row, header, "total_distance")
		reading.Spin = numericCell(row, header, "spin")
		reading.LaunchAngle = numericCell(row, header, "launch_angle")
		readings = append(readings, reading)
	}
	return readings, nil
}

func (a *garminAdapter) Connect(_ context.Context) error     { return nil }
func (a *garminAdapter) HealthCheck(_ context.Context) error { return nil }

func cell(row []string, header map[string]int, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func numericCell(row []string, header map[string]int, name string) *float64 {
	raw := cell(row, header, name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ---- generic fallback adapter ----

// genericAdapter scans free-form JSON for anything that looks like golf
// telemetry. It accepts everything; readings it produces carry low
// confidence upstream.
type genericAdapter struct{}

// NewGenericAdapter returns the fallback adapter for unknown vendors.
func NewGenericAdapter() SimulatorAdapter { return &genericAdapter{} }

func (a *genericAdapter) Vendor() string { return "generic" }

func (a *genericAdapter) Detect(_ *domain.MediaPayload) bool { return true }

// genericFieldAliases maps telemetry fields to the key names seen across
// vendor exports.
var genericFieldAliases = map[string][]string{
	"ball_speed":     {"ball_speed", "ballspeed", "speed", "ball_mph"},
	"total_distance": {"total_distance", "distance", "total", "total_yards", "carry"},
	"spin":           {"spin", "spin_rate", "spinrate", "backspin", "backspin_rpm"},
	"launch_angle":   {"launch_angle", "launch", "launch_deg", "la"},
}

func (a *genericAdapter) Parse(content []byte) (*SimulatorTelemetry, error) {
	var raw map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	lowered := make(map[string]any, len(raw))
	for k, v := range raw {
		lowered[strings.ToLower(k)] = v
	}

	reading := &SimulatorTelemetry{Vendor: a.Vendor()}
	reading.BallSpeed = lookupNumeric(lowered, genericFieldAliases["ball_speed"])
	reading.TotalDistance = lookupNumeric(lowered, genericFieldAliases["total_distance"])
	reading.Spin = lookupNumeric(lowered, genericFieldAliases["spin"])
	reading.LaunchAngle = lookupNumeric(lowered, genericFieldAliases["launch_angle"])
	for _, key := range []string{"club", "club_name", "clubtype"} {
		if v, ok := lowered[key].(string); ok && v != "" {
			reading.Club = v
			break
		}
	}

	return reading, nil
}

func lookupNumeric(m map[string]any, keys []string) *float64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			value := v
			return &value
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "yd"), 64); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

func (a *genericAdapter) BatchImport(_ context.Context, content []byte) ([]*SimulatorTelemetry, error) {
	var rawList []map[string]any
	if err := json.Unmarshal(content, &rawList); err != nil {
		single, serr := a.Parse(content)
		if serr != nil {
			return nil, serr
		}
		return []*SimulatorTelemetry{single}, nil
	}

	readings := make([]*SimulatorTelemetry, 0, len(rawList))
	for _, raw := range rawList {
		encoded, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		reading, err := a.Parse(encoded)
		if err != nil {
			continue
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func (a *genericAdapter) Connect(_ context.Context) error     { return nil }
func (a *genericAdapter) HealthCheck(_ context.Context) error { return nil }

// ---- simulator bridge ----

// SimulatorBridge owns the ordered adapter registry; vendor adapters are
// consulted in order with the generic adapter always last.
type SimulatorBridge struct {
	adapters []SimulatorAdapter
}

// NewSimulatorBridge creates a bridge with the default adapter registry.
func NewSimulatorBridge() *SimulatorBridge {
	return &SimulatorBridge{
		adapters: []SimulatorAdapter{
			NewTrackmanAdapter(),
			NewSkytrakAdapter(),
			NewGarminAdapter(),
			NewGenericAdapter(),
		},
	}
}

// Name implements Agent.
func (b *SimulatorBridge) Name() string { return "simulator-bridge" }

// HealthCheck implements Agent: the bridge is degraded when any registered
// adapter cannot reach its vendor or fails its own check.
func (b *SimulatorBridge) HealthCheck(ctx context.Context) error {
	for _, adapter := range b.adapters {
		if err := adapter.Connect(ctx); err != nil {
			return fmt.Errorf("%w: adapter %s: %v", ErrDegraded, adapter.Vendor(), err)
		}
		if err := adapter.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%w: adapter %s: %v", ErrDegraded, adapter.Vendor(), err)
		}
	}
	return nil
}

// Resolve returns the first adapter whose Detect accepts the payload. The
// generic adapter accepts everything, so Resolve never fails; the second
// return reports whether a vendor-specific adapter matched.
func (b *SimulatorBridge) Resolve(payload *domain.MediaPayload) (SimulatorAdapter, bool) {
	for _, adapter := range b.adapters {
		if adapter.Detect(payload) {
			return adapter, adapter.Vendor() != "generic"
		}
	}
	// Unreachable while the generic adapter is registered last.
	return b.adapters[len(b.adapters)-1], false
}
