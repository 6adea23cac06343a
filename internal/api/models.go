package api

import (
	"encoding/json"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// UploadRequest is one shot upload. Content arrives base64-encoded in
// JSON and is decoded by encoding/json into raw bytes.
type UploadRequest struct {
	Kind     string `json:"kind"                validate:"required,oneof=simulator_reading image voice_clip unknown_blob"`
	Source   string `json:"source,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Content  []byte `json:"content"             validate:"required"`

	// Profile hints the session service attached client-side. The user
	// identity always comes from the bearer token, never from here.
	SkillLevel string  `json:"skill_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Handicap   float64 `json:"handicap,omitempty"    validate:"omitempty,gte=0,lte=54"`
	Device     string  `json:"device,omitempty"      validate:"omitempty,oneof=mobile desktop"`
}

// BatchUploadRequest carries several uploads processed in order.
type BatchUploadRequest struct {
	Uploads []UploadRequest `json:"uploads" validate:"required,min=1,max=50,dive"`

	SkillLevel string  `json:"skill_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Handicap   float64 `json:"handicap,omitempty"    validate:"omitempty,gte=0,lte=54"`
	Device     string  `json:"device,omitempty"      validate:"omitempty,oneof=mobile desktop"`
}

// TaskRequest is one roadmap task on the wire.
type TaskRequest struct {
	ID       string          `json:"id"       validate:"required"`
	Priority string          `json:"priority,omitempty" validate:"omitempty,oneof=critical high normal low"`
	Category string          `json:"category,omitempty"`
	Type     string          `json:"type"     validate:"required"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// RoadmapRequest is a batch of tasks for the swarm scheduler.
type RoadmapRequest struct {
	Tasks []TaskRequest `json:"tasks" validate:"required,min=1,max=500,dive"`
}

// toDomain converts the wire task into the scheduler's task shape.
func (t TaskRequest) toDomain() domain.Task {
	return domain.Task{
		ID:       t.ID,
		Priority: domain.TaskPriority(t.Priority),
		Category: t.Category,
		Type:     t.Type,
		Payload:  t.Payload,
	}
}

// AgentStatusResponse is the worker health report.
type AgentStatusResponse struct {
	Agents map[string]domain.AgentHealthStatus `json:"agents"`
}
