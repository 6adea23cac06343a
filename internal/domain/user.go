package domain

import (
	"github.com/google/uuid"
)

// SkillLevel buckets a golfer's experience for presentation tailoring.
type SkillLevel string

// Possible skill levels
const (
	SkillLevelBeginner     SkillLevel = "beginner"
	SkillLevelIntermediate SkillLevel = "intermediate"
	SkillLevelAdvanced     SkillLevel = "advanced"
)

// DeviceClass buckets the requesting device for presentation tailoring.
type DeviceClass string

// Possible device classes
const (
	DeviceClassMobile  DeviceClass = "mobile"
	DeviceClassDesktop DeviceClass = "desktop"
)

// User is the read-only profile consumed by the scoring and presentation
// stages. Session management lives outside the core; only the fields the
// pipeline reads appear here.
type User struct {
	ID          uuid.UUID         `json:"id"`
	Handicap    float64           `json:"handicap"`
	SkillLevel  SkillLevel        `json:"skill_level"`
	Preferences map[string]string `json:"preferences,omitempty"`
	RecentShots []NormalizedShot  `json:"recent_shots,omitempty"`
}

// EffectiveSkillLevel falls back to beginner for unset or unknown levels.
func (u *User) EffectiveSkillLevel() SkillLevel {
	switch u.SkillLevel {
	case SkillLevelBeginner, SkillLevelIntermediate, SkillLevelAdvanced:
		return u.SkillLevel
	default:
		return SkillLevelBeginner
	}
}

// RequestContext carries per-request presentation inputs.
type RequestContext struct {
	Device      DeviceClass `json:"device,omitempty"`
	Development bool        `json:"-"`
}

// EffectiveDevice falls back to desktop for unset or unknown device classes.
func (c *RequestContext) EffectiveDevice() DeviceClass {
	if c.Device == DeviceClassMobile {
		return DeviceClassMobile
	}
	return DeviceClassDesktop
}
