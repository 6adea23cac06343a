package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMediaPayload(t *testing.T) {
	t.Parallel()

	t.Run("valid payload", func(t *testing.T) {
		t.Parallel()
		p, err := NewMediaPayload(MediaKindImage, "mobile-app", "image/jpeg", []byte{0xFF, 0xD8}, 0.9)
		require.NoError(t, err)
		assert.Equal(t, MediaKindImage, p.Kind)
		assert.NotZero(t, p.ID)
		assert.False(t, p.ReceivedAt.IsZero())
	})

	t.Run("empty content rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewMediaPayload(MediaKindImage, "mobile-app", "image/jpeg", nil, 0.9)
		assert.ErrorIs(t, err, ErrEmptyMediaContent)
	})

	t.Run("confidence out of range rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewMediaPayload(MediaKindImage, "mobile-app", "image/jpeg", []byte{1}, 1.5)
		assert.ErrorIs(t, err, ErrInvalidConfidence)
	})
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	valid := Task{ID: "t-1", Type: "seo-task"}
	assert.NoError(t, valid.Validate())

	missingID := Task{Type: "seo-task"}
	assert.ErrorIs(t, missingID.Validate(), ErrEmptyTaskID)

	missingType := Task{ID: "t-1"}
	assert.ErrorIs(t, missingType.Validate(), ErrEmptyTaskType)
}

func TestNewQueueJob(t *testing.T) {
	t.Parallel()

	t.Run("ready time honors delay", func(t *testing.T) {
		t.Parallel()
		job, err := NewQueueJob(Task{ID: "t-1", Type: "cleanup"}, LaneBackground, 3, 2*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, job.CreatedAt.Add(2*time.Minute), job.ReadyAt())
	})

	t.Run("negative delay rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewQueueJob(Task{ID: "t-1", Type: "cleanup"}, LaneBackground, 0, -time.Second)
		assert.ErrorIs(t, err, ErrInvalidTaskDelay)
	})

	t.Run("invalid task rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewQueueJob(Task{Type: "cleanup"}, LaneBackground, 0, 0)
		assert.ErrorIs(t, err, ErrEmptyTaskID)
	})
}

func TestDefaultResults(t *testing.T) {
	t.Parallel()

	score := DefaultScoringResult()
	assert.Zero(t, score.Total)
	assert.InDelta(t, 0.1, score.Confidence, 1e-9)

	bag := DefaultBagAnalysisResult()
	assert.Empty(t, bag.ClubAverages)
	assert.InDelta(t, 0.1, bag.Confidence, 1e-9)

	// Validation defaults fail open.
	validation := DefaultValidationResult()
	assert.True(t, validation.IsValid)
	assert.InDelta(t, 0.1, validation.Confidence, 1e-9)
}

func TestEffectiveSkillLevelAndDevice(t *testing.T) {
	t.Parallel()

	u := &User{}
	assert.Equal(t, SkillLevelBeginner, u.EffectiveSkillLevel())

	u.SkillLevel = SkillLevelAdvanced
	assert.Equal(t, SkillLevelAdvanced, u.EffectiveSkillLevel())

	ctx := &RequestContext{}
	assert.Equal(t, DeviceClassDesktop, ctx.EffectiveDevice())

	ctx.Device = DeviceClassMobile
	assert.Equal(t, DeviceClassMobile, ctx.EffectiveDevice())
}
