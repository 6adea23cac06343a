package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/beargallbladder/golfswarm/internal/agents"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stub collaborators. Each one defaults to well-behaved output and can be
// rigged to fail or panic per test.

type stubIngester struct {
	panicMsg string
}

func (s *stubIngester) Ingest(_ context.Context, _ *domain.MediaPayload) *agents.IngestResult {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return &agents.IngestResult{Kind: domain.MediaKindSimulator, Vendor: "trackman", Confidence: 0.9}
}

type stubTranscriber struct{}

func (s *stubTranscriber) Transcribe(_ context.Context, _ *agents.IngestResult) *domain.Transcript {
	return &domain.Transcript{
		ClubLabel:  "7-iron",
		Speed:      domain.Float64Ptr(85),
		Distance:   domain.Float64Ptr(155),
		Confidence: 0.95,
		Source:     "simulator",
	}
}

type stubNormalizer struct{}

func (s *stubNormalizer) Normalize(transcript *domain.Transcript, userID uuid.UUID) domain.NormalizedShot {
	return domain.NormalizedShot{
		UserID:   userID,
		Club:     transcript.ClubLabel,
		Speed:    transcript.Speed,
		Distance: transcript.Distance,
		IsValid:  true,
	}
}

type stubScorer struct {
	err      error
	panicMsg string
}

func (s *stubScorer) Score(_ context.Context, _ domain.NormalizedShot, _ *domain.User) (*domain.ScoringResult, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ScoringResult{Total: 82, Confidence: 0.9}, nil
}

type stubComparer struct {
	err           error
	panicMsg      bool
	aggregateRuns int
	aggregateSize int
}

func (s *stubComparer) Compare(_ context.Context, _ domain.NormalizedShot, _ *domain.User) (*domain.BagAnalysisResult, error) {
	if s.panicMsg {
		panic("comparer down")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.BagAnalysisResult{Confidence: 0.8}, nil
}

func (s *stubComparer) Aggregate(shots []domain.NormalizedShot) *domain.BagAnalysisResult {
	s.aggregateRuns++
	s.aggregateSize = len(shots)
	return &domain.BagAnalysisResult{Confidence: 0.85}
}

type stubValidator struct {
	result   *domain.ValidationResult
	err      error
	panicMsg bool
}

func (s *stubValidator) Validate(_ context.Context, _ domain.NormalizedShot) (*domain.ValidationResult, error) {
	if s.panicMsg {
		panic("validator down")
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &domain.ValidationResult{IsValid: true, Confidence: 0.9}, nil
}

type stubPresenter struct {
	calls int
}

func (s *stubPresenter) Present(_ domain.NormalizedShot, _ *domain.ScoringResult, _ *domain.BagAnalysisResult, _ *domain.ValidationResult, _ *domain.User, _ *domain.RequestContext) *agents.Presentation {
	s.calls++
	return &agents.Presentation{Headline: "Solid strike"}
}

type stubFeed struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubFeed) Publish(_ context.Context, _ domain.NormalizedShot, _ *domain.ScoringResult, _ *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubFeed) published() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubShotStore struct {
	mu    sync.Mutex
	saved []uuid.UUID
	err   error
}

func (s *stubShotStore) Save(_ context.Context, shot *domain.NormalizedShot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, shot.ID)
	return s.err
}

type fixture struct {
	ingest    *stubIngester
	scorer    *stubScorer
	comparer  *stubComparer
	validator *stubValidator
	presenter *stubPresenter
	feed      *stubFeed
	store     *stubShotStore
}

func newFixture() *fixture {
	return &fixture{
		ingest:    &stubIngester{},
		scorer:    &stubScorer{},
		comparer:  &stubComparer{},
		validator: &stubValidator{},
		presenter: &stubPresenter{},
		feed:      &stubFeed{},
		store:     &stubShotStore{},
	}
}

func (f *fixture) coordinator() *Coordinator {
	return NewCoordinator(CoordinatorDeps{
		Ingest:     f.ingest,
		Transcribe: &stubTranscriber{},
		Normalize:  &stubNormalizer{},
		Score:      f.scorer,
		Bag:        f.comparer,
		Validate:   f.validator,
		Present:    f.presenter,
		Feed:       f.feed,
		Shots:      f.store,
	}, slog.Default())
}

func testPayload(t *testing.T) *domain.MediaPayload {
	t.Helper()
	payload, err := domain.NewMediaPayload(domain.MediaKindSimulator, "trackman", "application/json", []byte(`{"DeviceID":"TM4","BallSpeed":115.2}`), 0.9)
	require.NoError(t, err)
	return payload
}

func TestProcessUpload_Success(t *testing.T) {
	t.Parallel()

	f := newFixture()
	c := f.coordinator()
	user := &domain.User{ID: uuid.New(), SkillLevel: domain.SkillLevelIntermediate}

	resp := c.ProcessUpload(context.Background(), testPayload(t), user, &domain.RequestContext{})
	c.Close()

	require.True(t, resp.Success)
	require.NotNil(t, resp.Shot)
	assert.NotEqual(t, uuid.Nil, resp.Shot.ID, "coordinator must stamp the shot identity")
	assert.False(t, resp.Shot.CreatedAt.IsZero())
	assert.Equal(t, user.ID, resp.Shot.UserID)

	require.NotNil(t, resp.Scoring)
	assert.InDelta(t, 82, resp.Scoring.Total, 0.001)
	require.NotNil(t, resp.Validation)
	assert.True(t, resp.Validation.IsValid)
	require.NotNil(t, resp.Presentation)
	assert.Equal(t, 1, f.presenter.calls)

	assert.Equal(t, 1, f.feed.published())
	assert.Len(t, f.store.saved, 1)
}

func TestProcessUpload_AnalysisBranchFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rig  func(f *fixture)
		want func(t *testing.T, resp *Response)
	}{
		{
			name: "score error substitutes zero score",
			rig:  func(f *fixture) { f.scorer.err = errors.New("model unavailable") },
			want: func(t *testing.T, resp *Response) {
				require.NotNil(t, resp.Scoring)
				assert.Zero(t, resp.Scoring.Total)
				assert.InDelta(t, 0.1, resp.Scoring.Confidence, 0.001)
			},
		},
		{
			name: "score panic substitutes zero score",
			rig:  func(f *fixture) { f.scorer.panicMsg = "scorer down" },
			want: func(t *testing.T, resp *Response) {
				require.NotNil(t, resp.Scoring)
				assert.Zero(t, resp.Scoring.Total)
				assert.InDelta(t, 0.1, resp.Scoring.Confidence, 0.001)
			},
		},
		{
			name: "equipment error substitutes empty analysis",
			rig:  func(f *fixture) { f.comparer.err = errors.New("no history") },
			want: func(t *testing.T, resp *Response) {
				require.NotNil(t, resp.BagAnalysis)
				assert.Empty(t, resp.BagAnalysis.ClubAverages)
				assert.InDelta(t, 0.1, resp.BagAnalysis.Confidence, 0.001)
			},
		},
		{
			name: "equipment panic substitutes empty analysis",
			rig:  func(f *fixture) { f.comparer.panicMsg = true },
			want: func(t *testing.T, resp *Response) {
				require.NotNil(t, resp.BagAnalysis)
				assert.InDelta(t, 0.1, resp.BagAnalysis.Confidence, 0.001)
			},
		},
		{
			name: "validator error fails open",
			rig:  func(f *fixture) { f.validator.err = errors.New("rules engine offline") },
			want: func(t *testing.T, resp *Response) {
				require.NotNil(t, resp.Validation)
				assert.True(t, resp.Validation.IsValid)
				assert.InDelta(t, 0.1, resp.Validation.Confidence, 0.001)
			},
		},
		{
			name: "validator panic fails open",
			rig:  func(f *fixture) { f.validator.panicMsg = true },
			want: func(t *testing.T, resp *Response) {
				require.NotNil(t, resp.Validation)
				assert.True(t, resp.Validation.IsValid)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			tc.rig(f)
			c := f.coordinator()

			resp := c.ProcessUpload(context.Background(), testPayload(t), nil, nil)
			c.Close()

			// A single degraded branch never blocks the response.
			require.True(t, resp.Success)
			require.NotNil(t, resp.Scoring)
			require.NotNil(t, resp.BagAnalysis)
			require.NotNil(t, resp.Validation)
			tc.want(t, resp)
		})
	}
}

func TestProcessUpload_ValidationGate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.validator.result = &domain.ValidationResult{
		IsValid:     false,
		Flags:       []string{"speed and distance are inconsistent"},
		Suggestions: []string{"check launch monitor calibration"},
		Confidence:  0.9,
	}
	c := f.coordinator()

	resp := c.ProcessUpload(context.Background(), testPayload(t), nil, nil)
	c.Close()

	require.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidationFailed, resp.Error)
	assert.Equal(t, []string{"speed and distance are inconsistent"}, resp.Flags)
	assert.Equal(t, []string{"check launch monitor calibration"}, resp.Suggestions)

	// A rejected shot never reaches presentation or the feed.
	assert.Zero(t, f.presenter.calls)
	assert.Zero(t, f.feed.published())
	assert.Empty(t, f.store.saved)
}

func TestProcessUpload_PanicRecovery(t *testing.T) {
	t.Parallel()

	t.Run("production hides internals", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.ingest.panicMsg = "nil map write in vendor parser"
		c := f.coordinator()

		resp := c.ProcessUpload(context.Background(), testPayload(t), nil, &domain.RequestContext{})
		require.False(t, resp.Success)
		assert.Equal(t, ErrCodeInternal, resp.Error)
		assert.NotContains(t, resp.Message, "nil map write")
	})

	t.Run("development surfaces detail", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.ingest.panicMsg = "nil map write in vendor parser"
		c := f.coordinator()

		resp := c.ProcessUpload(context.Background(), testPayload(t), nil, &domain.RequestContext{Development: true})
		require.False(t, resp.Success)
		assert.Contains(t, resp.Message, "nil map write")
	})
}

func TestProcessUpload_FeedFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.feed.err = errors.New("broker unreachable")
	c := f.coordinator()

	resp := c.ProcessUpload(context.Background(), testPayload(t), nil, nil)
	c.Close()

	assert.True(t, resp.Success, "feed publish is fire and forget")
	assert.Equal(t, 1, f.feed.published())
}

func TestProcessUpload_BackgroundPublishUsesRequestLogger(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.feed.err = errors.New("broker unreachable")
	c := f.coordinator()

	var buf syncBuffer
	reqLog := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "req-42")
	ctx := logger.WithLogger(context.Background(), reqLog)

	resp := c.ProcessUpload(ctx, testPayload(t), nil, nil)
	c.Close()

	require.True(t, resp.Success)
	out := buf.String()
	assert.Contains(t, out, "feed publish failed")
	assert.Contains(t, out, "request_id=req-42", "background publish must log with the request-scoped logger")
}

// syncBuffer makes a bytes.Buffer safe to share between the request
// goroutine and the detached publish goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProcessUpload_PersistFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.store.err = errors.New("connection refused")
	c := f.coordinator()

	resp := c.ProcessUpload(context.Background(), testPayload(t), nil, nil)
	c.Close()

	assert.True(t, resp.Success)
	assert.Equal(t, 1, f.feed.published(), "persist failure must not block the feed")
}

func TestProcessUpload_BackgroundSurvivesRequestCancellation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	c := f.coordinator()

	ctx, cancel := context.WithCancel(context.Background())
	resp := c.ProcessUpload(ctx, testPayload(t), nil, nil)
	cancel()
	c.Close()

	assert.True(t, resp.Success)
	assert.Equal(t, 1, f.feed.published())
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("all succeed", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		c := f.coordinator()

		payloads := []*domain.MediaPayload{testPayload(t), testPayload(t), testPayload(t)}
		batch := c.ProcessBatch(context.Background(), payloads, nil, nil)
		c.Close()

		assert.True(t, batch.Success)
		assert.Equal(t, 3, batch.Processed)
		assert.Equal(t, 3, batch.Successful)
		assert.Zero(t, batch.Failed)
		require.Len(t, batch.Results, 3)

		require.NotNil(t, batch.BagAnalysis)
		assert.Equal(t, 1, f.comparer.aggregateRuns)
		assert.Equal(t, 3, f.comparer.aggregateSize)
	})

	t.Run("rejected shots are excluded from the aggregate", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.validator.result = &domain.ValidationResult{IsValid: false, Confidence: 0.9}
		c := f.coordinator()

		batch := c.ProcessBatch(context.Background(), []*domain.MediaPayload{testPayload(t), testPayload(t)}, nil, nil)
		c.Close()

		assert.False(t, batch.Success)
		assert.Equal(t, 2, batch.Failed)
		assert.Zero(t, f.comparer.aggregateRuns)
		assert.Nil(t, batch.BagAnalysis)
	})
}

func TestClose_DrainsBackgroundWork(t *testing.T) {
	t.Parallel()

	f := newFixture()
	c := f.coordinator()

	for i := 0; i < 5; i++ {
		c.ProcessUpload(context.Background(), testPayload(t), nil, nil)
	}

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not drain background publishes")
	}
	assert.Equal(t, 5, f.feed.published())
}
