package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/beargallbladder/golfswarm/internal/agents"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/metrics"
	"github.com/beargallbladder/golfswarm/internal/platform/logger"
	"github.com/google/uuid"
)

// Response error codes surfaced to callers.
const (
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeInternal         = "internal_error"
)

// Ingester wraps raw media into a structured intake result. Total: never
// rejects input.
type Ingester interface {
	Ingest(ctx context.Context, payload *domain.MediaPayload) *agents.IngestResult
}

// Transcriber extracts a shot transcript from ingested media.
type Transcriber interface {
	Transcribe(ctx context.Context, ingested *agents.IngestResult) *domain.Transcript
}

// Normalizer converts a transcript into a range-checked shot.
type Normalizer interface {
	Normalize(transcript *domain.Transcript, userID uuid.UUID) domain.NormalizedShot
}

// Scorer grades a normalized shot.
type Scorer interface {
	Score(ctx context.Context, shot domain.NormalizedShot, user *domain.User) (*domain.ScoringResult, error)
}

// EquipmentComparer analyzes a shot against the user's club history.
type EquipmentComparer interface {
	Compare(ctx context.Context, shot domain.NormalizedShot, user *domain.User) (*domain.BagAnalysisResult, error)
	Aggregate(shots []domain.NormalizedShot) *domain.BagAnalysisResult
}

// Validator renders the gate verdict on a normalized shot.
type Validator interface {
	Validate(ctx context.Context, shot domain.NormalizedShot) (*domain.ValidationResult, error)
}

// Presenter adapts analysis output to the user's skill level and device.
type Presenter interface {
	Present(shot domain.NormalizedShot, scoring *domain.ScoringResult, bag *domain.BagAnalysisResult, validation *domain.ValidationResult, user *domain.User, reqCtx *domain.RequestContext) *agents.Presentation
}

// FeedSender publishes a completed shot to the community feed.
type FeedSender interface {
	Publish(ctx context.Context, shot domain.NormalizedShot, scoring *domain.ScoringResult, user *domain.User) error
}

// ShotStore persists analyzed shots. Persistence failures never fail an
// upload; they are logged and the response still returns.
type ShotStore interface {
	Save(ctx context.Context, shot *domain.NormalizedShot) error
}

// Response is the outcome of one upload through the pipeline.
type Response struct {
	Success      bool                      `json:"success"`
	Shot         *domain.NormalizedShot    `json:"shot,omitempty"`
	Scoring      *domain.ScoringResult     `json:"scoring,omitempty"`
	BagAnalysis  *domain.BagAnalysisResult `json:"bag_analysis,omitempty"`
	Validation   *domain.ValidationResult  `json:"validation,omitempty"`
	Presentation *agents.Presentation      `json:"presentation,omitempty"`
	Error        string                    `json:"error,omitempty"`
	Message      string                    `json:"message,omitempty"`
	Flags        []string                  `json:"flags,omitempty"`
	Suggestions  []string                  `json:"suggestions,omitempty"`
}

// BatchResponse is the outcome of a batch upload.
type BatchResponse struct {
	Success     bool                      `json:"success"`
	Processed   int                       `json:"processed"`
	Successful  int                       `json:"successful"`
	Failed      int                       `json:"failed"`
	Results     []*Response               `json:"results"`
	BagAnalysis *domain.BagAnalysisResult `json:"bag_analysis,omitempty"`
}

// Coordinator sequences the pipeline workers for one shot-upload request.
// It owns the parallel fan-out/fan-in stage and the validation gate.
type Coordinator struct {
	ingest     Ingester
	transcribe Transcriber
	normalize  Normalizer
	score      Scorer
	bag        EquipmentComparer
	validate   Validator
	present    Presenter
	feed       FeedSender

	shots  ShotStore
	logger *slog.Logger

	// background tracks detached feed/persist goroutines so Close can
	// drain them on shutdown.
	background sync.WaitGroup
}

// CoordinatorDeps bundles the coordinator's collaborators. Shots is
// optional; the rest are required.
type CoordinatorDeps struct {
	Ingest     Ingester
	Transcribe Transcriber
	Normalize  Normalizer
	Score      Scorer
	Bag        EquipmentComparer
	Validate   Validator
	Present    Presenter
	Feed       FeedSender
	Shots      ShotStore
}

// NewCoordinator creates a Coordinator from its dependencies.
func NewCoordinator(deps CoordinatorDeps, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		ingest:     deps.Ingest,
		transcribe: deps.Transcribe,
		normalize:  deps.Normalize,
		score:      deps.Score,
		bag:        deps.Bag,
		validate:   deps.Validate,
		present:    deps.Present,
		feed:       deps.Feed,
		shots:      deps.Shots,
		logger:     logger.With("component", "pipeline_coordinator"),
	}
}

// ProcessUpload drives one payload through the full pipeline. Any panic in
// the stages before the fan-out is caught here and converted into a generic
// failure response; internals leak into the message only in development
// mode.
func (c *Coordinator) ProcessUpload(ctx context.Context, payload *domain.MediaPayload, user *domain.User, reqCtx *domain.RequestContext) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "pipeline panic recovered", "panic", r)
			metrics.UploadsTotal.WithLabelValues("panic").Inc()
			message := "shot analysis failed unexpectedly"
			if reqCtx != nil && reqCtx.Development {
				message = fmt.Sprintf("shot analysis failed: %v", r)
			}
			resp = &Response{
				Success: false,
				Error:   ErrCodeInternal,
				Message: message,
			}
		}
	}()

	// Stage 1-2: ingest and transcribe. Both are total: the worst input
	// still yields a low-confidence result.
	ingested := c.ingest.Ingest(ctx, payload)
	metrics.PipelineStageTotal.WithLabelValues("ingest", "ok").Inc()

	transcript := c.transcribe.Transcribe(ctx, ingested)
	metrics.PipelineStageTotal.WithLabelValues("transcribe", "ok").Inc()

	// Stage 3: normalize, then stamp identity. The shot is frozen from
	// here on: the fan-out workers read it, none may write it.
	var userID uuid.UUID
	if user != nil {
		userID = user.ID
	}
	shot := c.normalize.Normalize(transcript, userID)
	shot.ID = uuid.New()
	shot.CreatedAt = time.Now().UTC()
	metrics.PipelineStageTotal.WithLabelValues("normalize", "ok").Inc()

	// Stage 4: parallel analysis fan-out with a run-to-completion
	// barrier. All three branches are awaited regardless of individual
	// failure; each failure is substituted with its documented default.
	scoring, bagAnalysis, validation := c.runAnalysis(ctx, shot, user)

	// Stage 5: validation gate. The validate verdict is the single
	// authoritative checkpoint; an invalid shot never reaches
	// presentation or the feed.
	if !validation.IsValid {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return &Response{
			Success:     false,
			Shot:        &shot,
			Validation:  validation,
			Error:       ErrCodeValidationFailed,
			Message:     "shot data failed validation",
			Flags:       validation.Flags,
			Suggestions: validation.Suggestions,
		}
	}

	// Stage 6: presentation adaptation, a total pure transformation.
	presentation := c.present.Present(shot, scoring, bagAnalysis, validation, user, reqCtx)
	metrics.PipelineStageTotal.WithLabelValues("present", "ok").Inc()

	// Stage 7: detached side effects. Neither persistence nor the feed
	// publish is awaited; their failures are logged and swallowed.
	c.publishAsync(ctx, shot, scoring, user)

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	return &Response{
		Success:      true,
		Shot:         &shot,
		Scoring:      scoring,
		BagAnalysis:  bagAnalysis,
		Validation:   validation,
		Presentation: presentation,
	}
}

// runAnalysis fans out to the three analysis workers against the frozen
// shot and waits for all of them. A branch that fails (error or panic) is
// replaced by its documented low-confidence default:
//
//	score        -> total 0, confidence 0.1
//	equipment    -> empty comparison, confidence 0.1
//	validate     -> fail-open (valid), confidence 0.1
func (c *Coordinator) runAnalysis(ctx context.Context, shot domain.NormalizedShot, user *domain.User) (*domain.ScoringResult, *domain.BagAnalysisResult, *domain.ValidationResult) {
	var (
		scoring     *domain.ScoringResult
		bagAnalysis *domain.BagAnalysisResult
		validation  *domain.ValidationResult
		wg          sync.WaitGroup
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		result, err := c.guardScore(ctx, shot, user)
		if err != nil {
			c.logger.WarnContext(ctx, "score stage failed, substituting default",
				"shot_id", shot.ID, "error", err)
			metrics.PipelineStageTotal.WithLabelValues("score", "defaulted").Inc()
			scoring = domain.DefaultScoringResult()
			return
		}
		metrics.PipelineStageTotal.WithLabelValues("score", "ok").Inc()
		scoring = result
	}()

	go func() {
		defer wg.Done()
		result, err := c.guardBag(ctx, shot, user)
		if err != nil {
			c.logger.WarnContext(ctx, "equipment comparison failed, substituting default",
				"shot_id", shot.ID, "error", err)
			metrics.PipelineStageTotal.WithLabelValues("compare-equipment", "defaulted").Inc()
			bagAnalysis = domain.DefaultBagAnalysisResult()
			return
		}
		metrics.PipelineStageTotal.WithLabelValues("compare-equipment", "ok").Inc()
		bagAnalysis = result
	}()

	go func() {
		defer wg.Done()
		result, err := c.guardValidate(ctx, shot)
		if err != nil {
			c.logger.WarnContext(ctx, "validate stage failed, failing open",
				"shot_id", shot.ID, "error", err)
			metrics.PipelineStageTotal.WithLabelValues("validate", "defaulted").Inc()
			validation = domain.DefaultValidationResult()
			return
		}
		metrics.PipelineStageTotal.WithLabelValues("validate", "ok").Inc()
		validation = result
	}()

	wg.Wait()
	return scoring, bagAnalysis, validation
}

// guardScore converts a panic in the score worker into an error so the
// barrier always completes.
func (c *Coordinator) guardScore(ctx context.Context, shot domain.NormalizedShot, user *domain.User) (result *domain.ScoringResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("score worker panic: %v", r)
		}
	}()
	return c.score.Score(ctx, shot, user)
}

func (c *Coordinator) guardBag(ctx context.Context, shot domain.NormalizedShot, user *domain.User) (result *domain.BagAnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("equipment worker panic: %v", r)
		}
	}()
	return c.bag.Compare(ctx, shot, user)
}

func (c *Coordinator) guardValidate(ctx context.Context, shot domain.NormalizedShot) (result *domain.ValidationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validate worker panic: %v", r)
		}
	}()
	return c.validate.Validate(ctx, shot)
}

// publishAsync persists the shot and publishes the feed event on a
// detached goroutine. The request path never waits for either; their
// failures are logged and swallowed.
func (c *Coordinator) publishAsync(ctx context.Context, shot domain.NormalizedShot, scoring *domain.ScoringResult, user *domain.User) {
	// Keep the request-scoped logger, with its request id, on the
	// detached publish path.
	log := logger.FromContextOrDefault(ctx, c.logger)
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("background publish panic recovered", "panic", r)
			}
		}()

		// Detach from the request context so an already-returned
		// response does not cancel the side effects.
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if c.shots != nil {
			if err := c.shots.Save(bgCtx, &shot); err != nil {
				log.Warn("failed to persist shot", "shot_id", shot.ID, "error", err)
			}
		}

		if err := c.feed.Publish(bgCtx, shot, scoring, user); err != nil {
			metrics.PipelineStageTotal.WithLabelValues("publish-feed", "failed").Inc()
			log.Warn("feed publish failed", "shot_id", shot.ID, "error", err)
			return
		}
		metrics.PipelineStageTotal.WithLabelValues("publish-feed", "ok").Inc()
	}()
}

// ProcessBatch runs the single-shot pipeline over each payload
// sequentially, preserving per-item ordering and bounding memory, then
// runs one aggregate equipment-comparison pass over the successfully
// processed shots.
func (c *Coordinator) ProcessBatch(ctx context.Context, payloads []*domain.MediaPayload, user *domain.User, reqCtx *domain.RequestContext) *BatchResponse {
	batch := &BatchResponse{
		Results: make([]*Response, 0, len(payloads)),
	}

	var processedShots []domain.NormalizedShot
	for _, payload := range payloads {
		resp := c.ProcessUpload(ctx, payload, user, reqCtx)
		batch.Results = append(batch.Results, resp)
		batch.Processed++
		if resp.Success {
			batch.Successful++
			if resp.Shot != nil {
				processedShots = append(processedShots, *resp.Shot)
			}
		} else {
			batch.Failed++
		}
	}

	if len(processedShots) > 0 {
		batch.BagAnalysis = c.bag.Aggregate(processedShots)
	}

	batch.Success = batch.Failed == 0
	return batch
}

// Close waits for detached background work to drain. Intended for
// graceful shutdown.
func (c *Coordinator) Close() {
	c.background.Wait()
}
