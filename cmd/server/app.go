package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/beargallbladder/golfswarm/internal/agents"
	"github.com/beargallbladder/golfswarm/internal/auth"
	"github.com/beargallbladder/golfswarm/internal/bus"
	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/generation"
	"github.com/beargallbladder/golfswarm/internal/health"
	"github.com/beargallbladder/golfswarm/internal/pipeline"
	"github.com/beargallbladder/golfswarm/internal/platform/cache"
	"github.com/beargallbladder/golfswarm/internal/platform/gemini"
	"github.com/beargallbladder/golfswarm/internal/platform/kafka"
	"github.com/beargallbladder/golfswarm/internal/platform/postgres"
	"github.com/beargallbladder/golfswarm/internal/queue"
	"github.com/beargallbladder/golfswarm/internal/swarm"
)

// Task types routed to specialized executors. Anything else falls through
// to the scheduler's generic handler.
const (
	taskTypePerformanceTune  = "performance-tune"
	taskTypeCacheMaintenance = "cache-maintenance"
	taskTypeMonitoringProbe  = "monitoring-probe"
	taskTypeMobileLayout     = "mobile-layout"
	taskTypeEngagement       = "engagement-report"
	taskTypeRetailerSync     = "retailer-sync"
	taskTypeSecurityScan     = "security-scan"
	taskTypeCapacityReview   = "capacity-review"
)

// application holds the shared dependencies so Run and cleanup can manage
// their lifecycles in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	verifier auth.TokenVerifier

	shotStore   *postgres.PostgresShotStore
	resultCache *cache.TTLCache

	coordinator *pipeline.Coordinator
	scheduler   *swarm.Scheduler
	queue       *queue.Manager
	monitor     *health.Monitor
	router      *bus.Router

	feedPublisher *kafka.FeedPublisher
}

// newApplication wires every component. The order matters: platform
// clients first, then workers, then the orchestrators that consume them.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.verifier, err = auth.NewTokenVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	app.shotStore = postgres.NewPostgresShotStore(db)
	queueStore := postgres.NewPostgresQueueStore(db)
	app.resultCache = cache.New(cfg.Cache)

	inferencer, err := gemini.NewGeminiInferencer(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inferencer: %w", err)
	}

	// Feed publishing degrades to a no-op when Kafka is not configured.
	var feedPublisher agents.FeedPublisher = agents.NoopPublisher{}
	if len(cfg.Feed.Brokers) > 0 {
		app.feedPublisher, err = kafka.NewFeedPublisher(cfg.Feed, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize feed publisher: %w", err)
		}
		feedPublisher = app.feedPublisher
	} else {
		logger.Info("no feed brokers configured, feed publishing disabled")
	}

	workers := newPipelineWorkers(inferencer, feedPublisher, logger)

	app.coordinator = pipeline.NewCoordinator(pipeline.CoordinatorDeps{
		Ingest:     workers.ingest,
		Transcribe: workers.transcribe,
		Normalize:  workers.normalize,
		Score:      workers.score,
		Bag:        workers.bag,
		Validate:   workers.validate,
		Present:    workers.present,
		Feed:       workers.feed,
		Shots:      app.shotStore,
	}, logger)

	// The monitor and router come before the swarm executors: the router
	// gates delivery on monitor health, and the monitoring worker
	// broadcasts metric breaches through the router.
	app.monitor = health.NewMonitor(cfg.Health, logger)
	app.router = bus.NewRouter(logger, bus.WithHealthChecker(app.monitor))

	perfWorker := agents.NewPerformanceOptimizerWorker()
	mobileWorker := agents.NewMobileUXWorker()
	seoWorker := agents.NewSEOWorker()
	securityWorker := agents.NewSecurityWorker()
	scaleWorker := agents.NewScalabilityWorker()
	retailerWorker := agents.NewRetailerWorker()
	engagementWorker := agents.NewEngagementWorker()
	cacheWorker := agents.NewCacheWorker(app.resultCache)
	monitoringWorker := agents.NewMonitoringWorker(routerAlertSink{router: app.router})

	app.monitor.RegisterAll(append(workers.all(), []agents.Agent{
		perfWorker, mobileWorker, seoWorker, securityWorker, scaleWorker,
		retailerWorker, engagementWorker, cacheWorker, monitoringWorker,
	}...))

	app.queue = queue.NewManager(cfg.Queue, logger, queue.WithJobStore(queueStore))
	app.queue.Register(queue.TaskTypeSEO, queue.ExecutorHandler(seoWorker))
	app.queue.Register(queue.TaskTypeAnalyticsIngest, queue.AnalyticsIngestHandler(app.shotStore))
	app.queue.Register(queue.TaskTypeCleanup, queue.CleanupHandler(app.resultCache))

	app.scheduler = swarm.NewScheduler(logger,
		swarm.WithMaxConcurrent(int64(cfg.Swarm.MaxConcurrent)),
		swarm.WithResultCache(app.resultCache, cfg.Swarm.ResultTTL),
		swarm.WithQueue(app.queue),
		swarm.WithGate(app.monitor),
	)
	app.scheduler.Register(taskTypePerformanceTune, perfWorker)
	app.scheduler.Register(taskTypeCacheMaintenance, cacheWorker)
	app.scheduler.Register(taskTypeMonitoringProbe, monitoringWorker)
	app.scheduler.Register(taskTypeMobileLayout, mobileWorker)
	app.scheduler.Register(taskTypeEngagement, engagementWorker)
	app.scheduler.Register(queue.TaskTypeSEO, seoWorker)
	app.scheduler.Register(taskTypeRetailerSync, retailerWorker)
	app.scheduler.Register(taskTypeSecurityScan, securityWorker)
	app.scheduler.Register(taskTypeCapacityReview, scaleWorker)

	// Every registered executor doubles as a bus subscriber for its
	// category's messages.
	for _, exec := range app.scheduler.Executors() {
		app.router.Subscribe(executorSubscriber(exec))
	}

	app.monitor.Start()
	if err := app.queue.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start queue manager: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// pipelineWorkers groups the shot-pipeline agents so the coordinator and
// the health monitor are wired from the same set.
type pipelineWorkers struct {
	bridge     *agents.SimulatorBridge
	ingest     *agents.IngestAgent
	transcribe *agents.TranscribeAgent
	normalize  *agents.NormalizeAgent
	score      *agents.ScoreAgent
	bag        *agents.BagAgent
	validate   *agents.ValidateAgent
	present    *agents.PresentAgent
	feed       *agents.FeedAgent
}

func newPipelineWorkers(inferencer generation.Inferencer, publisher agents.FeedPublisher, logger *slog.Logger) pipelineWorkers {
	bridge := agents.NewSimulatorBridge()
	return pipelineWorkers{
		bridge:     bridge,
		ingest:     agents.NewIngestAgent(bridge, logger),
		transcribe: agents.NewTranscribeAgent(inferencer, logger),
		normalize:  agents.NewNormalizeAgent(),
		score:      agents.NewScoreAgent(),
		bag:        agents.NewBagAgent(),
		validate:   agents.NewValidateAgent(),
		present:    agents.NewPresentAgent(),
		feed:       agents.NewFeedAgent(publisher, logger),
	}
}

// all lists every pipeline worker for health registration, including the
// simulator bridge the ingest stage depends on.
func (w pipelineWorkers) all() []agents.Agent {
	return []agents.Agent{
		w.ingest, w.transcribe, w.normalize, w.score, w.bag,
		w.validate, w.present, w.feed, w.bridge,
	}
}

// routerAlertSink lets workers broadcast category alerts through the
// message router. Delivery is best effort; a malformed alert is dropped.
type routerAlertSink struct {
	router *bus.Router
}

func (s routerAlertSink) Alert(ctx context.Context, category string, payload json.RawMessage) {
	msg, err := bus.NewMessage(category, false, payload)
	if err != nil {
		return
	}
	s.router.Publish(ctx, *msg)
}

// executorSubscriber adapts a roadmap executor into a bus subscriber. The
// message payload becomes the task payload; the message category doubles as
// the task type so generic executors can still make sense of it.
func executorSubscriber(exec agents.Executor) bus.Subscriber {
	return bus.SubscriberFunc{
		SubscriberName: exec.Name(),
		Handle: func(ctx context.Context, msg bus.Message) error {
			task := domain.Task{
				ID:       msg.ID,
				Category: msg.Category,
				Type:     msg.Category,
				Payload:  msg.Payload,
			}
			_, err := exec.Execute(ctx, task)
			return err
		},
	}
}

// Run starts the HTTP server and blocks until shutdown completes.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup drains background work and releases resources. Called after the
// HTTP server has stopped accepting requests.
func (app *application) cleanup() {
	app.coordinator.Close()
	app.queue.Stop()
	app.monitor.Stop()

	if app.feedPublisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.feedPublisher.Close(ctx); err != nil {
			app.logger.Error("failed to close feed publisher", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}

	app.logger.Info("application shutdown completed")
}
