// Package scheduler drives workflow runs from time-based and detection-based
// triggers. It derives deterministic thread IDs per trigger period, enforces
// per-thread leases and per-workflow concurrency ceilings, and hands the
// actual graph execution to the engine.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vallabhn1/MallCCTV/pkg/graph"
	"github.com/vallabhn1/MallCCTV/pkg/models"
)

const (
	hourlyCronSpec = "0 * * * *"
	dailyCronSpec  = "0 0 * * *"

	DefaultSampleInterval = 30 * time.Second
	DefaultCoalesceWindow = 2 * time.Second
	DefaultConcurrency    = 8
)

// Catalog resolves workflow types to executable graphs and initial state.
type Catalog interface {
	Definition(workflowType models.WorkflowType) (*graph.Definition, error)
	InitialState(workflowType models.WorkflowType, entityID, threadID string, payload map[string]any) (*models.ExecutionState, error)
}

// Runner executes one workflow graph for one thread. Implemented by the
// engine executor.
type Runner interface {
	Run(ctx context.Context, def *graph.Definition, state *models.ExecutionState) (*models.ExecutionState, error)
}

// Options tunes trigger cadence and concurrency. Zero values fall back to the
// package defaults.
type Options struct {
	// Entities lists the targets each workflow type runs against, e.g. camera
	// IDs for peak_hour and zone names for queue.
	Entities map[models.WorkflowType][]string

	// Concurrency caps simultaneous runs per workflow type. Triggers above
	// the cap are shed with ErrBackpressure.
	Concurrency map[models.WorkflowType]int

	// SampleInterval is the queue workflow's fixed sampling period.
	SampleInterval time.Duration

	// CoalesceWindow buckets realtime detection triggers so a burst for the
	// same entity collapses onto a single run.
	CoalesceWindow time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Scheduler struct {
	logger  *slog.Logger
	catalog Catalog
	runner  Runner
	opts    Options

	leases *LeaseRegistry

	mu    sync.Mutex
	slots map[models.WorkflowType]chan struct{}

	cron    *cron.Cron
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped atomic.Bool
}

func NewScheduler(logger *slog.Logger, catalog Catalog, runner Runner, opts Options) *Scheduler {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}

	if opts.CoalesceWindow <= 0 {
		opts.CoalesceWindow = DefaultCoalesceWindow
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		logger:  logger.With("module", "scheduler"),
		catalog: catalog,
		runner:  runner,
		opts:    opts,
		leases:  NewLeaseRegistry(),
		slots:   make(map[models.WorkflowType]chan struct{}),
	}
}

// StartOrResume triggers one run for (workflowType, entityID) at the current
// trigger period. The thread ID is returned immediately and the run proceeds
// asynchronously; a thread that already completed is a cheap no-op inside the
// engine. Returns ErrLeaseHeld when the same thread is already running, and
// ErrBackpressure when the workflow type is at its concurrency ceiling.
func (s *Scheduler) StartOrResume(ctx context.Context, workflowType models.WorkflowType, entityID string, payload map[string]any) (string, error) {
	if s.stopped.Load() {
		return "", ErrStopped
	}

	def, err := s.catalog.Definition(workflowType)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflowType)
	}

	runIndex := RunIndexFor(workflowType, s.opts.Now(), s.opts.SampleInterval, s.opts.CoalesceWindow)
	threadID := models.ThreadID(workflowType, entityID, runIndex)

	release, err := s.leases.Acquire(threadID)
	if err != nil {
		return threadID, err
	}

	slot, err := s.acquireSlot(workflowType)
	if err != nil {
		release()

		return threadID, err
	}

	state, err := s.catalog.InitialState(workflowType, entityID, threadID, payload)
	if err != nil {
		s.releaseSlot(slot)
		release()

		return threadID, fmt.Errorf("build initial state: %w", err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer release()
		defer s.releaseSlot(slot)

		if _, err := s.runner.Run(ctx, def, state); err != nil {
			s.logger.Error("Workflow run failed",
				"workflow_type", workflowType,
				"entity_id", entityID,
				"thread_id", threadID,
				"error", err)

			return
		}

		s.logger.Debug("Workflow run finished",
			"workflow_type", workflowType,
			"entity_id", entityID,
			"thread_id", threadID)
	}()

	return threadID, nil
}

// TriggerDetection handles a realtime detection event for an entity. Bursts
// inside the coalescing window share a thread ID, so the duplicates lose the
// lease race and are reported as coalesced rather than failed.
func (s *Scheduler) TriggerDetection(ctx context.Context, entityID string, payload map[string]any) (string, bool, error) {
	threadID, err := s.StartOrResume(ctx, models.WorkflowOvercrowding, entityID, payload)
	if errors.Is(err, ErrLeaseHeld) {
		return threadID, true, nil
	}

	return threadID, false, err
}

// Start registers the cron triggers and the queue sampling loop. Hourly
// workflows fire at the top of each hour and the daily demographics rollup at
// midnight UTC.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		),
	)

	trigger := func(workflowType models.WorkflowType) func() {
		return func() { s.fire(ctx, workflowType) }
	}

	if _, err := s.cron.AddFunc(hourlyCronSpec, trigger(models.WorkflowPeakHour)); err != nil {
		return fmt.Errorf("register hourly trigger: %w", err)
	}

	if _, err := s.cron.AddFunc(hourlyCronSpec, trigger(models.WorkflowPopularity)); err != nil {
		return fmt.Errorf("register hourly trigger: %w", err)
	}

	if _, err := s.cron.AddFunc(dailyCronSpec, trigger(models.WorkflowDemographics)); err != nil {
		return fmt.Errorf("register daily trigger: %w", err)
	}

	s.cron.Start()

	s.wg.Add(1)

	go s.sampleQueues(ctx)

	s.logger.Info("Scheduler started",
		"sample_interval", s.opts.SampleInterval,
		"coalesce_window", s.opts.CoalesceWindow)

	return nil
}

// fire triggers every configured entity of a workflow type once.
func (s *Scheduler) fire(ctx context.Context, workflowType models.WorkflowType) {
	for _, entityID := range s.opts.Entities[workflowType] {
		if _, err := s.StartOrResume(ctx, workflowType, entityID, nil); err != nil {
			s.logger.Warn("Trigger shed",
				"workflow_type", workflowType,
				"entity_id", entityID,
				"error", err)
		}
	}
}

func (s *Scheduler) sampleQueues(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, models.WorkflowQueue)
		}
	}
}

// Stop halts new triggers and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.stopped.Store(true)

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.cancel != nil {
		s.cancel()
	}

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// Wait blocks until all currently running workflows finish.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) acquireSlot(workflowType models.WorkflowType) (chan struct{}, error) {
	s.mu.Lock()

	slots, ok := s.slots[workflowType]
	if !ok {
		limit := s.opts.Concurrency[workflowType]
		if limit <= 0 {
			limit = DefaultConcurrency
		}

		slots = make(chan struct{}, limit)
		s.slots[workflowType] = slots
	}

	s.mu.Unlock()

	select {
	case slots <- struct{}{}:
		return slots, nil
	default:
		return nil, ErrBackpressure
	}
}

func (s *Scheduler) releaseSlot(slots chan struct{}) {
	<-slots
}
