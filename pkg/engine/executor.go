package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vallabhn1/MallCCTV/pkg/dispatch"
	"github.com/vallabhn1/MallCCTV/pkg/graph"
	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/otelhelper"
	"github.com/vallabhn1/MallCCTV/pkg/persistence"
)

// RetryPolicy bounds the exponential backoff applied to transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy retries transient failures twice before escalating.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Executor walks one instance's state through its graph. Within an instance
// execution is strictly sequential: compute node, merge patch, persist
// alerts, checkpoint, route. Concurrency lives above, in the scheduler.
type Executor struct {
	checkpoints persistence.CheckpointStore
	alerts      persistence.AlertStore
	dispatcher  dispatch.Dispatcher
	retry       RetryPolicy
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewExecutor creates an executor. The dispatcher may be nil when no outbound
// alert channel is configured.
func NewExecutor(
	logger *slog.Logger,
	checkpoints persistence.CheckpointStore,
	alerts persistence.AlertStore,
	dispatcher dispatch.Dispatcher,
	retry RetryPolicy,
) *Executor {
	if dispatcher == nil {
		dispatcher = dispatch.NopDispatcher{}
	}

	return &Executor{
		checkpoints: checkpoints,
		alerts:      alerts,
		dispatcher:  dispatcher,
		retry:       retry,
		logger:      logger,
		tracer:      otel.Tracer("github.com/vallabhn1/MallCCTV/pkg/engine"),
	}
}

// Run executes the instance to a terminal node or a fatal error. If the
// thread already has checkpoints, execution resumes from the latest one and
// the passed initial state is ignored; nodes completed before the checkpoint
// are never re-executed.
func (e *Executor) Run(ctx context.Context, def *graph.Definition, initial *models.ExecutionState) (*models.ExecutionState, error) {
	logger := e.logger.With(
		"workflow", def.WorkflowType(),
		"thread_id", initial.ThreadID,
	)

	state, nextSeq, err := e.loadOrInit(ctx, initial)
	if err != nil {
		return nil, err
	}

	if state.Status == models.StatusCompleted {
		logger.InfoContext(ctx, "Thread already completed, nothing to do")

		return state, nil
	}

	current := state.NextNode
	if current == "" {
		current = def.Start()
	}

	logger.InfoContext(ctx, "Starting execution", "node", current, "sequence_no", nextSeq)

	for current != graph.EndID {
		// Cancellation is observed only at node boundaries so the last
		// checkpoint always reflects a fully completed node.
		if err := ctx.Err(); err != nil {
			logger.InfoContext(ctx, "Execution cancelled", "node", current)

			return state, err
		}

		node, ok := def.Node(current)
		if !ok {
			err := fmt.Errorf("%w: %s", graph.ErrUnknownNode, current)

			return e.failRun(ctx, logger, state, nextSeq, current, err)
		}

		patch, routing, err := e.executeNode(ctx, logger, node, state)
		if err != nil {
			return e.failRun(ctx, logger, state, nextSeq, current, err)
		}

		state.Apply(patch)

		// Alerts are committed to the durable store before the node counts
		// as complete; dispatch happens after the checkpoint.
		if err := e.persistAlerts(ctx, patch.Alerts); err != nil {
			return e.failRun(ctx, logger, state, nextSeq, current, err)
		}

		next, err := def.Next(current, routing)
		if err != nil {
			return e.failRun(ctx, logger, state, nextSeq, current, err)
		}

		state.NextNode = next
		if next == graph.EndID {
			state.Status = models.StatusCompleted
		}

		if err := e.saveCheckpoint(ctx, state, nextSeq); err != nil {
			logger.ErrorContext(ctx, "Failed to persist checkpoint", "node", current, "error", err)

			return state, &NodeError{NodeID: current, Err: fmt.Errorf("%w: %w", ErrCheckpointWrite, err)}
		}

		nextSeq++

		e.dispatchAlerts(ctx, logger, patch.Alerts)

		logger.DebugContext(ctx, "Node completed", "node", current, "next", next)
		current = next
	}

	logger.InfoContext(ctx, "Execution completed", "checkpoints", nextSeq, "alerts", len(state.Alerts))

	return state, nil
}

// loadOrInit returns the state to run and the sequence number of the next
// checkpoint to write.
func (e *Executor) loadOrInit(ctx context.Context, initial *models.ExecutionState) (*models.ExecutionState, int, error) {
	latest, err := e.checkpoints.LatestCheckpoint(ctx, initial.ThreadID)
	if err != nil {
		if persistence.IsCheckpointNotFound(err) {
			return initial, 0, nil
		}

		return nil, 0, fmt.Errorf("failed to load latest checkpoint: %w", err)
	}

	state := latest.State.Clone()
	if state.Status == models.StatusFailed || state.Status == models.StatusSuspended {
		state.Status = models.StatusRunning
		state.ErrorMessage = ""
	}

	return state, latest.SequenceNo + 1, nil
}

func (e *Executor) executeNode(ctx context.Context, logger *slog.Logger, node graph.Node, state *models.ExecutionState) (models.StatePatch, graph.Routing, error) {
	spanCtx, span := e.tracer.Start(ctx, "node."+node.ID(), trace.WithAttributes(
		attribute.String("mallcctv.workflow", string(state.WorkflowType)),
		attribute.String("mallcctv.thread_id", state.ThreadID),
		attribute.String("mallcctv.node_id", node.ID()),
	))
	defer span.End()

	var (
		patch   models.StatePatch
		routing graph.Routing
	)

	err := e.withRetry(spanCtx, logger, "execute node "+node.ID(), func() error {
		var nodeErr error

		patch, routing, nodeErr = node.Execute(spanCtx, state)

		return nodeErr
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return models.StatePatch{}, graph.Routing{}, err
	}

	return patch, routing, nil
}

func (e *Executor) persistAlerts(ctx context.Context, alerts []models.Alert) error {
	for i := range alerts {
		alert := alerts[i]

		err := e.withRetry(ctx, e.logger, "insert alert "+alert.AlertType, func() error {
			return e.alerts.InsertAlert(ctx, &alert)
		})
		if err != nil {
			return fmt.Errorf("failed to persist alert %s: %w", alert.AlertType, err)
		}
	}

	return nil
}

func (e *Executor) dispatchAlerts(ctx context.Context, logger *slog.Logger, alerts []models.Alert) {
	for i := range alerts {
		if err := e.dispatcher.Publish(ctx, &alerts[i]); err != nil {
			// Best effort: the alert is already durably stored.
			logger.WarnContext(ctx, "Failed to dispatch alert",
				"alert_type", alerts[i].AlertType, "error", err)
		}
	}
}

func (e *Executor) saveCheckpoint(ctx context.Context, state *models.ExecutionState, seq int) error {
	state.SequenceNo = seq
	checkpoint := &models.Checkpoint{
		ThreadID:   state.ThreadID,
		SequenceNo: seq,
		State:      state.Clone(),
		WrittenAt:  time.Now().UTC(),
	}

	return e.withRetry(ctx, e.logger, "save checkpoint", func() error {
		return e.checkpoints.SaveCheckpoint(ctx, checkpoint)
	})
}

// failRun records a failed checkpoint with the error and halts the instance.
// The state's cursor still points at the failing node, so a later
// start_or_resume re-enters exactly there.
func (e *Executor) failRun(ctx context.Context, logger *slog.Logger, state *models.ExecutionState, seq int, nodeID string, cause error) (*models.ExecutionState, error) {
	logger.ErrorContext(ctx, "Node failed fatally", "node", nodeID, "error", cause)

	state.Status = models.StatusFailed
	state.ErrorMessage = cause.Error()
	state.NextNode = nodeID

	if err := e.saveCheckpoint(ctx, state, seq); err != nil {
		logger.ErrorContext(ctx, "Failed to record failure checkpoint", "node", nodeID, "error", err)
	}

	return state, &NodeError{NodeID: nodeID, Err: cause}
}

// withRetry runs op, retrying transient failures with exponential backoff up
// to the policy bound. Non-transient errors return immediately.
func (e *Executor) withRetry(ctx context.Context, logger *slog.Logger, what string, op func() error) error {
	delay := e.retry.BaseDelay

	var lastErr error

	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) {
			return lastErr
		}

		if attempt == e.retry.MaxAttempts {
			break
		}

		logger.WarnContext(ctx, "Transient failure, retrying",
			"op", what, "attempt", attempt, "delay", delay, "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > e.retry.MaxDelay {
			delay = e.retry.MaxDelay
		}
	}

	return fmt.Errorf("retries exhausted for %s: %w", what, lastErr)
}
