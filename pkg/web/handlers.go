package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/persistence"
)

const defaultAlertLimit = 50

// RunTrigger starts or resumes workflow runs. Implemented by the scheduler.
type RunTrigger interface {
	StartOrResume(ctx context.Context, workflowType models.WorkflowType, entityID string, payload map[string]any) (string, error)
}

type APIHandlers struct {
	trigger  RunTrigger
	store    persistence.Persistence
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAPIHandlers(logger *slog.Logger, trigger RunTrigger, store persistence.Persistence, validate *validator.Validate) *APIHandlers {
	return &APIHandlers{
		trigger:  trigger,
		store:    store,
		validate: validate,
		logger:   logger.With("module", "web"),
	}
}

// StartRun triggers one workflow run and returns its thread ID.
func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	var req StartRunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	threadID, err := h.trigger.StartOrResume(c.Context(), models.WorkflowType(req.WorkflowType), req.EntityID, req.Payload)
	if err != nil {
		return handleTriggerError(c, err)
	}

	h.logger.Info("Run triggered via API",
		"workflow_type", req.WorkflowType,
		"entity_id", req.EntityID,
		"thread_id", threadID)

	return c.Status(fiber.StatusAccepted).JSON(StartRunResponse{ThreadID: threadID})
}

// GetRun returns the latest checkpoint summary of a thread.
func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	threadID := c.Params("threadID")

	latest, err := h.store.LatestCheckpoint(c.Context(), threadID)
	if err != nil {
		if persistence.IsCheckpointNotFound(err) {
			return notFound(c, "unknown thread")
		}

		return internalError(c, err)
	}

	return c.JSON(RunStatusResponse{
		ThreadID:     latest.ThreadID,
		Status:       latest.State.Status,
		SequenceNo:   latest.SequenceNo,
		NextNode:     latest.State.NextNode,
		ErrorMessage: latest.State.ErrorMessage,
		AlertCount:   len(latest.State.Alerts),
	})
}

// GetRunCheckpoints returns a thread's full checkpoint history in sequence
// order.
func (h *APIHandlers) GetRunCheckpoints(c fiber.Ctx) error {
	threadID := c.Params("threadID")

	history, err := h.store.CheckpointHistory(c.Context(), threadID)
	if err != nil {
		return internalError(c, err)
	}

	if len(history) == 0 {
		return notFound(c, "unknown thread")
	}

	response := make([]CheckpointResponse, 0, len(history))
	for _, cp := range history {
		response = append(response, newCheckpointResponse(cp))
	}

	return c.JSON(response)
}

// GetAlerts lists recent alerts for an entity.
func (h *APIHandlers) GetAlerts(c fiber.Ctx) error {
	entityID := c.Query("entity_id")
	if entityID == "" {
		return badRequest(c, "entity_id query parameter is required")
	}

	limit := defaultAlertLimit

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return badRequest(c, "limit must be a positive integer")
		}

		limit = parsed
	}

	alerts, err := h.store.AlertsByEntity(c.Context(), entityID, limit)
	if err != nil {
		return internalError(c, err)
	}

	if alerts == nil {
		alerts = []*models.Alert{}
	}

	return c.JSON(alerts)
}

// HealthCheck reports whether the durable store is reachable.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.store.HealthCheck(c.Context()); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status": "healthy",
	})
}
