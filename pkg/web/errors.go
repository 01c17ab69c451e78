package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/vallabhn1/MallCCTV/pkg/persistence"
	"github.com/vallabhn1/MallCCTV/pkg/scheduler"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleTriggerError maps scheduler rejections onto HTTP statuses.
func handleTriggerError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scheduler.ErrLeaseHeld):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("run_in_flight").
			WithDetail("a run for this thread is already in flight")

		return c.Status(fiber.StatusConflict).JSON(problem)
	case errors.Is(err, scheduler.ErrBackpressure):
		problem := problems.NewStatusProblem(429).
			WithInstance(c.Path()).
			WithType("backpressure").
			WithDetail("workflow concurrency limit reached, retry later")

		return c.Status(fiber.StatusTooManyRequests).JSON(problem)
	case errors.Is(err, scheduler.ErrUnknownWorkflow):
		return badRequest(c, err.Error())
	case persistence.IsCheckpointNotFound(err):
		return notFound(c, "no checkpoints recorded for this thread")
	default:
		return internalError(c, err)
	}
}
