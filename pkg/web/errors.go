package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/flow"
	"github.com/voxflow/voxflow/pkg/persistence"
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

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func unprocessable(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType("unprocessable").
		WithDetail(detail)

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps flow service and storage errors to problem+json
// responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsFlowNotFound(err):
		return notFound(c, "Flow not found")
	case errors.Is(err, flow.ErrAlreadyPublished), errors.Is(err, flow.ErrNotPublished):
		return conflict(c, err.Error())
	case errors.Is(err, flow.ErrInvalidFlow),
		errors.Is(err, flow.ErrNoStartNode),
		errors.Is(err, flow.ErrMultipleStartNodes),
		errors.Is(err, flow.ErrDanglingConnection),
		errors.Is(err, flow.ErrDuplicateNodeID):
		return badRequest(c, err.Error())
	case persistence.IsPublishedFlowNotFound(err):
		return conflict(c, "Flow is not published")
	case persistence.IsExecutionNotFound(err):
		return notFound(c, "Execution not found")
	case engine.IsValidation(err):
		return unprocessable(c, err.Error())
	default:
		return internalError(c, err)
	}
}
