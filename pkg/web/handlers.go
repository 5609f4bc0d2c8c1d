// Package web provides the REST API for flow management and execution.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/flow"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/persistence"
	"github.com/voxflow/voxflow/pkg/stats"
)

// ExecuteRequest is the body of POST /flows/:id/executions.
type ExecuteRequest struct {
	Input     map[string]any `json:"input"`
	Variables map[string]any `json:"variables"`
}

// APIHandlers exposes flow management and execution over HTTP.
type APIHandlers struct {
	flows      *flow.Service
	executor   *engine.Executor
	executions persistence.ExecutionRepository
	aggregator *stats.Aggregator
	logger     *slog.Logger
}

// NewAPIHandlers creates the API handler set. executions may be nil to skip
// result persistence.
func NewAPIHandlers(
	flows *flow.Service,
	executor *engine.Executor,
	executions persistence.ExecutionRepository,
	aggregator *stats.Aggregator,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		flows:      flows,
		executor:   executor,
		executions: executions,
		aggregator: aggregator,
		logger:     logger.With("module", "api"),
	}
}

// Register mounts all routes on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	flows := app.Group("/v1/flows")
	flows.Get("/", h.ListFlows)
	flows.Post("/", h.CreateFlow)
	flows.Get("/:id", h.GetFlow)
	flows.Put("/:id", h.UpdateFlow)
	flows.Delete("/:id", h.DeleteFlow)
	flows.Post("/:id/publish", h.PublishFlow)
	flows.Post("/:id/unpublish", h.UnpublishFlow)
	flows.Post("/:id/executions", h.ExecuteFlow)
	flows.Get("/:id/executions", h.ListExecutions)
	flows.Get("/:id/stats", h.GetFlowStats)

	app.Get("/v1/executions/:id", h.GetExecution)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *APIHandlers) ListFlows(c fiber.Ctx) error {
	flows, err := h.flows.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"flows": flows, "total_count": len(flows)})
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var body models.Flow
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "Invalid flow payload: "+err.Error())
	}

	created, err := h.flows.Create(c.Context(), &body)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	found, err := h.flows.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	var body models.Flow
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "Invalid flow payload: "+err.Error())
	}

	body.ID = c.Params("id")

	updated, err := h.flows.Update(c.Context(), &body)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	if err := h.flows.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishFlow(c fiber.Ctx) error {
	published, issues, err := h.flows.Publish(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if issues == nil {
		issues = []flow.ValidationIssue{}
	}

	return c.JSON(fiber.Map{"flow": published, "issues": issues})
}

func (h *APIHandlers) UnpublishFlow(c fiber.Ctx) error {
	draft, err := h.flows.Unpublish(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(draft)
}

// ExecuteFlow runs a published flow synchronously and returns the full
// execution result. Run failures still respond 200: the result's status and
// error fields document the outcome, while a flow that cannot start at all
// maps to a problem response.
func (h *APIHandlers) ExecuteFlow(c fiber.Ctx) error {
	var body ExecuteRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "Invalid execution payload: "+err.Error())
		}
	}

	target, err := h.flows.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if body.Input == nil {
		body.Input = map[string]any{}
	}

	if _, ok := body.Input["trigger_type"]; !ok {
		body.Input["trigger_type"] = "api"
	}

	result, execErr := h.executor.Execute(c.Context(), target, body.Input, body.Variables)
	if execErr != nil && engine.IsValidation(execErr) {
		return handleServiceError(c, execErr)
	}

	if h.executions != nil {
		if err := h.executions.SaveExecution(c.Context(), result); err != nil {
			h.logger.Error("Failed to persist execution result",
				"execution_id", result.ExecutionID,
				"error", err,
			)
		}
	}

	return c.JSON(result)
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	if h.executions == nil {
		return notFound(c, "Execution history is not enabled")
	}

	results, err := h.executions.ExecutionsByFlow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if results == nil {
		results = []*models.ExecutionResult{}
	}

	return c.JSON(fiber.Map{"executions": results, "total_count": len(results)})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	if h.executions == nil {
		return notFound(c, "Execution history is not enabled")
	}

	result, err := h.executions.ExecutionByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// GetFlowStats returns live aggregates when the aggregator tracks the flow,
// falling back to the persisted stats document.
func (h *APIHandlers) GetFlowStats(c fiber.Ctx) error {
	id := c.Params("id")

	if h.aggregator != nil {
		if snapshot, ok := h.aggregator.Snapshot(id); ok {
			return c.JSON(snapshot)
		}
	}

	found, err := h.flows.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found.Stats)
}
