package handlers

import (
	"net/http"

	"insurance-core/internal/models"
	"insurance-core/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PolicyHandler struct {
	policyService *services.PolicyService
}

func NewPolicyHandler(policyService *services.PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

func (h *PolicyHandler) Register(app *fiber.App, authMw fiber.Handler) {
	group := app.Group("/core/api/v1/policies", authMw)

	group.Post("/", h.IssuePolicy)              // POST /policies
	group.Post("/:id/cancel", h.CancelPolicy)   // POST /policies/:id/cancel
	group.Post("/:id/expire", h.ExpirePolicy)   // POST /policies/:id/expire
	group.Get("/stats", h.GetStats)             // GET  /policies/stats
	group.Get("/holder/:holder", h.GetByHolder) // GET  /policies/holder/:holder
	group.Get("/:id", h.GetPolicy)              // GET  /policies/:id
	group.Get("/:id/state", h.GetPolicyState)   // GET  /policies/:id/state
}

func (h *PolicyHandler) IssuePolicy(c fiber.Ctx) error {
	var req models.IssuePolicyRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	policy, err := h.policyService.IssuePolicy(c.Context(), actorFromCtx(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(models.CreateSuccessResponse(policy))
}

func (h *PolicyHandler) CancelPolicy(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}

	if err := h.policyService.CancelPolicy(c.Context(), actorFromCtx(c), id); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"id":     id,
		"status": models.PolicyCancelled,
	}))
}

func (h *PolicyHandler) ExpirePolicy(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}

	if err := h.policyService.ExpirePolicy(c.Context(), actorFromCtx(c), id); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"id":     id,
		"status": models.PolicyExpired,
	}))
}

func (h *PolicyHandler) GetPolicy(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}

	policy, err := h.policyService.GetPolicy(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(policy))
}

func (h *PolicyHandler) GetPolicyState(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}

	status, err := h.policyService.GetPolicyState(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"id":     id,
		"status": status,
	}))
}

func (h *PolicyHandler) GetByHolder(c fiber.Ctx) error {
	holder := c.Params("holder")
	policies, err := h.policyService.GetPoliciesByHolder(c.Context(), holder)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"policies": policies,
		"count":    len(policies),
		"holder":   holder,
	}))
}

func (h *PolicyHandler) GetStats(c fiber.Ctx) error {
	stats, err := h.policyService.GetStats(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(stats))
}
