package handlers

import (
	"context"
	"net/http"

	"insurance-core/internal/models"
	"insurance-core/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ClaimHandler struct {
	claimService *services.ClaimService
}

func NewClaimHandler(claimService *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

func (h *ClaimHandler) Register(app *fiber.App, authMw fiber.Handler) {
	group := app.Group("/core/api/v1/claims", authMw)

	group.Post("/", h.SubmitClaim)                     // POST /claims
	group.Post("/:id/review", h.StartReview)           // POST /claims/:id/review
	group.Post("/:id/approve", h.ApproveClaim)         // POST /claims/:id/approve
	group.Post("/:id/reject", h.RejectClaim)           // POST /claims/:id/reject
	group.Post("/:id/settle", h.SettleClaim)           // POST /claims/:id/settle
	group.Get("/stats", h.GetStats)                    // GET  /claims/stats
	group.Get("/by-policy/:policy_id", h.GetByPolicy)  // GET  /claims/by-policy/:policy_id
	group.Get("/:id", h.GetClaim)                      // GET  /claims/:id
	group.Get("/:id/evidence", h.GetEvidence)          // GET  /claims/:id/evidence
}

func (h *ClaimHandler) SubmitClaim(c fiber.Ctx) error {
	var req models.SubmitClaimRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	claim, err := h.claimService.SubmitClaim(c.Context(), actorFromCtx(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(models.CreateSuccessResponse(claim))
}

func (h *ClaimHandler) StartReview(c fiber.Ctx) error {
	return h.transition(c, h.claimService.StartReview, models.ClaimUnderReview)
}

func (h *ClaimHandler) ApproveClaim(c fiber.Ctx) error {
	return h.transition(c, h.claimService.ApproveClaim, models.ClaimApproved)
}

func (h *ClaimHandler) RejectClaim(c fiber.Ctx) error {
	return h.transition(c, h.claimService.RejectClaim, models.ClaimRejected)
}

func (h *ClaimHandler) SettleClaim(c fiber.Ctx) error {
	return h.transition(c, h.claimService.SettleClaim, models.ClaimSettled)
}

func (h *ClaimHandler) transition(c fiber.Ctx, fn func(ctx context.Context, actor models.Actor, id uuid.UUID) error, to models.ClaimStatus) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid claim ID format"))
	}

	if err := fn(c.Context(), actorFromCtx(c), id); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"id":     id,
		"status": to,
	}))
}

func (h *ClaimHandler) GetClaim(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid claim ID format"))
	}

	claim, err := h.claimService.GetClaim(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(claim))
}

func (h *ClaimHandler) GetEvidence(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid claim ID format"))
	}

	payload, err := h.claimService.GetEvidence(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	c.Set("Content-Type", "application/octet-stream")
	return c.Status(http.StatusOK).Send(payload)
}

func (h *ClaimHandler) GetByPolicy(c fiber.Ctx) error {
	policyID, err := uuid.Parse(c.Params("policy_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}

	claims, err := h.claimService.GetClaimsByPolicy(c.Context(), policyID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"claims":    claims,
		"count":     len(claims),
		"policy_id": policyID,
	}))
}

func (h *ClaimHandler) GetStats(c fiber.Ctx) error {
	stats, err := h.claimService.GetStats(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(stats))
}
