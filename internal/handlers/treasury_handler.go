package handlers

import (
	"net/http"

	"insurance-core/internal/models"
	"insurance-core/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type TreasuryHandler struct {
	treasuryService *services.TreasuryService
}

func NewTreasuryHandler(treasuryService *services.TreasuryService) *TreasuryHandler {
	return &TreasuryHandler{treasuryService: treasuryService}
}

func (h *TreasuryHandler) Register(app *fiber.App, authMw fiber.Handler) {
	group := app.Group("/core/api/v1/treasury", authMw)

	group.Post("/fees", h.DepositFee)                        // POST /treasury/fees
	group.Post("/pause", h.SetPause)                         // POST /treasury/pause
	group.Put("/fee-rate", h.UpdateFeeRate)                  // PUT  /treasury/fee-rate
	group.Post("/trusted-sources", h.RegisterTrustedSource)  // POST /treasury/trusted-sources
	group.Get("/state", h.GetState)                          // GET  /treasury/state
	group.Get("/allocations/:purpose", h.GetAllocation)      // GET  /treasury/allocations/:purpose

	proposals := group.Group("/proposals")
	proposals.Post("/", h.ProposeWithdrawal)           // POST /treasury/proposals
	proposals.Post("/:id/approve", h.ApproveProposal)  // POST /treasury/proposals/:id/approve
	proposals.Post("/:id/reject", h.RejectProposal)    // POST /treasury/proposals/:id/reject
	proposals.Post("/:id/execute", h.ExecuteProposal)  // POST /treasury/proposals/:id/execute
	proposals.Get("/", h.ListProposals)                // GET  /treasury/proposals
	proposals.Get("/:id", h.GetProposal)               // GET  /treasury/proposals/:id
}

func (h *TreasuryHandler) DepositFee(c fiber.Ctx) error {
	var req models.DepositFeeRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.treasuryService.DepositFee(c.Context(), actorFromCtx(c), req); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"source":   req.Source,
		"amount":   req.Amount,
		"fee_type": req.FeeType,
	}))
}

func (h *TreasuryHandler) ProposeWithdrawal(c fiber.Ctx) error {
	var req models.ProposeWithdrawalRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	proposal, err := h.treasuryService.ProposeWithdrawal(c.Context(), actorFromCtx(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(models.CreateSuccessResponse(proposal))
}

func (h *TreasuryHandler) ApproveProposal(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid proposal ID format"))
	}

	if err := h.treasuryService.ApproveProposal(c.Context(), actorFromCtx(c), id); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"id":     id,
		"status": models.ProposalApproved,
	}))
}

func (h *TreasuryHandler) RejectProposal(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid proposal ID format"))
	}

	if err := h.treasuryService.RejectProposal(c.Context(), actorFromCtx(c), id); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"id":     id,
		"status": models.ProposalRejected,
	}))
}

func (h *TreasuryHandler) ExecuteProposal(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid proposal ID format"))
	}

	if err := h.treasuryService.ExecuteProposal(c.Context(), actorFromCtx(c), id); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"id":     id,
		"status": models.ProposalExecuted,
	}))
}

func (h *TreasuryHandler) SetPause(c fiber.Ctx) error {
	var req models.SetPauseRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.treasuryService.SetPause(c.Context(), actorFromCtx(c), req.Paused); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"paused": req.Paused,
	}))
}

func (h *TreasuryHandler) UpdateFeeRate(c fiber.Ctx) error {
	var req models.UpdateFeeRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.treasuryService.UpdateFeePercentage(c.Context(), actorFromCtx(c), req.FeeBps); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"fee_bps": req.FeeBps,
	}))
}

func (h *TreasuryHandler) RegisterTrustedSource(c fiber.Ctx) error {
	var req models.RegisterTrustedSourceRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.treasuryService.RegisterTrustedSource(c.Context(), actorFromCtx(c), req.Source); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(models.CreateSuccessResponse(map[string]any{
		"source": req.Source,
	}))
}

func (h *TreasuryHandler) GetState(c fiber.Ctx) error {
	state, err := h.treasuryService.GetState(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(state))
}

func (h *TreasuryHandler) GetProposal(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid proposal ID format"))
	}

	proposal, err := h.treasuryService.GetProposal(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(proposal))
}

func (h *TreasuryHandler) ListProposals(c fiber.Ctx) error {
	proposals, err := h.treasuryService.ListProposals(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"proposals": proposals,
		"count":     len(proposals),
	}))
}

func (h *TreasuryHandler) GetAllocation(c fiber.Ctx) error {
	purpose := models.AllocationPurpose(c.Params("purpose"))
	if !models.ValidPurpose(purpose) {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Unknown allocation purpose"))
	}

	record, err := h.treasuryService.GetAllocation(c.Context(), purpose)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(record))
}
