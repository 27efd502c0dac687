package handlers

import (
	"net/http"

	"insurance-core/internal/models"
	"insurance-core/internal/services"

	"github.com/gofiber/fiber/v3"
)

type PoolHandler struct {
	poolService *services.RiskPoolService
}

func NewPoolHandler(poolService *services.RiskPoolService) *PoolHandler {
	return &PoolHandler{poolService: poolService}
}

func (h *PoolHandler) Register(app *fiber.App, authMw fiber.Handler) {
	group := app.Group("/core/api/v1/pool", authMw)

	group.Post("/deposit", h.Deposit)                 // POST /pool/deposit
	group.Post("/withdraw", h.Withdraw)               // POST /pool/withdraw
	group.Post("/reserve", h.Reserve)                 // POST /pool/reserve
	group.Post("/release", h.Release)                 // POST /pool/release
	group.Post("/pause", h.SetPause)                  // POST /pool/pause
	group.Get("/ledger", h.GetLedger)                 // GET  /pool/ledger
	group.Get("/providers/:provider", h.GetProvider)  // GET  /pool/providers/:provider
}

func (h *PoolHandler) Deposit(c fiber.Ctx) error {
	var req models.PoolDepositRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.poolService.Deposit(c.Context(), actorFromCtx(c), req.Amount); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"amount": req.Amount,
	}))
}

func (h *PoolHandler) Withdraw(c fiber.Ctx) error {
	var req models.PoolWithdrawRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.poolService.Withdraw(c.Context(), actorFromCtx(c), req.Amount); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"amount": req.Amount,
	}))
}

func (h *PoolHandler) Reserve(c fiber.Ctx) error {
	var req models.PoolDepositRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.poolService.Reserve(c.Context(), actorFromCtx(c), req.Amount); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"reserved": req.Amount,
	}))
}

func (h *PoolHandler) Release(c fiber.Ctx) error {
	var req models.PoolDepositRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.poolService.Release(c.Context(), actorFromCtx(c), req.Amount); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"released": req.Amount,
	}))
}

func (h *PoolHandler) SetPause(c fiber.Ctx) error {
	var req models.SetPauseRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_INPUT", "Invalid request body"))
	}

	if err := h.poolService.SetPause(c.Context(), actorFromCtx(c), req.Paused); err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(map[string]any{
		"paused": req.Paused,
	}))
}

func (h *PoolHandler) GetLedger(c fiber.Ctx) error {
	ledger, err := h.poolService.GetLedger(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(ledger))
}

func (h *PoolHandler) GetProvider(c fiber.Ctx) error {
	provider, err := h.poolService.GetProvider(c.Context(), c.Params("provider"))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(provider))
}
