package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"insurance-core/internal/models"

	"github.com/gofiber/fiber/v3"
)

// writeError maps the error taxonomy onto HTTP statuses. Anything outside the
// taxonomy is a 500 and gets logged; taxonomy errors are the caller's fault and
// only surface in the response body.
func writeError(c fiber.Ctx, err error) error {
	var coded *models.CodedError
	if !errors.As(err, &coded) {
		slog.Error("unexpected error", "path", c.Path(), "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("INTERNAL", "Internal server error"))
	}

	return c.Status(statusFor(coded)).JSON(
		models.CreateErrorResponse(coded.Code, err.Error()))
}

func statusFor(coded *models.CodedError) int {
	switch coded {
	case models.ErrUnauthorized:
		return http.StatusForbidden
	case models.ErrNotFound:
		return http.StatusNotFound
	case models.ErrInvalidInput, models.ErrInvalidAmount, models.ErrInvalidPremium:
		return http.StatusBadRequest
	case models.ErrPaused, models.ErrInvalidState, models.ErrInvalidPolicyState,
		models.ErrInvalidClaimState, models.ErrAlreadyInitialized,
		models.ErrProposalNotApproved, models.ErrVotingPeriodEnded,
		models.ErrVotingPeriodNotEnded:
		return http.StatusConflict
	case models.ErrInsufficientFunds, models.ErrCoverageExceeded,
		models.ErrLiquidityViolation, models.ErrOverflow:
		return http.StatusUnprocessableEntity
	case models.ErrNotTrustedContract:
		return http.StatusForbidden
	case models.ErrNotInitialized:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
