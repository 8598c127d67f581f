package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/syncstate"
)

// respondError maps a service error onto the response status:
// validation 400, unknown resource 404, duplicate category 409,
// incomplete setup 422, store failure 503.
func respondError(c *gin.Context, logger *slog.Logger, action string, err error) {
	var (
		validationErr  *shared.ValidationError
		calculationErr *shared.CalculationError
		householdErr   budget.ErrHouseholdNotFound
		categoryErr    budget.ErrCategoryNotFound
		duplicateErr   budget.ErrDuplicateCategory
		entryErr       ledger.ErrEntryNotFound
		syncRecordErr  syncstate.ErrRecordNotFound
	)

	switch {
	case errors.As(err, &validationErr):
		RespondBadRequest(c, validationErr.Error())
	case errors.As(err, &householdErr):
		RespondNotFound(c, "Household not found")
	case errors.As(err, &entryErr):
		RespondNotFound(c, "Entry not found")
	case errors.As(err, &categoryErr):
		RespondNotFound(c, "Category not found")
	case errors.As(err, &syncRecordErr):
		RespondNotFound(c, "No sync record for this entry")
	case errors.As(err, &duplicateErr):
		RespondConflict(c, "A category named "+duplicateErr.Name+" already exists")
	case errors.As(err, &calculationErr):
		RespondUnprocessable(c, "SETUP_INCOMPLETE", calculationErr.Reason)
	case shared.IsTransient(err):
		logger.Error("Store unavailable", "action", action, "error", err)
		RespondServiceUnavailable(c, "A backing store is unavailable, retry later")
	default:
		logger.Error("Request failed", "action", action, "error", err)
		RespondInternalError(c)
	}
}
