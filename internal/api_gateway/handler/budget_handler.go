package handler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/household-daily-budget/internal/api_gateway/middleware"
	engine "github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/syncstate"
)

// BudgetHandler serves daily budgets, cache control, conflicts and maintenance
type BudgetHandler struct {
	budgetService      engine.BudgetService
	maintenanceService engine.MaintenanceService
	now                func() time.Time
	logger             *slog.Logger
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(logger *slog.Logger, budgetService engine.BudgetService, maintenanceService engine.MaintenanceService) *BudgetHandler {
	return &BudgetHandler{
		budgetService:      budgetService,
		maintenanceService: maintenanceService,
		now:                time.Now,
		logger:             logger,
	}
}

// GetDailyBudget returns the budget of /budget/:date, recomputing it when stale
func (h *BudgetHandler) GetDailyBudget(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	date, ok := pathDate(c, "date")
	if !ok {
		return
	}

	result, err := h.budgetService.GetDailyBudget(c.Request.Context(), householdID, date)
	if err != nil {
		respondError(c, h.logger, "get daily budget", err)
		return
	}

	RespondOK(c, mapDailyBudget(result))
}

// Recalculate recomputes the budget of /budget/:date regardless of the cache
func (h *BudgetHandler) Recalculate(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	date, ok := pathDate(c, "date")
	if !ok {
		return
	}

	result, err := h.budgetService.ForceRecalculate(c.Request.Context(), householdID, date)
	if err != nil {
		respondError(c, h.logger, "recalculate daily budget", err)
		return
	}

	RespondOK(c, mapDailyBudget(result))
}

// Invalidate marks one date, or every date, stale
func (h *BudgetHandler) Invalidate(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req InvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	count, err := h.budgetService.Invalidate(c.Request.Context(), householdID, engine.InvalidationScope{Date: date}, req.Reason, middleware.GetActorID(c))
	if err != nil {
		respondError(c, h.logger, "invalidate snapshots", err)
		return
	}

	RespondOK(c, InvalidateResponse{Invalidated: count})
}

// ApplyCategoryDelta adjusts the running total of the household's category of a type
func (h *BudgetHandler) ApplyCategoryDelta(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req CategoryDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.budgetService.ApplyCategoryDelta(
		c.Request.Context(),
		householdID,
		shared.CategoryType(strings.ToLower(req.Type)),
		shared.FromDecimal(req.Delta),
		req.Reason,
		middleware.GetActorID(c),
	)
	if err != nil {
		respondError(c, h.logger, "apply category delta", err)
		return
	}

	RespondOK(c, mapCategoryDelta(result))
}

// GetSyncRecord returns the version state of one entry
func (h *BudgetHandler) GetSyncRecord(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "entryId")
	if !ok {
		return
	}

	record, err := h.budgetService.GetSyncRecord(c.Request.Context(), entryID)
	if err == nil && record.HouseholdID != householdID {
		err = syncstate.ErrRecordNotFound{ResourceID: entryID}
	}
	if err != nil {
		respondError(c, h.logger, "get sync record", err)
		return
	}

	RespondOK(c, mapSyncRecord(record))
}

// ResolveConflict clears the conflict flag of one entry
func (h *BudgetHandler) ResolveConflict(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "entryId")
	if !ok {
		return
	}

	if err := h.budgetService.ResolveConflict(c.Request.Context(), householdID, entryID, middleware.GetActorID(c)); err != nil {
		respondError(c, h.logger, "resolve conflict", err)
		return
	}

	RespondNoContent(c)
}

// ListConflicts returns every conflicted entry of the household
func (h *BudgetHandler) ListConflicts(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	records, err := h.budgetService.ListConflicts(c.Request.Context(), householdID)
	if err != nil {
		respondError(c, h.logger, "list conflicts", err)
		return
	}

	response := make([]SyncRecordResponse, 0, len(records))
	for _, r := range records {
		response = append(response, mapSyncRecord(r))
	}
	RespondOK(c, response)
}

// Overview summarizes ?month=YYYY-MM, the current month by default
func (h *BudgetHandler) Overview(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	asOf, err := monthReference(c.Query("month"), h.now())
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	overview, err := h.budgetService.Overview(c.Request.Context(), householdID, asOf)
	if err != nil {
		respondError(c, h.logger, "monthly overview", err)
		return
	}

	RespondOK(c, mapOverview(overview))
}

// Maintenance runs one household-wide repair and reports what it changed
func (h *BudgetHandler) Maintenance(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	report, err := h.maintenanceService.Run(c.Request.Context(), householdID, engine.MaintenanceAction(req.Action), middleware.GetActorID(c))
	if err != nil {
		respondError(c, h.logger, "maintenance", err)
		return
	}

	h.logger.Info("Maintenance finished",
		"household_id", householdID.String(),
		"action", report.Action,
		"affected", report.Affected,
		"failed", report.Failed)
	RespondOK(c, report)
}
