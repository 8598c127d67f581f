package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/household-daily-budget/internal/api_gateway/middleware"
	"github.com/household-daily-budget/internal/api_gateway/service"
	"github.com/household-daily-budget/internal/domain/shared"
)

// HouseholdHandler handles household parameters, categories and the activity feed
type HouseholdHandler struct {
	householdService service.HouseholdService
	logger           *slog.Logger
}

// NewHouseholdHandler creates a new household handler
func NewHouseholdHandler(logger *slog.Logger, householdService service.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{
		householdService: householdService,
		logger:           logger,
	}
}

func (h *HouseholdHandler) GetParameters(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	params, err := h.householdService.GetParameters(c.Request.Context(), householdID)
	if err != nil {
		respondError(c, h.logger, "get parameters", err)
		return
	}

	RespondOK(c, mapParameters(params))
}

// UpdateParameters creates or edits the monthly figures; the first call sets the household up
func (h *HouseholdHandler) UpdateParameters(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req ParametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	start, err := optionalDate(req.PeriodStartDate)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	params, err := h.householdService.UpdateParameters(c.Request.Context(), service.UpdateParametersCommand{
		HouseholdID:     householdID,
		ActorID:         middleware.GetActorID(c),
		Currency:        req.Currency,
		MonthlyIncome:   optionalMinor(req.MonthlyIncome),
		FixedExpenses:   optionalMinor(req.FixedExpenses),
		SavingsGoal:     optionalMinor(req.SavingsGoal),
		PeriodStartDate: start,
	})
	if err != nil {
		respondError(c, h.logger, "update parameters", err)
		return
	}

	RespondOK(c, mapParameters(params))
}

func (h *HouseholdHandler) ListCategories(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	categories, err := h.householdService.ListCategories(c.Request.Context(), householdID)
	if err != nil {
		respondError(c, h.logger, "list categories", err)
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		response = append(response, mapCategory(cat))
	}
	RespondOK(c, response)
}

func (h *HouseholdHandler) CreateCategory(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	category, err := h.householdService.CreateCategory(c.Request.Context(), service.CreateCategoryCommand{
		HouseholdID:    householdID,
		ActorID:        middleware.GetActorID(c),
		Name:           req.Name,
		Type:           shared.CategoryType(strings.ToLower(req.Type)),
		BudgetedAmount: shared.FromDecimal(req.BudgetedAmount),
	})
	if err != nil {
		respondError(c, h.logger, "create category", err)
		return
	}

	RespondCreated(c, mapCategory(category))
}

func (h *HouseholdHandler) UpdateCategory(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	categoryID, ok := pathUUID(c, "categoryId")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	category, err := h.householdService.UpdateCategory(c.Request.Context(), service.UpdateCategoryCommand{
		HouseholdID:    householdID,
		CategoryID:     categoryID,
		ActorID:        middleware.GetActorID(c),
		Name:           req.Name,
		BudgetedAmount: optionalMinor(req.BudgetedAmount),
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondError(c, h.logger, "update category", err)
		return
	}

	RespondOK(c, mapCategory(category))
}

// ListActivity pages through the household feed, newest first
func (h *HouseholdHandler) ListActivity(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	records, err := h.householdService.ListActivity(c.Request.Context(), householdID, pagination.Page, pagination.PerPage)
	if err != nil {
		respondError(c, h.logger, "list activity", err)
		return
	}

	response := make([]ActivityResponse, 0, len(records))
	for _, r := range records {
		response = append(response, mapActivity(r))
	}
	RespondOK(c, response)
}
