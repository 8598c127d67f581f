package handler

import (
	"encoding/json"
	"time"

	"github.com/household-daily-budget/internal/api_gateway/service"
	"github.com/household-daily-budget/internal/budget_engine/calculator"
	engine "github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/budget"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/household-daily-budget/internal/domain/syncstate"
	"github.com/shopspring/decimal"
)

// Amounts travel as decimal major units ("20.50") and are stored as minor units

// CreateEntryRequest represents a request to add a ledger entry
type CreateEntryRequest struct {
	Description    string          `json:"description" binding:"required"`
	Subcategory    string          `json:"subcategory"`
	Amount         decimal.Decimal `json:"amount"`
	Category       string          `json:"category" binding:"required"`
	Direction      string          `json:"direction" binding:"required"`
	Date           string          `json:"date" binding:"required"`
	AuthorName     string          `json:"author_name"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// UpdateEntryRequest carries the fields to change; omitted fields stay as they are
type UpdateEntryRequest struct {
	ExpectedVersion *int             `json:"expected_version" binding:"omitempty,min=1"`
	Description     *string          `json:"description"`
	Subcategory     *string          `json:"subcategory"`
	Amount          *decimal.Decimal `json:"amount"`
	Category        *string          `json:"category"`
	Direction       *string          `json:"direction"`
	Date            *string          `json:"date"`
	Status          *string          `json:"status"`
}

// DeleteEntryRequest optionally carries the version the client last saw
type DeleteEntryRequest struct {
	ExpectedVersion *int `form:"expected_version" binding:"omitempty,min=1"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID             string `json:"id"`
	HouseholdID    string `json:"household_id"`
	AuthorID       string `json:"author_id"`
	AuthorName     string `json:"author_name,omitempty"`
	Description    string `json:"description"`
	Subcategory    string `json:"subcategory,omitempty"`
	Amount         string `json:"amount"`
	Category       string `json:"category"`
	Direction      string `json:"direction"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Version        int    `json:"version"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// EntryMutationResponse is returned by create, update and delete
type EntryMutationResponse struct {
	Entry      EntryResponse            `json:"entry"`
	Sync       *SyncOutcomeResponse     `json:"sync,omitempty"`
	Categories []CategoryChangeResponse `json:"categories,omitempty"`
	Duplicate  bool                     `json:"duplicate"`
}

// SyncOutcomeResponse reports the version a write produced
type SyncOutcomeResponse struct {
	NewVersion    int  `json:"new_version"`
	HasConflict   bool `json:"has_conflict"`
	ConflictCount int  `json:"conflict_count"`
}

// CategoryChangeResponse reports an adjusted running total
type CategoryChangeResponse struct {
	CategoryID string `json:"category_id"`
	Type       string `json:"type"`
	Old        string `json:"old"`
	New        string `json:"new"`
	Remaining  string `json:"remaining"`
}

// SyncRecordResponse represents the version state of one entry
type SyncRecordResponse struct {
	EntryID       string `json:"entry_id"`
	Version       int    `json:"version"`
	HasConflict   bool   `json:"has_conflict"`
	ConflictCount int    `json:"conflict_count"`
	LastMutation  string `json:"last_mutation"`
	LastSyncAt    string `json:"last_sync_at"`
	SyncedBy      string `json:"synced_by"`
}

// ParametersRequest carries the monthly figures; omitted fields stay as they are
type ParametersRequest struct {
	Currency        string           `json:"currency" binding:"omitempty,len=3"`
	MonthlyIncome   *decimal.Decimal `json:"monthly_income"`
	FixedExpenses   *decimal.Decimal `json:"fixed_expenses"`
	SavingsGoal     *decimal.Decimal `json:"savings_goal"`
	PeriodStartDate *string          `json:"period_start_date"`
}

// ParametersResponse represents household parameters in API responses
type ParametersResponse struct {
	HouseholdID     string `json:"household_id"`
	Currency        string `json:"currency"`
	MonthlyIncome   string `json:"monthly_income"`
	FixedExpenses   string `json:"fixed_expenses"`
	SavingsGoal     string `json:"savings_goal"`
	VariableIncome  string `json:"variable_income"`
	PeriodStartDate string `json:"period_start_date"`
	UpdatedAt       string `json:"updated_at"`
}

// CreateCategoryRequest represents a request to add a category
type CreateCategoryRequest struct {
	Name           string          `json:"name" binding:"required"`
	Type           string          `json:"type" binding:"required,oneof=fixed variable savings"`
	BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
}

// UpdateCategoryRequest carries the category fields to change
type UpdateCategoryRequest struct {
	Name           *string          `json:"name"`
	BudgetedAmount *decimal.Decimal `json:"budgeted_amount"`
	IsActive       *bool            `json:"is_active"`
}

// CategoryResponse represents a category with its month-to-date standing
type CategoryResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	BudgetedAmount  string  `json:"budgeted_amount"`
	CurrentSpent    string  `json:"current_spent"`
	Remaining       string  `json:"remaining"`
	SpentPercentage float64 `json:"spent_percentage"`
	IsOverBudget    bool    `json:"is_over_budget"`
	IsActive        bool    `json:"is_active"`
}

// CategoryDeltaRequest adjusts the running total of a category type
type CategoryDeltaRequest struct {
	Type   string          `json:"type" binding:"required,oneof=fixed variable savings"`
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason" binding:"required,max=200"`
}

// DailyBudgetResponse represents a daily snapshot in API responses
type DailyBudgetResponse struct {
	Date                 string            `json:"date"`
	DailyBudgetAmount    string            `json:"daily_budget_amount"`
	TotalSpentToday      string            `json:"total_spent_today"`
	RemainingBudgetToday string            `json:"remaining_budget_today"`
	Breakdown            BreakdownResponse `json:"breakdown"`
	DaysRemaining        int               `json:"days_remaining"`
	VariableIncome       string            `json:"variable_income"`
	IsOverBudget         bool              `json:"is_over_budget"`
	IsCached             bool              `json:"is_cached"`
	CalculatedAt         string            `json:"calculated_at"`
}

// BreakdownResponse splits a day's spend by category type
type BreakdownResponse struct {
	FixedSpent         string `json:"fixed_spent"`
	VariableSpent      string `json:"variable_spent"`
	SavingsContributed string `json:"savings_contributed"`
}

// InvalidateRequest marks one date, or every date when Date is omitted, stale
type InvalidateRequest struct {
	Date   *string `json:"date"`
	Reason string  `json:"reason" binding:"required,max=200"`
}

// InvalidateResponse reports how many snapshots were marked stale
type InvalidateResponse struct {
	Invalidated int64 `json:"invalidated"`
}

// MaintenanceRequest names the repair to run
type MaintenanceRequest struct {
	Action string `json:"action" binding:"required"`
}

// OverviewResponse summarizes a household month
type OverviewResponse struct {
	Month                   string             `json:"month"`
	MonthlyIncome           string             `json:"monthly_income"`
	FixedExpenses           string             `json:"fixed_expenses"`
	SavingsGoal             string             `json:"savings_goal"`
	VariableIncome          string             `json:"variable_income"`
	Income                  string             `json:"income"`
	Spent                   BreakdownResponse  `json:"spent"`
	DaysRemaining           int                `json:"days_remaining"`
	ProjectedDailyRemaining string             `json:"projected_daily_remaining"`
	OnTrack                 bool               `json:"on_track"`
	Categories              []CategoryResponse `json:"categories"`
}

// ActivityResponse represents one feed item
type ActivityResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	ActorID    string          `json:"actor_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurred_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// EntryQuery selects entries of one date or of a date range
type EntryQuery struct {
	Date string `form:"date"`
	From string `form:"from"`
	To   string `form:"to"`
}

func money(minor int64) string {
	return shared.FormatMinor(minor)
}

func mapEntryToResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:             e.ID.String(),
		HouseholdID:    e.HouseholdID.String(),
		AuthorID:       e.AuthorID,
		AuthorName:     e.AuthorName,
		Description:    e.Description,
		Subcategory:    e.Subcategory,
		Amount:         money(e.Amount),
		Category:       string(e.Category),
		Direction:      string(e.Direction),
		Date:           shared.FormatDate(e.Date),
		Status:         string(e.Status),
		IdempotencyKey: e.IdempotencyKey,
		Version:        e.Version,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
}

func mapEntryResult(r *service.EntryResult) EntryMutationResponse {
	resp := EntryMutationResponse{
		Entry:     mapEntryToResponse(r.Entry),
		Duplicate: r.Duplicate,
	}
	if r.Sync != nil {
		resp.Sync = &SyncOutcomeResponse{
			NewVersion:    r.Sync.NewVersion,
			HasConflict:   r.Sync.HasConflict,
			ConflictCount: r.Sync.ConflictCount,
		}
	}
	for _, c := range r.Categories {
		resp.Categories = append(resp.Categories, mapCategoryChange(c))
	}
	return resp
}

func mapCategoryChange(c engine.CategoryChange) CategoryChangeResponse {
	return CategoryChangeResponse{
		CategoryID: c.Result.CategoryID.String(),
		Type:       string(c.Type),
		Old:        money(c.Result.Old),
		New:        money(c.Result.New),
		Remaining:  money(c.Result.Remaining()),
	}
}

func mapCategoryDelta(d *engine.CategoryDelta) CategoryChangeResponse {
	return CategoryChangeResponse{
		CategoryID: d.CategoryID.String(),
		Type:       string(d.Type),
		Old:        money(d.Old),
		New:        money(d.New),
		Remaining:  money(d.Remaining),
	}
}

func mapSyncRecord(r *syncstate.Record) SyncRecordResponse {
	return SyncRecordResponse{
		EntryID:       r.ResourceID.String(),
		Version:       r.Version,
		HasConflict:   r.HasConflict,
		ConflictCount: r.ConflictCount,
		LastMutation:  string(r.LastMutation),
		LastSyncAt:    r.LastSyncAt.Format(time.RFC3339),
		SyncedBy:      r.SyncedBy,
	}
}

func mapParameters(p *budget.Parameters) ParametersResponse {
	return ParametersResponse{
		HouseholdID:     p.HouseholdID.String(),
		Currency:        p.Currency,
		MonthlyIncome:   money(p.MonthlyIncome),
		FixedExpenses:   money(p.FixedExpenses),
		SavingsGoal:     money(p.SavingsGoal),
		VariableIncome:  money(p.VariableIncome()),
		PeriodStartDate: shared.FormatDate(p.PeriodStartDate),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}

func mapCategory(c *budget.Category) CategoryResponse {
	return CategoryResponse{
		ID:              c.ID.String(),
		Name:            c.Name,
		Type:            string(c.Type),
		BudgetedAmount:  money(c.BudgetedAmount),
		CurrentSpent:    money(c.CurrentSpent),
		Remaining:       money(c.Remaining()),
		SpentPercentage: c.SpentPercentage(),
		IsOverBudget:    c.IsOverBudget(),
		IsActive:        c.IsActive,
	}
}

func mapBreakdown(spent, variable, savings int64) BreakdownResponse {
	return BreakdownResponse{
		FixedSpent:         money(spent),
		VariableSpent:      money(variable),
		SavingsContributed: money(savings),
	}
}

func mapDailyBudget(b *engine.DailyBudget) DailyBudgetResponse {
	return DailyBudgetResponse{
		Date:                 shared.FormatDate(b.Date),
		DailyBudgetAmount:    money(b.DailyBudgetAmount),
		TotalSpentToday:      money(b.TotalSpentToday),
		RemainingBudgetToday: money(b.RemainingBudgetToday),
		Breakdown:            mapBreakdown(b.Breakdown.FixedSpent, b.Breakdown.VariableSpent, b.Breakdown.SavingsContributed),
		DaysRemaining:        b.DaysRemaining,
		VariableIncome:       money(b.VariableIncome),
		IsOverBudget:         b.IsOverBudget,
		IsCached:             b.IsCached,
		CalculatedAt:         b.CalculatedAt.Format(time.RFC3339),
	}
}

func mapOverview(o *calculator.MonthlyOverview) OverviewResponse {
	resp := OverviewResponse{
		Month:                   o.Month,
		MonthlyIncome:           money(o.MonthlyIncome),
		FixedExpenses:           money(o.FixedExpenses),
		SavingsGoal:             money(o.SavingsGoal),
		VariableIncome:          money(o.VariableIncome),
		Income:                  money(o.Income),
		Spent:                   mapBreakdown(o.Spent.FixedSpent, o.Spent.VariableSpent, o.Spent.SavingsContributed),
		DaysRemaining:           o.DaysRemaining,
		ProjectedDailyRemaining: money(o.ProjectedDailyRemaining),
		OnTrack:                 o.OnTrack,
		Categories:              make([]CategoryResponse, 0, len(o.Categories)),
	}
	for _, c := range o.Categories {
		resp.Categories = append(resp.Categories, CategoryResponse{
			ID:              c.ID,
			Name:            c.Name,
			Type:            string(c.Type),
			BudgetedAmount:  money(c.BudgetedAmount),
			CurrentSpent:    money(c.CurrentSpent),
			Remaining:       money(c.Remaining),
			SpentPercentage: c.SpentPercentage,
			IsOverBudget:    c.IsOverBudget,
			IsActive:        c.IsActive,
		})
	}
	return resp
}

func mapActivity(r *activity.Record) ActivityResponse {
	return ActivityResponse{
		ID:         r.ID.String(),
		Type:       string(r.Type),
		ActorID:    r.ActorID,
		Payload:    r.Payload,
		OccurredAt: r.OccurredAt.Format(time.RFC3339),
	}
}
