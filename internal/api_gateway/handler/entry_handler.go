package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/household-daily-budget/internal/api_gateway/middleware"
	"github.com/household-daily-budget/internal/api_gateway/service"
	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
)

// EntryHandler handles HTTP requests for ledger entries
type EntryHandler struct {
	entryService service.EntryService
	logger       *slog.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(logger *slog.Logger, entryService service.EntryService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		logger:       logger,
	}
}

// Create records a new entry. A repeated submission answers 200 with the original entry.
func (h *EntryHandler) Create(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	date, err := shared.ParseDate(req.Date)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	idempotencyKey := req.IdempotencyKey
	if header := c.GetHeader("Idempotency-Key"); header != "" {
		idempotencyKey = header
	}

	result, err := h.entryService.CreateEntry(c.Request.Context(), service.CreateEntryCommand{
		HouseholdID:    householdID,
		AuthorID:       middleware.GetActorID(c),
		AuthorName:     req.AuthorName,
		Description:    req.Description,
		Subcategory:    req.Subcategory,
		Amount:         shared.FromDecimal(req.Amount),
		Category:       shared.CategoryType(strings.ToLower(req.Category)),
		Direction:      shared.Direction(strings.ToLower(req.Direction)),
		Date:           date,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		respondError(c, h.logger, "create entry", err)
		return
	}

	if result.Duplicate {
		RespondOK(c, mapEntryResult(result))
		return
	}
	RespondCreated(c, mapEntryResult(result))
}

// Update applies a partial edit. A stale expected_version is accepted and reported as a conflict.
func (h *EntryHandler) Update(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "entryId")
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	patch, err := req.patch()
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.entryService.UpdateEntry(c.Request.Context(), service.UpdateEntryCommand{
		HouseholdID:     householdID,
		EntryID:         entryID,
		ActorID:         middleware.GetActorID(c),
		ExpectedVersion: req.ExpectedVersion,
		Patch:           patch,
	})
	if err != nil {
		respondError(c, h.logger, "update entry", err)
		return
	}

	RespondOK(c, mapEntryResult(result))
}

// Delete removes an entry and returns it as it was
func (h *EntryHandler) Delete(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "entryId")
	if !ok {
		return
	}

	var req DeleteEntryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		RespondBadRequest(c, "Invalid query: "+err.Error())
		return
	}

	result, err := h.entryService.DeleteEntry(c.Request.Context(), service.DeleteEntryCommand{
		HouseholdID:     householdID,
		EntryID:         entryID,
		ActorID:         middleware.GetActorID(c),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		respondError(c, h.logger, "delete entry", err)
		return
	}

	RespondOK(c, mapEntryResult(result))
}

// GetByID returns one entry of the household
func (h *EntryHandler) GetByID(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "entryId")
	if !ok {
		return
	}

	entry, err := h.entryService.GetEntry(c.Request.Context(), householdID, entryID)
	if err != nil {
		respondError(c, h.logger, "get entry", err)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

// List returns the entries of ?date=YYYY-MM-DD, or of ?from=&to=, or of today when neither is given
func (h *EntryHandler) List(c *gin.Context) {
	householdID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var query EntryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query: "+err.Error())
		return
	}

	var (
		entries []*ledger.Entry
		err     error
	)
	switch {
	case query.From != "" || query.To != "":
		var from, to time.Time
		if from, err = shared.ParseDate(query.From); err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		if to, err = shared.ParseDate(query.To); err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		entries, err = h.entryService.ListByRange(c.Request.Context(), householdID, from, to)
	default:
		date := time.Now().UTC()
		if query.Date != "" {
			if date, err = shared.ParseDate(query.Date); err != nil {
				RespondBadRequest(c, err.Error())
				return
			}
		}
		entries, err = h.entryService.ListByDate(c.Request.Context(), householdID, date)
	}
	if err != nil {
		respondError(c, h.logger, "list entries", err)
		return
	}

	response := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, mapEntryToResponse(e))
	}
	RespondWithData(c, http.StatusOK, response)
}

// patch converts the request into a ledger patch
func (r UpdateEntryRequest) patch() (ledger.Patch, error) {
	date, err := optionalDate(r.Date)
	if err != nil {
		return ledger.Patch{}, err
	}
	p := ledger.Patch{
		Description: r.Description,
		Subcategory: r.Subcategory,
		Amount:      optionalMinor(r.Amount),
		Date:        date,
	}
	if r.Category != nil {
		category := shared.CategoryType(strings.ToLower(*r.Category))
		p.Category = &category
	}
	if r.Direction != nil {
		direction := shared.Direction(strings.ToLower(*r.Direction))
		p.Direction = &direction
	}
	if r.Status != nil {
		status := shared.EntryStatus(strings.ToLower(*r.Status))
		p.Status = &status
	}
	return p, nil
}
