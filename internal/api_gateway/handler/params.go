package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/household-daily-budget/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// pathUUID parses a UUID route parameter, answering 400 when it is malformed
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pathDate parses a YYYY-MM-DD route parameter, answering 400 when it is malformed
func pathDate(c *gin.Context, name string) (time.Time, bool) {
	date, err := shared.ParseDate(c.Param(name))
	if err != nil {
		RespondBadRequest(c, err.Error())
		return time.Time{}, false
	}
	return date, true
}

// optionalDate parses a date pointer from a request body
func optionalDate(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	date, err := shared.ParseDate(*value)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// optionalMinor converts an optional decimal amount into minor units
func optionalMinor(value *decimal.Decimal) *int64 {
	if value == nil {
		return nil
	}
	minor := shared.FromDecimal(*value)
	return &minor
}

// monthReference picks the day an overview of month is computed for: today for the
// current month, the last day for a past month and the first day for a future one
func monthReference(month string, now time.Time) (time.Time, error) {
	today := shared.NormalizeDate(now)
	if month == "" {
		return today, nil
	}
	first, err := shared.ParseMonth(month)
	if err != nil {
		return time.Time{}, err
	}
	from, to := shared.MonthBounds(first)
	switch {
	case today.Before(from):
		return from, nil
	case today.After(to):
		return to, nil
	default:
		return today, nil
	}
}
