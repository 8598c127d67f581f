package service

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/household-daily-budget/internal/domain/shared"
)

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateCommand maps the first failing field to a ValidationError
func validateCommand(v *validator.Validate, cmd any) error {
	err := v.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return shared.NewValidationError(snakeCase(fe.Field()), "failed %s=%s", fe.Tag(), fe.Param())
		}
		return shared.NewValidationError(snakeCase(fe.Field()), "failed %s", fe.Tag())
	}
	return shared.NewValidationError("request", "%s", err.Error())
}

// snakeCase turns a Go field name into its JSON spelling, HouseholdID -> household_id
func snakeCase(name string) string {
	var b strings.Builder
	var prev rune
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 && unicode.IsLower(prev) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
		prev = rune(name[i])
	}
	return b.String()
}
