// Package validate checks user input before it reaches storage. The schema's
// CHECK constraints are a backstop; these field-level messages are the
// primary validation path.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"pocketledger/internal/database/repository"
	"pocketledger/internal/money"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

// Errors aggregates field errors.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Expense validates an expense record prior to create or update.
func Expense(e repository.Expense) error {
	var errs Errors
	if strings.TrimSpace(e.Description) == "" {
		errs = append(errs, FieldError{"description", "must not be empty"})
	}
	if e.AmountNative <= 0 {
		errs = append(errs, FieldError{"amount_native", "must be greater than zero"})
	}
	if !money.ValidCurrency(e.CurrencyCode) {
		errs = append(errs, FieldError{"currency_code", fmt.Sprintf("%q is not a recognized ISO-4217 code", e.CurrencyCode)})
	}
	if e.FxRateToBase <= 0 {
		errs = append(errs, FieldError{"fx_rate_to_base", "must be greater than zero"})
	}
	if e.BaseAmount < 0 {
		errs = append(errs, FieldError{"base_amount", "must not be negative"})
	}
	if err := Date(e.Date); err != nil {
		errs = append(errs, FieldError{"date", err.Error()})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Date checks an ISO 8601 calendar date, exactly YYYY-MM-DD.
func Date(s string) error {
	if len(s) != 10 {
		return fmt.Errorf("must be YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("must be a valid YYYY-MM-DD date")
	}
	return nil
}

// CategoryName validates a new or renamed category against the existing set.
// Duplicates compare case-insensitively; a near-miss of an existing name gets
// a "did you mean" hint so typos don't silently spawn twin categories.
func CategoryName(name string, existing []repository.Category, selfID int64) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return FieldError{"name", "must not be empty"}
	}
	lower := strings.ToLower(trimmed)
	for _, c := range existing {
		if c.ID == selfID {
			continue
		}
		if strings.ToLower(c.Name) == lower {
			return FieldError{"name", fmt.Sprintf("category %q already exists", c.Name)}
		}
	}
	if hint := nearestName(lower, existing, selfID); hint != "" {
		return FieldError{"name", fmt.Sprintf("too close to existing category %q; rename it instead", hint)}
	}
	return nil
}

// nearestName returns an existing category name within edit distance 1 of
// candidate, or "".
func nearestName(candidate string, existing []repository.Category, selfID int64) string {
	for _, c := range existing {
		if c.ID == selfID {
			continue
		}
		if levenshtein.ComputeDistance(candidate, strings.ToLower(c.Name)) <= 1 {
			return c.Name
		}
	}
	return ""
}
