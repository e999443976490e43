package amortization

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/loan"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// decimals are compared as floats by gt/gte
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// validateTerms rejects terms before any period is computed.
func validateTerms(t loan.LoanTerms) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, describe(err))
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: StartDate is required", apperr.ErrInvalidInput)
	}
	if t.Schedule == loan.ScheduleInterestOnlyThenAnnuity && t.InterestOnlyMonths == 0 {
		return fmt.Errorf("%w: %s needs interest-only months", apperr.ErrInvalidInput, t.Schedule)
	}
	if !t.Schedule.Revolving() {
		if len(t.Draws) > 0 {
			return fmt.Errorf("%w: draws on non-revolving schedule %s", apperr.ErrInvalidInput, t.Schedule)
		}
		return nil
	}

	// draws must land inside the depot period so the amortized amount is
	// final when redemption starts
	lastDrawMonth := max(t.InterestOnlyMonths, 1)
	drawn := decimal.Zero
	for _, d := range t.Draws {
		if d.Month < 0 || d.Month >= lastDrawMonth {
			return fmt.Errorf("%w: draw in month %d outside depot period", apperr.ErrInvalidInput, d.Month)
		}
		if !d.Amount.IsPositive() {
			return fmt.Errorf("%w: draw amount must be positive", apperr.ErrInvalidInput)
		}
		drawn = drawn.Add(d.Amount)
	}
	if drawn.IsZero() {
		return fmt.Errorf("%w: amount drawn is not finalized", apperr.ErrInvalidInput)
	}
	if drawn.GreaterThan(t.Principal) {
		return fmt.Errorf("%w: drawn %s exceeds limit %s", apperr.ErrInvalidInput, drawn, t.Principal)
	}
	return nil
}

// describe maps validator errors to readable messages.
func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gt":
			msgs = append(msgs, field+" must be greater than "+e.Param())
		case "gte":
			msgs = append(msgs, field+" must be at least "+e.Param())
		case "ltfield":
			msgs = append(msgs, field+" must be less than "+e.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
