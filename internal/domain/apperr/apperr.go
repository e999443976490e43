package apperr

import "errors"

var (
	// input validation
	ErrInvalidInput = errors.New("invalid input")
	ErrLoanLocked   = errors.New("loan has recorded payments")

	// configuration
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrUnratableInput       = errors.New("unratable input")
	ErrExceedsMaxLtv        = errors.New("ltv exceeds all tariff tiers")

	// numerical
	ErrNonPositiveDefiniteCorrelation = errors.New("correlation matrix is not positive semi-definite")

	// allocation consistency
	ErrOverAllocatedCollateral = errors.New("collateral allocated above 100%")
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindNumerical     Kind = "numerical"
	KindAllocation    Kind = "allocation"
	KindUnknown       Kind = "unknown"
)

// KindOf classifies err for the orchestrating layer. Nothing in the core is
// retried, the caller decides what to do with each kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrLoanLocked):
		return KindValidation
	case errors.Is(err, ErrConfigurationMissing), errors.Is(err, ErrUnratableInput), errors.Is(err, ErrExceedsMaxLtv):
		return KindConfiguration
	case errors.Is(err, ErrNonPositiveDefiniteCorrelation):
		return KindNumerical
	case errors.Is(err, ErrOverAllocatedCollateral):
		return KindAllocation
	}
	return KindUnknown
}
