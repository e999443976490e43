package rating

import (
	"errors"
	"fmt"
	"slices"

	"loanportfolio/internal/domain/tariff"
)

// ValidateThresholds checks that the bands of each ratio neither overlap
// nor leave gaps between the lowest and the highest bound.
func ValidateThresholds(thresholds []tariff.CreditRatingThreshold) error {
	byRatio := make(map[Ratio][]tariff.CreditRatingThreshold)
	var errs []error
	for _, t := range thresholds {
		r, err := ParseRatio(t.RatioName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if t.MinValue.Valid && t.MaxValue.Valid && !t.MinValue.Decimal.LessThan(t.MaxValue.Decimal) {
			errs = append(errs, fmt.Errorf("%w: %s band %s is empty", ErrInconsistentThresholds, r, t.Rating))
			continue
		}
		byRatio[r] = append(byRatio[r], t)
	}

	ratios := make([]Ratio, 0, len(byRatio))
	for r := range byRatio {
		ratios = append(ratios, r)
	}
	slices.Sort(ratios)
	for _, r := range ratios {
		bands := byRatio[r]
		slices.SortFunc(bands, func(a, b tariff.CreditRatingThreshold) int {
			switch {
			case !a.MinValue.Valid && !b.MinValue.Valid:
				return 0
			case !a.MinValue.Valid:
				return -1
			case !b.MinValue.Valid:
				return 1
			}
			return a.MinValue.Decimal.Cmp(b.MinValue.Decimal)
		})
		for i := 1; i < len(bands); i++ {
			prev, cur := bands[i-1], bands[i]
			switch {
			case !prev.MaxValue.Valid || !cur.MinValue.Valid || prev.MaxValue.Decimal.GreaterThan(cur.MinValue.Decimal):
				errs = append(errs, fmt.Errorf("%w: %s bands %s and %s overlap", ErrInconsistentThresholds, r, prev.Rating, cur.Rating))
			case prev.MaxValue.Decimal.LessThan(cur.MinValue.Decimal):
				errs = append(errs, fmt.Errorf("%w: %s gap between %s and %s", ErrInconsistentThresholds, r, prev.MaxValue.Decimal, cur.MinValue.Decimal))
			}
		}
	}
	return errors.Join(errs...)
}
