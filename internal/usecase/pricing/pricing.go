package pricing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/tariff"
)

var ErrNonMonotonicTariff = errors.New("tariff not monotonic")

// Breakdown is the effective rate with the components it was built from.
type Breakdown struct {
	BaseRate     decimal.Decimal
	RatingSpread decimal.Decimal
	LtvSpread    decimal.Decimal
	Discount     decimal.Decimal
	Rate         decimal.Decimal
}

// Compute prices a loan: base + spread[rating] + ltv tier spread - impact
// discount, floored at zero. Negative discounts count as zero.
func Compute(rating string, ltv decimal.Decimal, s *tariff.Settings, impactLevel int) (Breakdown, error) {
	return compute(rating, &ltv, s, impactLevel)
}

// ComputeUnsecured prices a loan whose balance has no collateral value
// behind it. Only an unbounded tier covers such a loan.
func ComputeUnsecured(rating string, s *tariff.Settings, impactLevel int) (Breakdown, error) {
	return compute(rating, nil, s, impactLevel)
}

func compute(rating string, ltv *decimal.Decimal, s *tariff.Settings, impactLevel int) (Breakdown, error) {
	if s == nil {
		return Breakdown{}, fmt.Errorf("%w: tariff settings", apperr.ErrConfigurationMissing)
	}
	spread, err := ratingSpread(s, rating)
	if err != nil {
		return Breakdown{}, err
	}
	tier, err := ltvSpread(s, ltv)
	if err != nil {
		return Breakdown{}, err
	}
	disc, err := discount(s, impactLevel)
	if err != nil {
		return Breakdown{}, err
	}

	rate := s.BaseRate.Add(spread).Add(tier).Sub(disc)
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	return Breakdown{
		BaseRate:     s.BaseRate,
		RatingSpread: spread,
		LtvSpread:    tier,
		Discount:     disc,
		Rate:         rate,
	}, nil
}

func ratingSpread(s *tariff.Settings, rating string) (decimal.Decimal, error) {
	for _, r := range s.RatingSpreads {
		if r.Rating == rating {
			return r.Spread, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: no spread for rating %q", apperr.ErrConfigurationMissing, rating)
}

// ltvSpread picks the tier with the smallest MaxLtv >= ltv. The unbounded
// tier only applies when no bounded tier covers ltv. A nil ltv is unsecured.
func ltvSpread(s *tariff.Settings, ltv *decimal.Decimal) (decimal.Decimal, error) {
	if len(s.LtvTiers) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no ltv spread tiers", apperr.ErrConfigurationMissing)
	}
	var (
		best  *tariff.LtvSpreadTier
		unbnd *tariff.LtvSpreadTier
	)
	for i := range s.LtvTiers {
		t := &s.LtvTiers[i]
		if !t.MaxLtv.Valid {
			if unbnd == nil {
				unbnd = t
			}
			continue
		}
		if ltv == nil || t.MaxLtv.Decimal.LessThan(*ltv) {
			continue
		}
		if best == nil || t.MaxLtv.Decimal.LessThan(best.MaxLtv.Decimal) {
			best = t
		}
	}
	switch {
	case best != nil:
		return best.Spread, nil
	case unbnd != nil:
		return unbnd.Spread, nil
	}
	if ltv == nil {
		return decimal.Zero, fmt.Errorf("%w: unsecured balance and no unbounded tier", apperr.ErrExceedsMaxLtv)
	}
	return decimal.Zero, fmt.Errorf("%w: ltv %s above the highest tier", apperr.ErrExceedsMaxLtv, *ltv)
}

// discount looks up the impact level. Levels of 0 or below without a row
// get no discount; a positive level must be configured.
func discount(s *tariff.Settings, level int) (decimal.Decimal, error) {
	for _, d := range s.ImpactDiscounts {
		if d.Level == level {
			if d.Discount.IsNegative() {
				return decimal.Zero, nil
			}
			return d.Discount, nil
		}
	}
	if level <= 0 {
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("%w: no discount for impact level %d", apperr.ErrConfigurationMissing, level)
}

// ValidateTariff checks that tier spreads do not decrease as MaxLtv grows
// and that discounts do not decrease as the impact level grows.
func ValidateTariff(s *tariff.Settings) error {
	if s == nil {
		return fmt.Errorf("%w: tariff settings", apperr.ErrConfigurationMissing)
	}
	var errs []error

	tiers := slices.Clone(s.LtvTiers)
	slices.SortStableFunc(tiers, func(a, b tariff.LtvSpreadTier) int {
		switch {
		case !a.MaxLtv.Valid && !b.MaxLtv.Valid:
			return 0
		case !a.MaxLtv.Valid:
			return 1
		case !b.MaxLtv.Valid:
			return -1
		}
		return a.MaxLtv.Decimal.Cmp(b.MaxLtv.Decimal)
	})
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Spread.LessThan(tiers[i-1].Spread) {
			errs = append(errs, fmt.Errorf("%w: ltv tier %s spread %s below previous %s",
				ErrNonMonotonicTariff, maxLabel(tiers[i]), tiers[i].Spread, tiers[i-1].Spread))
		}
	}

	discs := slices.Clone(s.ImpactDiscounts)
	slices.SortStableFunc(discs, func(a, b tariff.ImpactDiscount) int { return a.Level - b.Level })
	for i := 1; i < len(discs); i++ {
		if discs[i].Level == discs[i-1].Level {
			errs = append(errs, fmt.Errorf("%w: duplicate impact level %d", ErrNonMonotonicTariff, discs[i].Level))
			continue
		}
		if discs[i].Discount.LessThan(discs[i-1].Discount) {
			errs = append(errs, fmt.Errorf("%w: impact level %d discount %s below level %d",
				ErrNonMonotonicTariff, discs[i].Level, discs[i].Discount, discs[i-1].Level))
		}
	}
	return errors.Join(errs...)
}

func maxLabel(t tariff.LtvSpreadTier) string {
	if !t.MaxLtv.Valid {
		return "unbounded"
	}
	return t.MaxLtv.Decimal.String()
}
