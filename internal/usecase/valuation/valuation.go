package valuation

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/collateral"
)

const (
	ratioPlaces = 16
	valuePlaces = 2
	ltvPlaces   = 8
)

var hundred = decimal.NewFromInt(100)

// ErrUnsecured marks a positive balance with no collateral value. Pricing
// can still cover it through an unbounded tier.
var ErrUnsecured = fmt.Errorf("%w: unsecured balance", apperr.ErrExceedsMaxLtv)

// Engine values collateral against a snapshot of the price indices.
type Engine struct {
	indices map[string][]collateral.Index
}

func NewEngine(indices []collateral.Index) *Engine {
	e := &Engine{indices: make(map[string][]collateral.Index)}
	for _, ix := range indices {
		e.indices[ix.PropertyType] = append(e.indices[ix.PropertyType], ix)
	}
	for _, list := range e.indices {
		slices.SortFunc(list, func(a, b collateral.Index) int {
			if a.Year != b.Year {
				return a.Year - b.Year
			}
			return a.Quarter - b.Quarter
		})
	}
	return e
}

// IndexAt returns the index of q, or of the most recent quarter before it
// when q has not been published. The quarter actually used is returned too.
func (e *Engine) IndexAt(propertyType string, q collateral.Quarter) (decimal.Decimal, collateral.Quarter, error) {
	list := e.indices[propertyType]
	for i := len(list) - 1; i >= 0; i-- {
		p := list[i].Period()
		if p.Before(q) || p == q {
			return list[i].PriceIndex, p, nil
		}
	}
	return decimal.Zero, collateral.Quarter{}, fmt.Errorf("%w: no %s price index at or before %s",
		apperr.ErrConfigurationMissing, propertyType, q)
}

// IndexRatio rolls an appraisal forward: index(asOf) / index(appraisal date).
func (e *Engine) IndexRatio(c collateral.Collateral, asOf time.Time) (decimal.Decimal, error) {
	now, _, err := e.IndexAt(c.PropertyType, collateral.QuarterOf(asOf))
	if err != nil {
		return decimal.Zero, err
	}
	then, _, err := e.IndexAt(c.PropertyType, collateral.QuarterOf(c.AppraisalDate))
	if err != nil {
		return decimal.Zero, err
	}
	if !then.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive %s price index at appraisal of %s",
			apperr.ErrConfigurationMissing, c.PropertyType, c.CollateralID)
	}
	return now.DivRound(then, ratioPlaces), nil
}

// Value is the indexed appraisal after the liquidity haircut and net of any
// first mortgage, never below zero.
func (e *Engine) Value(c collateral.Collateral, asOf time.Time) (decimal.Decimal, error) {
	ratio, err := e.IndexRatio(c, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return NetValue(c, c.AppraisalValue.Mul(ratio)), nil
}

// NetValue applies the haircut and first mortgage to an indexed appraisal.
func NetValue(c collateral.Collateral, indexed decimal.Decimal) decimal.Decimal {
	v := indexed.Mul(decimal.NewFromInt(1).Sub(c.LiquidityHaircut))
	if c.FirstMortgageAmount.Valid {
		v = v.Sub(c.FirstMortgageAmount.Decimal)
	}
	if v.IsNegative() {
		return decimal.Zero
	}
	return v.Round(valuePlaces)
}

// CheckAllocations fails when the claims on any one asset add up to more
// than 100%.
func CheckAllocations(links []collateral.LoanCollateral) error {
	total := make(map[string]decimal.Decimal)
	var order []string
	for _, l := range links {
		if l.AllocationPercentage.IsNegative() {
			return fmt.Errorf("%w: negative allocation of %s to loan %s", apperr.ErrInvalidInput, l.CollateralID, l.LoanID)
		}
		if _, ok := total[l.CollateralID]; !ok {
			order = append(order, l.CollateralID)
		}
		total[l.CollateralID] = total[l.CollateralID].Add(l.AllocationPercentage)
	}
	for _, id := range order {
		if total[id].GreaterThan(hundred) {
			return fmt.Errorf("%w: collateral %s allocated %s%%", apperr.ErrOverAllocatedCollateral, id, total[id])
		}
	}
	return nil
}

// ValueAll values every asset once after checking that the allocations are
// consistent.
func (e *Engine) ValueAll(assets []collateral.Collateral, links []collateral.LoanCollateral, asOf time.Time) (map[string]decimal.Decimal, error) {
	if err := CheckAllocations(links); err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(assets))
	for _, c := range assets {
		v, err := e.Value(c, asOf)
		if err != nil {
			return nil, err
		}
		out[c.CollateralID] = v
	}
	return out, nil
}

// AllocatedValue sums value × share over the links of one loan.
func AllocatedValue(links []collateral.LoanCollateral, values map[string]decimal.Decimal) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range links {
		v, ok := values[l.CollateralID]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: collateral %s not valued", apperr.ErrConfigurationMissing, l.CollateralID)
		}
		sum = sum.Add(v.Mul(l.Share()))
	}
	return sum, nil
}

// Ltv is outstanding / allocated collateral value. A loan with a positive
// balance and nothing securing it gets ErrUnsecured.
func Ltv(outstanding, allocated decimal.Decimal) (decimal.Decimal, error) {
	if !outstanding.IsPositive() {
		return decimal.Zero, nil
	}
	if !allocated.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: outstanding %s without collateral value", ErrUnsecured, outstanding)
	}
	return outstanding.DivRound(allocated, ltvPlaces), nil
}
