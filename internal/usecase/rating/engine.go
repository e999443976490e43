package rating

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/debtor"
	"loanportfolio/internal/domain/tariff"
)

var ErrInconsistentThresholds = errors.New("inconsistent rating thresholds")

// DefaultScale orders ratings from best to worst.
var DefaultScale = []string{"AAA", "AA", "A", "BBB", "BB", "B", "CCC", "CC", "C", "D"}

// Engine rates ratio values against threshold bands. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	bands map[Ratio][]tariff.CreditRatingThreshold
	rank  map[string]int
}

func NewEngine(thresholds []tariff.CreditRatingThreshold, scale []string) (*Engine, error) {
	if len(scale) == 0 {
		scale = DefaultScale
	}
	e := &Engine{
		bands: make(map[Ratio][]tariff.CreditRatingThreshold),
		rank:  make(map[string]int, len(scale)),
	}
	for i, r := range scale {
		e.rank[r] = i
	}
	for _, t := range thresholds {
		r, err := ParseRatio(t.RatioName)
		if err != nil {
			return nil, err
		}
		e.bands[r] = append(e.bands[r], t)
	}
	return e, nil
}

// Worse reports whether rating a is more conservative than b. Ratings off
// the scale rank after it.
func (e *Engine) Worse(a, b string) bool {
	ra, okA := e.rank[a]
	rb, okB := e.rank[b]
	switch {
	case okA && okB:
		return ra > rb
	case okA != okB:
		return !okA
	}
	return a > b
}

// Worst returns the most conservative rating of rs.
func (e *Engine) Worst(rs ...string) string {
	var out string
	for i, r := range rs {
		if i == 0 || e.Worse(r, out) {
			out = r
		}
	}
	return out
}

// WorstOnScale is the rating assigned when a ratio cannot be computed in a
// simulated state (e.g. EBITDA at or below zero).
func (e *Engine) WorstOnScale(r Ratio) string {
	var ratings []string
	for _, b := range e.bands[r] {
		ratings = append(ratings, b.Rating)
	}
	return e.Worst(ratings...)
}

// RateValue returns the rating of the band [Min, Max) containing v. With
// overlapping bands the tightest wins, ties go to the more conservative
// rating. Values below the lowest or above the highest band clamp to that
// band; values falling in a gap are unratable.
func (e *Engine) RateValue(r Ratio, v decimal.Decimal) (string, error) {
	bands := e.bands[r]
	if len(bands) == 0 {
		return "", fmt.Errorf("%w: no rating thresholds for ratio %q", apperr.ErrConfigurationMissing, r)
	}

	var hits []tariff.CreditRatingThreshold
	for _, b := range bands {
		if b.Contains(v) {
			hits = append(hits, b)
		}
	}
	if len(hits) > 0 {
		return e.tightest(hits), nil
	}

	if lo, ok := lowestBands(bands); ok && v.LessThan(lo[0].MinValue.Decimal) {
		return e.tightest(lo), nil
	}
	if hi, ok := highestBands(bands); ok && !v.LessThan(hi[0].MaxValue.Decimal) {
		return e.tightest(hi), nil
	}
	return "", fmt.Errorf("%w: %s = %s falls in a threshold gap", apperr.ErrUnratableInput, r, v)
}

func (e *Engine) tightest(bands []tariff.CreditRatingThreshold) string {
	best := bands[0]
	for _, b := range bands[1:] {
		switch cmpWidth(b, best) {
		case -1:
			best = b
		case 0:
			if e.Worse(b.Rating, best.Rating) {
				best = b
			}
		}
	}
	return best.Rating
}

// cmpWidth orders bands by width, unbounded bands being the widest.
func cmpWidth(a, b tariff.CreditRatingThreshold) int {
	wa, okA := width(a)
	wb, okB := width(b)
	switch {
	case okA && okB:
		return wa.Cmp(wb)
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}

func width(t tariff.CreditRatingThreshold) (decimal.Decimal, bool) {
	if !t.MinValue.Valid || !t.MaxValue.Valid {
		return decimal.Zero, false
	}
	return t.MaxValue.Decimal.Sub(t.MinValue.Decimal), true
}

// lowestBands returns the bands sharing the smallest lower bound. ok is
// false when some band is unbounded below.
func lowestBands(bands []tariff.CreditRatingThreshold) ([]tariff.CreditRatingThreshold, bool) {
	var out []tariff.CreditRatingThreshold
	for _, b := range bands {
		if !b.MinValue.Valid {
			return nil, false
		}
		switch {
		case len(out) == 0 || b.MinValue.Decimal.LessThan(out[0].MinValue.Decimal):
			out = []tariff.CreditRatingThreshold{b}
		case b.MinValue.Decimal.Equal(out[0].MinValue.Decimal):
			out = append(out, b)
		}
	}
	return out, true
}

func highestBands(bands []tariff.CreditRatingThreshold) ([]tariff.CreditRatingThreshold, bool) {
	var out []tariff.CreditRatingThreshold
	for _, b := range bands {
		if !b.MaxValue.Valid {
			return nil, false
		}
		switch {
		case len(out) == 0 || b.MaxValue.Decimal.GreaterThan(out[0].MaxValue.Decimal):
			out = []tariff.CreditRatingThreshold{b}
		case b.MaxValue.Decimal.Equal(out[0].MaxValue.Decimal):
			out = append(out, b)
		}
	}
	return out, true
}

type RatioRating struct {
	Value  decimal.Decimal
	Rating string
}

type Result struct {
	// Rating is the most conservative of the per-ratio ratings.
	Rating   string
	ByRatio  map[Ratio]RatioRating
	BookYear int
}

// Rate computes each ratio from the financials and combines the ratings.
func (e *Engine) Rate(f debtor.Financials, ratios ...Ratio) (Result, error) {
	if len(ratios) == 0 {
		ratios = e.Ratios()
	}
	if len(ratios) == 0 {
		return Result{}, fmt.Errorf("%w: no rating thresholds configured", apperr.ErrConfigurationMissing)
	}
	res := Result{ByRatio: make(map[Ratio]RatioRating, len(ratios)), BookYear: f.BookYear}
	all := make([]string, 0, len(ratios))
	for _, r := range ratios {
		v, err := Value(r, f)
		if err != nil {
			return Result{}, err
		}
		rt, err := e.RateValue(r, v)
		if err != nil {
			return Result{}, err
		}
		res.ByRatio[r] = RatioRating{Value: v, Rating: rt}
		all = append(all, rt)
	}
	res.Rating = e.Worst(all...)
	return res, nil
}

// Ratios lists the ratios with configured bands in a stable order.
func (e *Engine) Ratios() []Ratio {
	out := make([]Ratio, 0, len(e.bands))
	for r := range e.bands {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// ComputeCreditRating rates a debtor from its balance sheets and P&Ls using
// the latest non-pro-forma year.
func ComputeCreditRating(sheets []debtor.BalanceSheet, pls []debtor.PL, ratios []Ratio, thresholds []tariff.CreditRatingThreshold) (Result, error) {
	f, err := debtor.LatestActuals(sheets, pls)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", apperr.ErrUnratableInput, err)
	}
	e, err := NewEngine(thresholds, nil)
	if err != nil {
		return Result{}, err
	}
	return e.Rate(f, ratios...)
}
