package rating

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/debtor"
)

type Ratio string

const (
	DebtToEBITDA     Ratio = "debt_to_ebitda"
	CurrentRatio     Ratio = "current_ratio"
	Solvency         Ratio = "solvency"
	InterestCoverage Ratio = "interest_coverage"
	NetMargin        Ratio = "net_margin"
)

// formula returns the numerator and denominator of a ratio. A ratio with a
// non-positive denominator is undefined.
type formula func(f debtor.Financials) (num, den decimal.Decimal)

var formulas = map[Ratio]formula{
	DebtToEBITDA: func(f debtor.Financials) (decimal.Decimal, decimal.Decimal) {
		return f.BalanceSheet.TotalLiabilities, f.PL.EBITDA
	},
	CurrentRatio: func(f debtor.Financials) (decimal.Decimal, decimal.Decimal) {
		return f.BalanceSheet.CurrentAssets, f.BalanceSheet.CurrentLiabilities
	},
	Solvency: func(f debtor.Financials) (decimal.Decimal, decimal.Decimal) {
		return f.BalanceSheet.Equity, f.BalanceSheet.TotalAssets
	},
	InterestCoverage: func(f debtor.Financials) (decimal.Decimal, decimal.Decimal) {
		return f.PL.EBITDA, f.PL.InterestExpense
	},
	NetMargin: func(f debtor.Financials) (decimal.Decimal, decimal.Decimal) {
		return f.PL.NetIncome, f.PL.Revenue
	},
}

var aliases = map[string]Ratio{
	"debttoebitda":     DebtToEBITDA,
	"debtebitda":       DebtToEBITDA,
	"currentratio":     CurrentRatio,
	"solvency":         Solvency,
	"equityratio":      Solvency,
	"interestcoverage": InterestCoverage,
	"icr":              InterestCoverage,
	"netmargin":        NetMargin,
}

// ParseRatio maps the ratio name stored on thresholds ("Debt/EBITDA",
// "debt_to_ebitda", ...) onto a known formula.
func ParseRatio(name string) (Ratio, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if r, ok := aliases[b.String()]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown ratio %q", apperr.ErrConfigurationMissing, name)
}

// Value computes ratio r from one year of actuals.
func Value(r Ratio, f debtor.Financials) (decimal.Decimal, error) {
	fn, ok := formulas[r]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown ratio %q", apperr.ErrConfigurationMissing, r)
	}
	num, den := fn(f)
	if !den.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s undefined for book year %d", apperr.ErrUnratableInput, r, f.BookYear)
	}
	return num.Div(den), nil
}
