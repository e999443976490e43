package simulation

import (
	"fmt"
	"time"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/loan"
)

// Portfolio is the read-only snapshot a run works on. Amounts are plain
// floats: the simulation is statistical and results are rounded on output.
type Portfolio struct {
	Loans       []Loan
	Collaterals []Collateral
	// ForeignClaims are claims on the portfolio's collateral held by loans
	// outside it. They take part in the recovery waterfall with a fixed
	// exposure.
	ForeignClaims []ForeignClaim
}

type Loan struct {
	LoanID   string
	Exposure float64
	Years    []Year
	Debtor   Debtor
	Claims   []Claim
}

// Year is one simulated step of a loan: the balance at its start and the
// debt service due during it.
type Year struct {
	Opening     float64
	DebtService float64
}

type Debtor struct {
	DebtorID         string
	EBITDA           float64
	TotalLiabilities float64
	// Sectors weights the revenue growth by sector. Weight not covered by
	// a sector follows an idiosyncratic path with the default parameters.
	Sectors []SectorWeight
}

type SectorWeight struct {
	Code  string
	Share float64
}

// Collateral holds an asset's indexed value after haircut and the first
// mortgage ranking ahead of the portfolio.
type Collateral struct {
	CollateralID  string
	PropertyType  string
	Value         float64
	FirstMortgage float64
}

type Claim struct {
	CollateralID string
	Share        float64
	Priority     int
}

type ForeignClaim struct {
	Claim
	LoanID   string
	Exposure float64
}

// YearlyService folds the periods due after asOf into yearly steps.
func YearlyService(schedule []loan.PeriodPayment, asOf time.Time) []Year {
	var (
		out  []Year
		left []loan.PeriodPayment
	)
	for _, p := range schedule {
		if p.DueDate.After(asOf) {
			left = append(left, p)
		}
	}
	for i := 0; i < len(left); i += 12 {
		end := min(i+12, len(left))
		y := Year{Opening: left[i].RemainingBalance.Add(left[i].Capital).InexactFloat64()}
		for _, p := range left[i:end] {
			y.DebtService += p.Total.InexactFloat64()
		}
		out = append(out, y)
	}
	return out
}

func (p *Portfolio) validate() error {
	if len(p.Loans) == 0 {
		return fmt.Errorf("%w: empty portfolio", apperr.ErrInvalidInput)
	}
	assets := make(map[string]bool, len(p.Collaterals))
	for _, c := range p.Collaterals {
		assets[c.CollateralID] = true
	}
	seen := make(map[string]bool, len(p.Loans))
	for _, l := range p.Loans {
		if seen[l.LoanID] {
			return fmt.Errorf("%w: duplicate loan %s", apperr.ErrInvalidInput, l.LoanID)
		}
		seen[l.LoanID] = true
		if l.Exposure < 0 {
			return fmt.Errorf("%w: loan %s has negative exposure", apperr.ErrInvalidInput, l.LoanID)
		}
		for _, c := range l.Claims {
			if !assets[c.CollateralID] {
				return fmt.Errorf("%w: loan %s claims unknown collateral %s", apperr.ErrInvalidInput, l.LoanID, c.CollateralID)
			}
		}
	}
	for _, c := range p.ForeignClaims {
		if !assets[c.CollateralID] {
			return fmt.Errorf("%w: loan %s claims unknown collateral %s", apperr.ErrInvalidInput, c.LoanID, c.CollateralID)
		}
	}
	return nil
}
