package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/loan"
)

var twelve = decimal.NewFromInt(12)

// Compute turns loan terms into a month-by-month schedule, one line per
// month from 1 to the tenor. Interest and capital are rounded to the
// currency's minor unit and the rounding residual lands in the final
// period, so capital always sums to the amortized amount.
func Compute(terms loan.LoanTerms) ([]loan.PeriodPayment, error) {
	if err := validateTerms(terms); err != nil {
		return nil, err
	}
	red, err := newRedemption(terms.Schedule)
	if err != nil {
		return nil, err
	}

	places := currencyPlaces(terms.Currency)
	rate := terms.AnnualRate.Div(twelve)
	io := terms.InterestOnlyMonths
	revolving := terms.Schedule.Revolving()

	balance := terms.Principal
	draws := map[int]decimal.Decimal{}
	if revolving {
		balance = decimal.Zero
		for _, d := range terms.Draws {
			draws[d.Month] = draws[d.Month].Add(d.Amount)
		}
	}

	out := make([]loan.PeriodPayment, 0, terms.TenorMonths)
	for m := 1; m <= terms.TenorMonths; m++ {
		// a draw in month k is outstanding from period k+1
		if amt, ok := draws[m-1]; ok {
			balance = balance.Add(amt)
		}
		interest := balance.Mul(rate).Round(places)

		capital := decimal.Zero
		if m > io {
			if m == io+1 {
				red.start(balance, rate, terms.TenorMonths-io, places)
			}
			if m == terms.TenorMonths {
				capital = balance
			} else {
				capital = clamp(red.capital(balance, interest, terms.TenorMonths-m+1, places), balance)
			}
		}
		balance = balance.Sub(capital)

		out = append(out, loan.PeriodPayment{
			Month:            m,
			DueDate:          addMonths(terms.StartDate, m),
			Interest:         interest,
			Capital:          capital,
			Total:            interest.Add(capital),
			RemainingBalance: balance,
		})
	}
	return out, nil
}

func clamp(c, balance decimal.Decimal) decimal.Decimal {
	if c.IsNegative() {
		return decimal.Zero
	}
	if c.GreaterThan(balance) {
		return balance
	}
	return c
}

// addMonths adds n calendar months, clamping the day to the month end
// (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// TotalCapital sums the capital column.
func TotalCapital(schedule []loan.PeriodPayment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range schedule {
		sum = sum.Add(p.Capital)
	}
	return sum
}
