package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/loan"
)

// redemption decides the capital part of each amortizing period. One value
// is created per schedule.
type redemption interface {
	// start is called once, at the first amortizing period, with the balance
	// to redeem over periods months.
	start(balance, rate decimal.Decimal, periods int, places int32)
	// capital returns the capital due this period before the scheduler
	// clamps it to the balance. remaining includes the current period.
	capital(balance, interest decimal.Decimal, remaining int, places int32) decimal.Decimal
}

func newRedemption(t loan.ScheduleType) (redemption, error) {
	switch t {
	case loan.ScheduleAnnuity, loan.ScheduleInterestOnlyThenAnnuity,
		loan.ScheduleBuildingDepot, loan.ScheduleCreditLine:
		return &annuity{}, nil
	case loan.ScheduleLinear:
		return linear{}, nil
	case loan.ScheduleBullet:
		return bullet{}, nil
	}
	return nil, fmt.Errorf("%w: redemption schedule %q", apperr.ErrInvalidInput, t)
}

type annuity struct{ payment decimal.Decimal }

// start solves A = P*r / (1 - (1+r)^-n), written as P*r*f/(f-1) with
// f = (1+r)^n.
func (a *annuity) start(balance, rate decimal.Decimal, periods int, places int32) {
	if rate.IsZero() {
		a.payment = balance.DivRound(decimal.NewFromInt(int64(periods)), places)
		return
	}
	f := powInt(decimal.NewFromInt(1).Add(rate), periods)
	a.payment = balance.Mul(rate).Mul(f).DivRound(f.Sub(decimal.NewFromInt(1)), workPlaces).Round(places)
}

func (a *annuity) capital(balance, interest decimal.Decimal, _ int, places int32) decimal.Decimal {
	c := a.payment.Sub(interest)
	if !c.IsPositive() && balance.IsPositive() {
		return minorUnit(places)
	}
	return c
}

type linear struct{}

func (linear) start(decimal.Decimal, decimal.Decimal, int, int32) {}

func (linear) capital(balance, _ decimal.Decimal, remaining int, places int32) decimal.Decimal {
	c := balance.DivRound(decimal.NewFromInt(int64(remaining)), places)
	if c.IsZero() && balance.IsPositive() {
		// keep the balance strictly decreasing on very small loans
		return minorUnit(places)
	}
	return c
}

type bullet struct{}

func (bullet) start(decimal.Decimal, decimal.Decimal, int, int32) {}

func (bullet) capital(balance, _ decimal.Decimal, remaining int, _ int32) decimal.Decimal {
	if remaining == 1 {
		return balance
	}
	return decimal.Zero
}

const workPlaces = 28

// powInt raises b to a non-negative integer power by squaring, keeping
// workPlaces decimals in intermediate products.
func powInt(b decimal.Decimal, n int) decimal.Decimal {
	out := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			out = out.Mul(b).Round(workPlaces)
		}
		b = b.Mul(b).Round(workPlaces)
		n >>= 1
	}
	return out
}

func minorUnit(places int32) decimal.Decimal {
	return decimal.New(1, -places)
}
