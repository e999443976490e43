package portfolio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/loan"
	"loanportfolio/internal/domain/tariff"
	"loanportfolio/internal/domain/uow"
	"loanportfolio/internal/usecase/amortization"
	"loanportfolio/internal/usecase/pricing"
	"loanportfolio/internal/usecase/rating"
	"loanportfolio/internal/usecase/valuation"
)

// PriceAndSchedule rates the debtor, values the loan's collateral, prices
// the loan and replaces its payment schedule at the new rate. Loans with a
// recorded payment keep their schedule.
func (u *Usecase) PriceAndSchedule(ctx context.Context, loanID string, asOf time.Time) (*QuoteDTO, error) {
	var q *QuoteDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		existing, err := r.Payments.ListByLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if p.IsPaid() {
				return fmt.Errorf("%w: %s month %d paid", apperr.ErrLoanLocked, l.LoanID, p.Month)
			}
		}

		terms, err := l.Terms()
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
		}
		rated, err := rateDebtor(ctx, r, l.DebtorID)
		if err != nil {
			return fmt.Errorf("rate debtor %s: %w", l.DebtorID, err)
		}

		// outstanding follows the schedule at the current rate
		current, err := amortization.Compute(terms)
		if err != nil {
			return err
		}
		outstanding := l.Outstanding(current, asOf)
		secured, err := securedValue(ctx, r, l.LoanID, asOf)
		if err != nil {
			return err
		}
		ltv, err := valuation.Ltv(outstanding, secured)
		unsecured := errors.Is(err, valuation.ErrUnsecured)
		if err != nil && !unsecured {
			return err
		}

		tf, err := r.Tariffs.GetActive(ctx)
		if errors.Is(err, tariff.ErrNoActiveSettings) {
			return fmt.Errorf("%w: %w", apperr.ErrConfigurationMissing, err)
		}
		if err != nil {
			return err
		}
		var br pricing.Breakdown
		if unsecured {
			br, err = pricing.ComputeUnsecured(rated.Rating, tf, l.ImpactLevel)
		} else {
			br, err = pricing.Compute(rated.Rating, ltv, tf, l.ImpactLevel)
		}
		if err != nil {
			return err
		}

		terms.AnnualRate = br.Rate
		schedule, err := amortization.Compute(terms)
		if err != nil {
			return err
		}
		if err := r.Payments.ReplaceSchedule(ctx, l.ID, loan.NewPayments(l.ID, schedule)); err != nil {
			return err
		}
		l.AnnualRate = br.Rate
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		q = &QuoteDTO{
			LoanID:       l.LoanID,
			AsOf:         asOf,
			Rating:       rated.Rating,
			RatingYear:   rated.BookYear,
			Ratios:       rated.ByRatio,
			Outstanding:  outstanding,
			Collateral:   secured,
			Ltv:          ltv,
			Unsecured:    unsecured,
			Pricing:      br,
			ScheduleType: terms.Schedule,
			Schedule:     schedule,
		}
		return nil
	})
	if err != nil {
		u.log.Warn("price and schedule failed",
			zap.String("loan_id", loanID),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	u.metrics.ScheduleComputed(string(q.ScheduleType))
	u.log.Info("loan priced",
		zap.String("loan_id", q.LoanID),
		zap.String("rating", q.Rating),
		zap.Stringer("ltv", q.Ltv),
		zap.Bool("unsecured", q.Unsecured),
		zap.Stringer("rate", q.Pricing.Rate),
		zap.Int("periods", len(q.Schedule)))
	return q, nil
}

// RecordPayment marks one scheduled payment as paid. The loan is flagged
// repaid once every period is paid.
func (u *Usecase) RecordPayment(ctx context.Context, loanID string, month int, paidOn time.Time) (*loan.LoanPayment, error) {
	if month <= 0 {
		return nil, fmt.Errorf("%w: month must be positive, got %d", apperr.ErrInvalidInput, month)
	}
	var out *loan.LoanPayment
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		ps, err := r.Payments.ListByLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(ps, func(p loan.LoanPayment) bool { return p.Month == month })
		if i < 0 {
			return fmt.Errorf("%w: loan %s has no payment for month %d", apperr.ErrInvalidInput, l.LoanID, month)
		}
		p := &ps[i]
		if p.IsPaid() {
			return fmt.Errorf("%w: loan %s month %d already paid", apperr.ErrInvalidInput, l.LoanID, month)
		}
		p.Record(paidOn)
		if err := r.Payments.Save(ctx, p); err != nil {
			return err
		}

		settled := !slices.ContainsFunc(ps, func(q loan.LoanPayment) bool { return !q.IsPaid() })
		if settled && l.Status == loan.StatusActive {
			l.Status = loan.StatusRepaid
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.metrics.PaymentRecorded(string(out.Status))
	u.log.Debug("payment recorded",
		zap.String("loan_id", loanID),
		zap.Int("month", month),
		zap.String("status", string(out.Status)),
		zap.Int("days_late", out.DaysLate))
	return out, nil
}

func rateDebtor(ctx context.Context, r uow.Repos, debtorID string) (rating.Result, error) {
	sheets, err := r.Debtors.ListBalanceSheets(ctx, debtorID)
	if err != nil {
		return rating.Result{}, err
	}
	pls, err := r.Debtors.ListPLs(ctx, debtorID)
	if err != nil {
		return rating.Result{}, err
	}
	thresholds, err := r.Tariffs.ListThresholds(ctx)
	if err != nil {
		return rating.Result{}, err
	}
	return rating.ComputeCreditRating(sheets, pls, nil, thresholds)
}

// securedValue is the loan's share of its collateral, valued at asOf.
func securedValue(ctx context.Context, r uow.Repos, loanID string, asOf time.Time) (decimal.Decimal, error) {
	links, err := r.Collaterals.ListLinksByLoans(ctx, []string{loanID})
	if err != nil {
		return decimal.Zero, err
	}
	if len(links) == 0 {
		return decimal.Zero, nil
	}
	book, err := loadCollateral(ctx, r.Collaterals, links)
	if err != nil {
		return decimal.Zero, err
	}
	values, err := book.engine.ValueAll(book.assets, book.claims, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return valuation.AllocatedValue(links, values)
}
