package mysql

import (
	"context"
	"errors"
	"testing"

	loanDomain "loanportfolio/internal/domain/loan"
	"loanportfolio/internal/domain/risk"
	"loanportfolio/internal/domain/uow"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Save(ctx, makeLoan("LN-COMMIT", "f1")); err != nil {
			return err
		}
		return r.RiskRuns.Create(ctx, &risk.Run{RunID: "RUN-COMMIT", TenantID: "t1", FundID: "f1", Fingerprint: "fp"})
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := NewLoanRepository(db).GetByLoanID(ctx, "LN-COMMIT"); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	if _, err := NewRiskRunRepository(db).GetByFingerprint(ctx, "fp"); err != nil {
		t.Fatalf("run not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	sentinel := errors.New("boom")

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Save(ctx, makeLoan("LN-ROLL", "f1")); err != nil {
			return err
		}
		if err := r.RiskRuns.Create(ctx, &risk.Run{RunID: "RUN-ROLL", Fingerprint: "fp-roll"}); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithinTx returned %v", err)
	}

	if _, err := NewLoanRepository(db).GetByLoanID(ctx, "LN-ROLL"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected loan not found after rollback, got %v", err)
	}
	if _, err := NewRiskRunRepository(db).GetByFingerprint(ctx, "fp-roll"); !errors.Is(err, risk.ErrNotFound) {
		t.Fatalf("expected run not found after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	loans := NewLoanRepository(db)
	if err := loans.Create(ctx, makeLoan("LN-TARGET", "f1")); err != nil {
		t.Fatal(err)
	}

	err := guow.WithinLoanTx(ctx, "LN-TARGET", func(r uow.Repos, l *loanDomain.Loan) error {
		if l == nil || l.LoanID != "LN-TARGET" {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		l.AnnualRate = dec("0.071")
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return r.Payments.ReplaceSchedule(ctx, l.ID, []loanDomain.LoanPayment{{LoanID: l.ID, Month: 1, Total: dec("1")}})
	})
	if err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}
	got, _ := loans.GetByLoanID(ctx, "LN-TARGET")
	if !got.AnnualRate.Equal(dec("0.071")) {
		t.Fatalf("rate not updated: %s", got.AnnualRate)
	}

	sentinel := errors.New("stop")
	_ = guow.WithinLoanTx(ctx, "LN-TARGET", func(r uow.Repos, l *loanDomain.Loan) error {
		l.AnnualRate = dec("0.5")
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	got, _ = loans.GetByLoanID(ctx, "LN-TARGET")
	if !got.AnnualRate.Equal(dec("0.071")) {
		t.Fatalf("rollback leaked rate %s", got.AnnualRate)
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	guow := NewGormUoW(openTestDB(t))
	err := guow.WithinLoanTx(context.Background(), "LN-NOPE", func(uow.Repos, *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
