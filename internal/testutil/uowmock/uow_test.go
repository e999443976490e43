package uowmock

import (
	"context"
	"errors"
	"testing"

	"loanportfolio/internal/domain/loan"
	"loanportfolio/internal/domain/uow"
	"loanportfolio/internal/testutil/loanmock"
	"loanportfolio/internal/testutil/riskmock"
)

func TestUoW_Funcs(t *testing.T) {
	stop := errors.New("stop")
	locked := &loan.Loan{ID: 7, LoanID: "LN-7"}
	repos := uow.Repos{Loans: &loanmock.Repo{}, RiskRuns: &riskmock.Repo{}}

	cases := []struct {
		name  string
		mock  *UoW
		inner error
		want  error
	}{
		{"unset", &UoW{}, nil, errUnimplemented},
		{"forwards body error", &UoW{
			WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
			WithinLoanTxFn: func(_ context.Context, _ string, fn func(uow.Repos, *loan.Loan) error) error {
				return fn(repos, locked)
			},
		}, stop, stop},
		{"commit", &UoW{
			WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
			WithinLoanTxFn: func(_ context.Context, id string, fn func(uow.Repos, *loan.Loan) error) error {
				if id != "LN-7" {
					return loan.ErrNotFound
				}
				return fn(repos, locked)
			},
		}, nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			err := tc.mock.WithinTx(ctx, func(r uow.Repos) error {
				if r.RiskRuns != repos.RiskRuns {
					t.Fatalf("repos not forwarded")
				}
				return tc.inner
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("WithinTx = %v, want %v", err, tc.want)
			}
			err = tc.mock.WithinLoanTx(ctx, "LN-7", func(_ uow.Repos, l *loan.Loan) error {
				if l != locked {
					t.Fatalf("loan not forwarded: %+v", l)
				}
				return tc.inner
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("WithinLoanTx = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPassthrough(t *testing.T) {
	ctx := context.Background()
	locked := &loan.Loan{ID: 3, LoanID: "LN-3"}
	loans := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(_ context.Context, id string) (*loan.Loan, error) {
			if id != "LN-3" {
				return nil, loan.ErrNotFound
			}
			return locked, nil
		},
	}
	m := Passthrough(uow.Repos{Loans: loans})

	if err := m.WithinTx(ctx, func(r uow.Repos) error {
		if r.Loans != loans {
			t.Fatalf("WithinTx: repos not forwarded")
		}
		return nil
	}); err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	var got *loan.Loan
	if err := m.WithinLoanTx(ctx, "LN-3", func(_ uow.Repos, l *loan.Loan) error {
		got = l
		return nil
	}); err != nil || got != locked {
		t.Fatalf("WithinLoanTx = %v, loan %+v", err, got)
	}
	if err := m.WithinLoanTx(ctx, "LN-NOPE", func(uow.Repos, *loan.Loan) error {
		t.Fatalf("callback must not run for a missing loan")
		return nil
	}); !errors.Is(err, loan.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
