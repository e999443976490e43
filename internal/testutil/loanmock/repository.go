package loanmock

import (
	"context"
	"errors"

	domain "loanportfolio/internal/domain/loan"
)

var (
	_ domain.Repository        = (*Repo)(nil)
	_ domain.PaymentRepository = (*PaymentRepo)(nil)
)

var errUnimplemented = errors.New("loanmock: method not implemented")

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset reads return errUnimplemented, unset writes are no-ops.
type Repo struct {
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	ListByFundFn           func(ctx context.Context, tenantID, fundID string) ([]domain.Loan, error)
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, errUnimplemented
}

func (m *Repo) ListByFund(ctx context.Context, tenantID, fundID string) ([]domain.Loan, error) {
	if m.ListByFundFn != nil {
		return m.ListByFundFn(ctx, tenantID, fundID)
	}
	return nil, errUnimplemented
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

// PaymentRepo is a function-backed mock of domain.PaymentRepository.
type PaymentRepo struct {
	ListByLoanFn      func(ctx context.Context, loanID uint64) ([]domain.LoanPayment, error)
	ReplaceScheduleFn func(ctx context.Context, loanID uint64, ps []domain.LoanPayment) error
	SaveFn            func(ctx context.Context, p *domain.LoanPayment) error
}

func (m *PaymentRepo) ListByLoan(ctx context.Context, loanID uint64) ([]domain.LoanPayment, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	return nil, errUnimplemented
}

func (m *PaymentRepo) ReplaceSchedule(ctx context.Context, loanID uint64, ps []domain.LoanPayment) error {
	if m.ReplaceScheduleFn != nil {
		return m.ReplaceScheduleFn(ctx, loanID, ps)
	}
	return nil
}

func (m *PaymentRepo) Save(ctx context.Context, p *domain.LoanPayment) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return nil
}
