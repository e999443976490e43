package loan

import "context"

type Repository interface {
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// ListByFund returns the active loans of one tenant fund.
	ListByFund(ctx context.Context, tenantID, fundID string) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}

type PaymentRepository interface {
	ListByLoan(ctx context.Context, loanID uint64) ([]LoanPayment, error)
	// ReplaceSchedule deletes the loan's rows and inserts ps.
	ReplaceSchedule(ctx context.Context, loanID uint64, ps []LoanPayment) error
	Save(ctx context.Context, p *LoanPayment) error
}
