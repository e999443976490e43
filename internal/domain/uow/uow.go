package uow

import (
	"context"

	"loanportfolio/internal/domain/collateral"
	"loanportfolio/internal/domain/debtor"
	"loanportfolio/internal/domain/loan"
	"loanportfolio/internal/domain/modelsettings"
	"loanportfolio/internal/domain/risk"
	"loanportfolio/internal/domain/tariff"
)

// domain/uow/uow.go
type Repos struct {
	Loans       loan.Repository
	Payments    loan.PaymentRepository
	Debtors     debtor.Repository
	Collaterals collateral.Repository
	Tariffs     tariff.Repository
	Models      modelsettings.Repository
	RiskRuns    risk.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
