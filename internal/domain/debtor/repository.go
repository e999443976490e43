package debtor

import "context"

type Repository interface {
	GetByDebtorID(ctx context.Context, debtorID string) (*Debtor, error)
	ListBalanceSheets(ctx context.Context, debtorID string) ([]BalanceSheet, error)
	ListPLs(ctx context.Context, debtorID string) ([]PL, error)
	ListSectorShares(ctx context.Context, debtorID string) ([]SectorShare, error)
}
