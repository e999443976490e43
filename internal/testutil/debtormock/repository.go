package debtormock

import (
	"context"

	domain "loanportfolio/internal/domain/debtor"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository. Unset
// list methods return no rows.
type Repo struct {
	GetByDebtorIDFn     func(ctx context.Context, debtorID string) (*domain.Debtor, error)
	ListBalanceSheetsFn func(ctx context.Context, debtorID string) ([]domain.BalanceSheet, error)
	ListPLsFn           func(ctx context.Context, debtorID string) ([]domain.PL, error)
	ListSectorSharesFn  func(ctx context.Context, debtorID string) ([]domain.SectorShare, error)
}

func (m *Repo) GetByDebtorID(ctx context.Context, debtorID string) (*domain.Debtor, error) {
	if m.GetByDebtorIDFn != nil {
		return m.GetByDebtorIDFn(ctx, debtorID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListBalanceSheets(ctx context.Context, debtorID string) ([]domain.BalanceSheet, error) {
	if m.ListBalanceSheetsFn != nil {
		return m.ListBalanceSheetsFn(ctx, debtorID)
	}
	return nil, nil
}

func (m *Repo) ListPLs(ctx context.Context, debtorID string) ([]domain.PL, error) {
	if m.ListPLsFn != nil {
		return m.ListPLsFn(ctx, debtorID)
	}
	return nil, nil
}

func (m *Repo) ListSectorShares(ctx context.Context, debtorID string) ([]domain.SectorShare, error) {
	if m.ListSectorSharesFn != nil {
		return m.ListSectorSharesFn(ctx, debtorID)
	}
	return nil, nil
}
