package collateralmock

import (
	"context"

	domain "loanportfolio/internal/domain/collateral"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock of domain.Repository. Unset methods return
// no rows.
type Repo struct {
	ListByIDsFn              func(ctx context.Context, collateralIDs []string) ([]domain.Collateral, error)
	ListLinksByLoansFn       func(ctx context.Context, loanIDs []string) ([]domain.LoanCollateral, error)
	ListLinksByCollateralsFn func(ctx context.Context, collateralIDs []string) ([]domain.LoanCollateral, error)
	ListIndicesFn            func(ctx context.Context, propertyTypes []string) ([]domain.Index, error)
}

func (m *Repo) ListByIDs(ctx context.Context, ids []string) ([]domain.Collateral, error) {
	if m.ListByIDsFn != nil {
		return m.ListByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *Repo) ListLinksByLoans(ctx context.Context, loanIDs []string) ([]domain.LoanCollateral, error) {
	if m.ListLinksByLoansFn != nil {
		return m.ListLinksByLoansFn(ctx, loanIDs)
	}
	return nil, nil
}

func (m *Repo) ListLinksByCollaterals(ctx context.Context, ids []string) ([]domain.LoanCollateral, error) {
	if m.ListLinksByCollateralsFn != nil {
		return m.ListLinksByCollateralsFn(ctx, ids)
	}
	return nil, nil
}

func (m *Repo) ListIndices(ctx context.Context, propertyTypes []string) ([]domain.Index, error) {
	if m.ListIndicesFn != nil {
		return m.ListIndicesFn(ctx, propertyTypes)
	}
	return nil, nil
}
