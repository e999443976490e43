package collateral

import "context"

type Repository interface {
	ListByIDs(ctx context.Context, collateralIDs []string) ([]Collateral, error)
	ListLinksByLoans(ctx context.Context, loanIDs []string) ([]LoanCollateral, error)
	// ListLinksByCollaterals returns every loan claim on the given assets,
	// including loans outside the requested fund.
	ListLinksByCollaterals(ctx context.Context, collateralIDs []string) ([]LoanCollateral, error)
	ListIndices(ctx context.Context, propertyTypes []string) ([]Index, error)
}
