package portfolio

import (
	"context"
	"fmt"
	"slices"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/collateral"
	"loanportfolio/internal/usecase/valuation"
)

// collateralBook is every asset behind a set of links together with all
// claims on those assets, including claims of loans outside the set.
type collateralBook struct {
	assets []collateral.Collateral
	claims []collateral.LoanCollateral
	engine *valuation.Engine
}

func loadCollateral(ctx context.Context, repo collateral.Repository, links []collateral.LoanCollateral) (*collateralBook, error) {
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.CollateralID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	assets, err := repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(assets))
	types := make([]string, 0, len(assets))
	for _, a := range assets {
		found[a.CollateralID] = true
		types = append(types, a.PropertyType)
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: linked collateral %s does not exist", apperr.ErrInvalidInput, id)
		}
	}
	slices.Sort(types)
	types = slices.Compact(types)

	claims, err := repo.ListLinksByCollaterals(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := valuation.CheckAllocations(claims); err != nil {
		return nil, err
	}
	indices, err := repo.ListIndices(ctx, types)
	if err != nil {
		return nil, err
	}
	return &collateralBook{assets: assets, claims: claims, engine: valuation.NewEngine(indices)}, nil
}
