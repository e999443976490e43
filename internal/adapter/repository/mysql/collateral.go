package mysql

import (
	"context"

	collateralDomain "loanportfolio/internal/domain/collateral"

	"gorm.io/gorm"
)

type CollateralRepository struct{ db *gorm.DB }

func NewCollateralRepository(db *gorm.DB) *CollateralRepository {
	return &CollateralRepository{db: db}
}

func (r *CollateralRepository) ListByIDs(ctx context.Context, collateralIDs []string) ([]collateralDomain.Collateral, error) {
	var out []collateralDomain.Collateral
	if len(collateralIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("collateral_id IN ?", collateralIDs).Order("collateral_id").Find(&out).Error
	return out, err
}

func (r *CollateralRepository) ListLinksByLoans(ctx context.Context, loanIDs []string) ([]collateralDomain.LoanCollateral, error) {
	var out []collateralDomain.LoanCollateral
	if len(loanIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("loan_id IN ?", loanIDs).Order("collateral_id, priority, loan_id").Find(&out).Error
	return out, err
}

func (r *CollateralRepository) ListLinksByCollaterals(ctx context.Context, collateralIDs []string) ([]collateralDomain.LoanCollateral, error) {
	var out []collateralDomain.LoanCollateral
	if len(collateralIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("collateral_id IN ?", collateralIDs).Order("collateral_id, priority, loan_id").Find(&out).Error
	return out, err
}

func (r *CollateralRepository) ListIndices(ctx context.Context, propertyTypes []string) ([]collateralDomain.Index, error) {
	var out []collateralDomain.Index
	if len(propertyTypes) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("property_type IN ?", propertyTypes).Order("property_type, year, quarter").Find(&out).Error
	return out, err
}
