package mysql

import (
	"context"

	debtorDomain "loanportfolio/internal/domain/debtor"

	"gorm.io/gorm"
)

type DebtorRepository struct{ db *gorm.DB }

func NewDebtorRepository(db *gorm.DB) *DebtorRepository { return &DebtorRepository{db: db} }

func (r *DebtorRepository) GetByDebtorID(ctx context.Context, debtorID string) (*debtorDomain.Debtor, error) {
	var out debtorDomain.Debtor
	res := r.db.WithContext(ctx).Where("debtor_id = ?", debtorID).First(&out)
	return notFound(&out, res.Error, debtorDomain.ErrNotFound)
}

func (r *DebtorRepository) ListBalanceSheets(ctx context.Context, debtorID string) ([]debtorDomain.BalanceSheet, error) {
	var out []debtorDomain.BalanceSheet
	err := r.db.WithContext(ctx).Where("debtor_id = ?", debtorID).Order("book_year, is_pro_forma").Find(&out).Error
	return out, err
}

func (r *DebtorRepository) ListPLs(ctx context.Context, debtorID string) ([]debtorDomain.PL, error) {
	var out []debtorDomain.PL
	err := r.db.WithContext(ctx).Where("debtor_id = ?", debtorID).Order("book_year, is_pro_forma").Find(&out).Error
	return out, err
}

func (r *DebtorRepository) ListSectorShares(ctx context.Context, debtorID string) ([]debtorDomain.SectorShare, error) {
	var out []debtorDomain.SectorShare
	err := r.db.WithContext(ctx).Where("debtor_id = ?", debtorID).Order("sector_code").Find(&out).Error
	return out, err
}
