package mysql

import (
	"context"
	"errors"

	loanDomain "loanportfolio/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return notFound(&out, res.Error, loanDomain.ErrNotFound)
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return notFound(&out, res.Error, loanDomain.ErrNotFound)
}

func (r *LoanRepository) ListByFund(ctx context.Context, tenantID, fundID string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND fund_id = ? AND status = ?", tenantID, fundID, loanDomain.StatusActive).
		Order("loan_id").
		Find(&out).Error
	return out, err
}

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]loanDomain.LoanPayment, error) {
	var out []loanDomain.LoanPayment
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("month").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ReplaceSchedule(ctx context.Context, loanID uint64, ps []loanDomain.LoanPayment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_id = ?", loanID).Delete(&loanDomain.LoanPayment{}).Error; err != nil {
			return err
		}
		if len(ps) == 0 {
			return nil
		}
		return tx.CreateInBatches(ps, 100).Error
	})
}

func (r *PaymentRepository) Save(ctx context.Context, p *loanDomain.LoanPayment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// notFound maps gorm's missing-row error onto the domain sentinel.
func notFound[T any](out *T, err error, sentinel error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sentinel
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
