package mysql

import (
	"context"

	riskDomain "loanportfolio/internal/domain/risk"

	"gorm.io/gorm"
)

type RiskRunRepository struct{ db *gorm.DB }

func NewRiskRunRepository(db *gorm.DB) *RiskRunRepository { return &RiskRunRepository{db: db} }

// Create inserts the run and its loan rows in one statement batch.
func (r *RiskRunRepository) Create(ctx context.Context, run *riskDomain.Run) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *RiskRunRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*riskDomain.Run, error) {
	var out riskDomain.Run
	res := r.db.WithContext(ctx).
		Preload("Loans", func(db *gorm.DB) *gorm.DB { return db.Order("loan_id") }).
		Where("fingerprint = ?", fingerprint).
		Order("id DESC").
		First(&out)
	return notFound(&out, res.Error, riskDomain.ErrNotFound)
}

func (r *RiskRunRepository) ListByFund(ctx context.Context, tenantID, fundID string, limit int) ([]riskDomain.Run, error) {
	var out []riskDomain.Run
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND fund_id = ?", tenantID, fundID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
