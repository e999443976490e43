package mysql

import (
	"context"

	modelDomain "loanportfolio/internal/domain/modelsettings"
	tariffDomain "loanportfolio/internal/domain/tariff"

	"gorm.io/gorm"
)

type TariffRepository struct{ db *gorm.DB }

func NewTariffRepository(db *gorm.DB) *TariffRepository { return &TariffRepository{db: db} }

// GetActive returns the newest active settings; older active rows are
// ignored.
func (r *TariffRepository) GetActive(ctx context.Context) (*tariffDomain.Settings, error) {
	var out tariffDomain.Settings
	res := r.db.WithContext(ctx).
		Preload("RatingSpreads").
		Preload("LtvTiers").
		Preload("ImpactDiscounts").
		Where("active = ?", true).
		Order("effective_from DESC, id DESC").
		First(&out)
	return notFound(&out, res.Error, tariffDomain.ErrNoActiveSettings)
}

func (r *TariffRepository) ListThresholds(ctx context.Context) ([]tariffDomain.CreditRatingThreshold, error) {
	var out []tariffDomain.CreditRatingThreshold
	err := r.db.WithContext(ctx).Order("ratio_name, id").Find(&out).Error
	return out, err
}

type ModelSettingsRepository struct{ db *gorm.DB }

func NewModelSettingsRepository(db *gorm.DB) *ModelSettingsRepository {
	return &ModelSettingsRepository{db: db}
}

func (r *ModelSettingsRepository) GetActive(ctx context.Context) (*modelDomain.Settings, error) {
	var out modelDomain.Settings
	res := r.db.WithContext(ctx).
		Preload("Sectors", func(db *gorm.DB) *gorm.DB { return db.Order("code") }).
		Preload("SectorCorrelations", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("CollateralLinks", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("PropertyTypes", func(db *gorm.DB) *gorm.DB { return db.Order("property_type") }).
		Where("active = ?", true).
		Order("id DESC").
		First(&out)
	return notFound(&out, res.Error, modelDomain.ErrNoActiveSettings)
}
