package tariff

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoActiveSettings = errors.New("no active tariff settings")

// Settings is the single active tariff record with its spread tables.
type Settings struct {
	ID              uint64               `gorm:"primaryKey;column:id" json:"-"`
	Active          bool                 `gorm:"index" json:"active"`
	BaseRate        decimal.Decimal      `gorm:"type:decimal(9,6)" json:"base_rate"`
	RatingSpreads   []CreditRatingSpread `gorm:"foreignKey:SettingsID" json:"rating_spreads"`
	LtvTiers        []LtvSpreadTier      `gorm:"foreignKey:SettingsID" json:"ltv_tiers"`
	ImpactDiscounts []ImpactDiscount     `gorm:"foreignKey:SettingsID" json:"impact_discounts"`
	EffectiveFrom   time.Time            `gorm:"type:date" json:"effective_from"`
	CreatedAt       time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

func (Settings) TableName() string { return "tariff_settings" }

type CreditRatingSpread struct {
	ID         uint64          `gorm:"primaryKey;column:id" json:"-"`
	SettingsID uint64          `gorm:"index" json:"-"`
	Rating     string          `gorm:"size:8" json:"rating"`
	Spread     decimal.Decimal `gorm:"type:decimal(9,6)" json:"spread"`
}

func (CreditRatingSpread) TableName() string { return "credit_rating_spreads" }

// LtvSpreadTier applies to LTVs up to and including MaxLtv. A null MaxLtv is
// the unbounded top tier.
type LtvSpreadTier struct {
	ID         uint64              `gorm:"primaryKey;column:id" json:"-"`
	SettingsID uint64              `gorm:"index" json:"-"`
	MaxLtv     decimal.NullDecimal `gorm:"type:decimal(7,4)" json:"max_ltv"`
	Spread     decimal.Decimal     `gorm:"type:decimal(9,6)" json:"spread"`
}

func (LtvSpreadTier) TableName() string { return "ltv_spread_tiers" }

type ImpactDiscount struct {
	ID         uint64          `gorm:"primaryKey;column:id" json:"-"`
	SettingsID uint64          `gorm:"index" json:"-"`
	Level      int             `json:"level"`
	Discount   decimal.Decimal `gorm:"type:decimal(9,6)" json:"discount"`
}

func (ImpactDiscount) TableName() string { return "impact_discounts" }

// CreditRatingThreshold is one band [MinValue, MaxValue) of a ratio. Null
// bounds are unbounded.
type CreditRatingThreshold struct {
	ID        uint64              `gorm:"primaryKey;column:id" json:"-"`
	RatioName string              `gorm:"size:64;index" json:"ratio_name"`
	Rating    string              `gorm:"size:8" json:"rating"`
	MinValue  decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"min_value"`
	MaxValue  decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"max_value"`
}

func (CreditRatingThreshold) TableName() string { return "credit_rating_thresholds" }

// Contains reports whether v lies in [MinValue, MaxValue).
func (t CreditRatingThreshold) Contains(v decimal.Decimal) bool {
	if t.MinValue.Valid && v.LessThan(t.MinValue.Decimal) {
		return false
	}
	if t.MaxValue.Valid && !v.LessThan(t.MaxValue.Decimal) {
		return false
	}
	return true
}
