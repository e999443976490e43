package modelsettings

import (
	"errors"
	"time"
)

var ErrNoActiveSettings = errors.New("no active model settings")

// Settings is the single active simulation configuration. It is loaded once
// per run and shared read-only by all workers.
type Settings struct {
	ID                 uint64                        `gorm:"primaryKey;column:id" json:"-"`
	Active             bool                          `gorm:"index" json:"active"`
	DefaultGrowth      float64                       `json:"default_growth"`
	DefaultVolatility  float64                       `json:"default_volatility"`
	TaxRate            float64                       `json:"tax_rate"`
	MinDSCR            float64                       `gorm:"column:min_dscr;default:1.2" json:"min_dscr"`
	DefaultDSCR        float64                       `gorm:"column:default_dscr;default:1" json:"default_dscr"`
	MaxLtv             float64                       `gorm:"default:0.8" json:"max_ltv"`
	Sectors            []SectorDefinition            `gorm:"foreignKey:SettingsID" json:"sectors"`
	SectorCorrelations []SectorCorrelation           `gorm:"foreignKey:SettingsID" json:"sector_correlations"`
	CollateralLinks    []SectorCollateralCorrelation `gorm:"foreignKey:SettingsID" json:"sector_collateral_correlations"`
	PropertyTypes      []PropertyTypeParameter       `gorm:"foreignKey:SettingsID" json:"property_types"`
	CreatedAt          time.Time                     `gorm:"autoCreateTime" json:"created_at"`
}

func (Settings) TableName() string { return "model_settings" }

type SectorDefinition struct {
	ID         uint64  `gorm:"primaryKey;column:id" json:"-"`
	SettingsID uint64  `gorm:"index" json:"-"`
	Code       string  `gorm:"size:32" json:"code"`
	Name       string  `gorm:"size:128" json:"name"`
	Volatility float64 `json:"volatility"`
	Growth     float64 `json:"growth"`
}

func (SectorDefinition) TableName() string { return "sector_definitions" }

// SectorCorrelation is one cell of the symmetric sector x sector matrix.
// Only one triangle needs to be stored.
type SectorCorrelation struct {
	ID         uint64  `gorm:"primaryKey;column:id" json:"-"`
	SettingsID uint64  `gorm:"index" json:"-"`
	SectorA    string  `gorm:"size:32" json:"sector_a"`
	SectorB    string  `gorm:"size:32" json:"sector_b"`
	Rho        float64 `json:"rho"`
}

func (SectorCorrelation) TableName() string { return "sector_correlations" }

type SectorCollateralCorrelation struct {
	ID           uint64  `gorm:"primaryKey;column:id" json:"-"`
	SettingsID   uint64  `gorm:"index" json:"-"`
	SectorCode   string  `gorm:"size:32" json:"sector_code"`
	PropertyType string  `gorm:"size:32" json:"property_type"`
	Rho          float64 `json:"rho"`
}

func (SectorCollateralCorrelation) TableName() string { return "sector_collateral_correlations" }

type PropertyTypeParameter struct {
	ID             uint64  `gorm:"primaryKey;column:id" json:"-"`
	SettingsID     uint64  `gorm:"index" json:"-"`
	PropertyType   string  `gorm:"size:32" json:"property_type"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
}

func (PropertyTypeParameter) TableName() string { return "property_type_parameters" }

// Sector returns the sector definition, falling back to the default
// growth/volatility for unknown codes.
func (s *Settings) Sector(code string) SectorDefinition {
	for _, d := range s.Sectors {
		if d.Code == code {
			return d
		}
	}
	return SectorDefinition{Code: code, Volatility: s.DefaultVolatility, Growth: s.DefaultGrowth}
}

func (s *Settings) PropertyType(pt string) PropertyTypeParameter {
	for _, p := range s.PropertyTypes {
		if p.PropertyType == pt {
			return p
		}
	}
	return PropertyTypeParameter{PropertyType: pt, ExpectedReturn: s.DefaultGrowth, Volatility: s.DefaultVolatility}
}
