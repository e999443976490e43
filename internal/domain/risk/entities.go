package risk

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var ErrNotFound = errors.New("risk run not found")

// Run is the persisted summary of one portfolio simulation.
type Run struct {
	ID               uint64          `gorm:"primaryKey;column:id" json:"-"`
	RunID            string          `gorm:"size:32;uniqueIndex" json:"run_id"`
	TenantID         string          `gorm:"size:32;index:idx_risk_runs_fund" json:"tenant_id"`
	FundID           string          `gorm:"size:32;index:idx_risk_runs_fund" json:"fund_id"`
	AsOf             time.Time       `gorm:"type:date" json:"as_of"`
	Seed             uint64          `json:"seed"`
	Trials           int             `json:"trials"`
	Fingerprint      string          `gorm:"size:64;index" json:"fingerprint"`
	TotalExposure    decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_exposure"`
	DefaultFrequency float64         `json:"default_frequency"`
	ExpectedLoss     decimal.Decimal `gorm:"type:decimal(20,2)" json:"expected_loss"`
	LossVaR95        decimal.Decimal `gorm:"column:loss_var95;type:decimal(20,2)" json:"loss_var95"`
	LossVaR99        decimal.Decimal `gorm:"column:loss_var99;type:decimal(20,2)" json:"loss_var99"`
	LossES95         decimal.Decimal `gorm:"column:loss_es95;type:decimal(20,2)" json:"loss_es95"`
	LossPercentiles  datatypes.JSON  `json:"loss_percentiles"`
	Loans            []RunLoan       `gorm:"foreignKey:RunRefID" json:"loans"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Run) TableName() string { return "risk_runs" }

type RunLoan struct {
	ID                      uint64          `gorm:"primaryKey;column:id" json:"-"`
	RunRefID                uint64          `gorm:"index" json:"-"`
	LoanID                  string          `gorm:"size:32" json:"loan_id"`
	Exposure                decimal.Decimal `gorm:"type:decimal(18,2)" json:"exposure"`
	DefaultFrequency        float64         `json:"default_frequency"`
	CovenantBreachFrequency float64         `json:"covenant_breach_frequency"`
	ExpectedLoss            decimal.Decimal `gorm:"type:decimal(18,2)" json:"expected_loss"`
	LtvP50                  float64         `gorm:"column:ltv_p50" json:"ltv_p50"`
	LtvP95                  float64         `gorm:"column:ltv_p95" json:"ltv_p95"`
	LtvP99                  float64         `gorm:"column:ltv_p99" json:"ltv_p99"`
	RatingDistribution      datatypes.JSON  `json:"rating_distribution"`
}

func (RunLoan) TableName() string { return "risk_run_loans" }
