package collateral

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Collateral struct {
	ID                  uint64              `gorm:"primaryKey;column:id" json:"-"`
	CollateralID        string              `gorm:"size:32;uniqueIndex" json:"collateral_id"`
	TenantID            string              `gorm:"size:32;index" json:"tenant_id"`
	PropertyType        string              `gorm:"size:32;index" json:"property_type"`
	AppraisalValue      decimal.Decimal     `gorm:"type:decimal(18,2)" json:"appraisal_value"`
	AppraisalDate       time.Time           `gorm:"type:date" json:"appraisal_date"`
	LiquidityHaircut    decimal.Decimal     `gorm:"type:decimal(5,4)" json:"liquidity_haircut"`
	FirstMortgageAmount decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"first_mortgage_amount"`
	Address             string              `gorm:"size:255" json:"address"`
	FloorArea           decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"floor_area"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Collateral) TableName() string { return "collaterals" }

// LoanCollateral links a loan to a collateral asset. Priority 1 is the most
// senior claim.
type LoanCollateral struct {
	ID                   uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID               string          `gorm:"size:32;uniqueIndex:ux_loan_collaterals_pair" json:"loan_id"`
	CollateralID         string          `gorm:"size:32;uniqueIndex:ux_loan_collaterals_pair;index" json:"collateral_id"`
	AllocationPercentage decimal.Decimal `gorm:"type:decimal(7,4)" json:"allocation_percentage"`
	Priority             int             `gorm:"default:1" json:"priority"`
	AssignmentDate       time.Time       `gorm:"type:date" json:"assignment_date"`
}

func (LoanCollateral) TableName() string { return "loan_collaterals" }

// Share returns the allocation as a fraction of 1.
func (lc LoanCollateral) Share() decimal.Decimal {
	return lc.AllocationPercentage.Div(decimal.NewFromInt(100))
}

type Quarter struct {
	Year int
	Q    int
}

func QuarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Q: (int(t.Month())-1)/3 + 1}
}

func (q Quarter) Before(o Quarter) bool {
	return q.Year < o.Year || (q.Year == o.Year && q.Q < o.Q)
}

func (q Quarter) String() string { return fmt.Sprintf("%dQ%d", q.Year, q.Q) }

// Index is the price index of one property type in one quarter.
type Index struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	PropertyType string          `gorm:"size:32;uniqueIndex:ux_collateral_indices_key" json:"property_type"`
	Year         int             `gorm:"uniqueIndex:ux_collateral_indices_key" json:"year"`
	Quarter      int             `gorm:"uniqueIndex:ux_collateral_indices_key" json:"quarter"`
	PriceIndex   decimal.Decimal `gorm:"type:decimal(12,4)" json:"price_index"`
}

func (Index) TableName() string { return "collateral_indices" }

func (i Index) Period() Quarter { return Quarter{Year: i.Year, Q: i.Quarter} }
