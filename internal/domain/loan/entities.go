package loan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("loan not found")
	ErrUnknownSchedule = errors.New("unknown redemption schedule")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusRepaid    Status = "repaid"
	StatusDefaulted Status = "defaulted"
)

// ScheduleType is the redemption-schedule tag stored on the loan row.
type ScheduleType string

const (
	ScheduleLinear                  ScheduleType = "linear"
	ScheduleAnnuity                 ScheduleType = "annuity"
	ScheduleBullet                  ScheduleType = "bullet"
	ScheduleInterestOnlyThenAnnuity ScheduleType = "interest_only_annuity"
	ScheduleBuildingDepot           ScheduleType = "building_depot"
	ScheduleCreditLine              ScheduleType = "credit_line"
)

// ParseScheduleType accepts the stored tag and the CamelCase names used by
// older rows ("InterestOnlyThenAnnuity", "BuildingDepot", ...).
func ParseScheduleType(s string) (ScheduleType, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "linear":
		return ScheduleLinear, nil
	case "annuity":
		return ScheduleAnnuity, nil
	case "bullet":
		return ScheduleBullet, nil
	case "interestonlyannuity", "interestonlythenannuity":
		return ScheduleInterestOnlyThenAnnuity, nil
	case "buildingdepot":
		return ScheduleBuildingDepot, nil
	case "creditline":
		return ScheduleCreditLine, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSchedule, s)
}

// Revolving reports whether interest accrues on drawn amounts only.
func (s ScheduleType) Revolving() bool {
	return s == ScheduleBuildingDepot || s == ScheduleCreditLine
}

type Loan struct {
	ID                  uint64              `gorm:"primaryKey;column:id" json:"-"`
	LoanID              string              `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	TenantID            string              `gorm:"size:32;index:idx_loans_tenant_fund" json:"tenant_id"`
	FundID              string              `gorm:"size:32;index:idx_loans_tenant_fund" json:"fund_id"`
	DebtorID            string              `gorm:"size:32;index" json:"debtor_id"`
	Principal           decimal.Decimal     `gorm:"type:decimal(18,2)" json:"principal"`
	AnnualRate          decimal.Decimal     `gorm:"type:decimal(9,6)" json:"annual_rate"`
	TenorMonths         int                 `json:"tenor_months"`
	InterestOnlyMonths  int                 `json:"interest_only_months"`
	StartDate           time.Time           `gorm:"type:date" json:"start_date"`
	RedemptionSchedule  string              `gorm:"size:32" json:"redemption_schedule"`
	Status              Status              `gorm:"size:16;default:'draft'" json:"status"`
	Currency            string              `gorm:"size:3;default:'EUR'" json:"currency"`
	CreditLimit         decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"credit_limit"`
	AmountDrawn         decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"amount_drawn"`
	OutstandingOverride decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"outstanding_override"`
	ImpactLevel         int                 `json:"impact_level"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Drawdown is an amount drawn on a revolving facility in the given month
// (0 = at start).
type Drawdown struct {
	Month  int
	Amount decimal.Decimal
}

// LoanTerms is the input of the amortization scheduler.
type LoanTerms struct {
	Principal          decimal.Decimal `validate:"gt=0"`
	AnnualRate         decimal.Decimal `validate:"gte=0"`
	TenorMonths        int             `validate:"gt=0"`
	InterestOnlyMonths int             `validate:"gte=0,ltfield=TenorMonths"`
	StartDate          time.Time
	Schedule           ScheduleType `validate:"required"`
	Currency           string
	// Draws only apply to revolving schedules; Principal is then the limit.
	Draws []Drawdown
}

// Terms maps the persisted row onto scheduler input. Revolving facilities
// amortize the drawn amount, drawn in full at start.
func (l *Loan) Terms() (LoanTerms, error) {
	st, err := ParseScheduleType(l.RedemptionSchedule)
	if err != nil {
		return LoanTerms{}, err
	}
	t := LoanTerms{
		Principal:          l.Principal,
		AnnualRate:         l.AnnualRate,
		TenorMonths:        l.TenorMonths,
		InterestOnlyMonths: l.InterestOnlyMonths,
		StartDate:          l.StartDate,
		Schedule:           st,
		Currency:           l.Currency,
	}
	if st.Revolving() {
		if l.CreditLimit.Valid {
			t.Principal = l.CreditLimit.Decimal
		}
		if l.AmountDrawn.Valid {
			t.Draws = []Drawdown{{Month: 0, Amount: l.AmountDrawn.Decimal}}
		}
	}
	return t, nil
}

// PeriodPayment is one computed schedule line.
type PeriodPayment struct {
	Month            int             `json:"month"`
	DueDate          time.Time       `json:"due_date"`
	Interest         decimal.Decimal `json:"interest"`
	Capital          decimal.Decimal `json:"capital"`
	Total            decimal.Decimal `json:"total"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Outstanding returns the manual override when set, otherwise the remaining
// balance after the last period due on or before asOf.
func (l *Loan) Outstanding(schedule []PeriodPayment, asOf time.Time) decimal.Decimal {
	if l.OutstandingOverride.Valid {
		return l.OutstandingOverride.Decimal
	}
	return OutstandingAt(schedule, asOf)
}

func OutstandingAt(schedule []PeriodPayment, asOf time.Time) decimal.Decimal {
	if len(schedule) == 0 {
		return decimal.Zero
	}
	// before the first due date the opening balance is outstanding
	out := schedule[0].RemainingBalance.Add(schedule[0].Capital)
	for _, p := range schedule {
		if p.DueDate.After(asOf) {
			break
		}
		out = p.RemainingBalance
	}
	return out
}

// RemainingMonths counts schedule periods due after asOf.
func RemainingMonths(schedule []PeriodPayment, asOf time.Time) int {
	n := 0
	for _, p := range schedule {
		if p.DueDate.After(asOf) {
			n++
		}
	}
	return n
}
