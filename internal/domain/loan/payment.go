package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentScheduled PaymentStatus = "scheduled"
	PaymentPaid      PaymentStatus = "paid"
	PaymentLate      PaymentStatus = "paid_late"
)

// LoanPayment rows are generated from a schedule and only ever mutated to
// record the actual payment.
type LoanPayment struct {
	ID               uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID           uint64          `gorm:"not null;uniqueIndex:ux_loan_payments_loan_month" json:"-"`
	Month            int             `gorm:"not null;uniqueIndex:ux_loan_payments_loan_month" json:"month"`
	Interest         decimal.Decimal `gorm:"type:decimal(18,2)" json:"interest"`
	Capital          decimal.Decimal `gorm:"type:decimal(18,2)" json:"capital"`
	Total            decimal.Decimal `gorm:"type:decimal(18,2)" json:"total"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(18,2)" json:"remaining_balance"`
	DueDate          time.Time       `gorm:"type:date" json:"due_date"`
	PaidDate         *time.Time      `gorm:"type:date" json:"paid_date"`
	Status           PaymentStatus   `gorm:"size:16;default:'scheduled'" json:"status"`
	DaysLate         int             `json:"days_late"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanPayment) TableName() string { return "loan_payments" }

func NewPayments(loanID uint64, schedule []PeriodPayment) []LoanPayment {
	out := make([]LoanPayment, 0, len(schedule))
	for _, p := range schedule {
		out = append(out, LoanPayment{
			LoanID:           loanID,
			Month:            p.Month,
			Interest:         p.Interest,
			Capital:          p.Capital,
			Total:            p.Total,
			RemainingBalance: p.RemainingBalance,
			DueDate:          p.DueDate,
			Status:           PaymentScheduled,
		})
	}
	return out
}

// Record marks the payment as paid on paidOn. Days late counts whole
// calendar days after the due date.
func (p *LoanPayment) Record(paidOn time.Time) {
	paid := paidOn.UTC().Truncate(24 * time.Hour)
	due := p.DueDate.UTC().Truncate(24 * time.Hour)
	p.PaidDate = &paid
	p.DaysLate = 0
	p.Status = PaymentPaid
	if paid.After(due) {
		p.DaysLate = int(paid.Sub(due).Hours() / 24)
		p.Status = PaymentLate
	}
}

func (p *LoanPayment) IsPaid() bool { return p.PaidDate != nil }

// AsSchedule converts persisted rows back to schedule lines.
func AsSchedule(ps []LoanPayment) []PeriodPayment {
	out := make([]PeriodPayment, 0, len(ps))
	for _, p := range ps {
		out = append(out, PeriodPayment{
			Month:            p.Month,
			DueDate:          p.DueDate,
			Interest:         p.Interest,
			Capital:          p.Capital,
			Total:            p.Total,
			RemainingBalance: p.RemainingBalance,
		})
	}
	return out
}
