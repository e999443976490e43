package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseScheduleType(t *testing.T) {
	tests := []struct {
		in      string
		want    ScheduleType
		wantErr bool
	}{
		{"annuity", ScheduleAnnuity, false},
		{"Annuity", ScheduleAnnuity, false},
		{"InterestOnlyThenAnnuity", ScheduleInterestOnlyThenAnnuity, false},
		{"interest_only_annuity", ScheduleInterestOnlyThenAnnuity, false},
		{"BuildingDepot", ScheduleBuildingDepot, false},
		{" credit-line ", ScheduleCreditLine, false},
		{"Linear", ScheduleLinear, false},
		{"bullet", ScheduleBullet, false},
		{"balloon", "", true},
	}
	for _, tt := range tests {
		got, err := ParseScheduleType(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownSchedule) {
				t.Errorf("ParseScheduleType(%q) err = %v, want ErrUnknownSchedule", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseScheduleType(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestTerms_Revolving(t *testing.T) {
	l := &Loan{
		Principal:          decimal.NewFromInt(500_000),
		AnnualRate:         decimal.RequireFromString("0.04"),
		TenorMonths:        120,
		InterestOnlyMonths: 12,
		RedemptionSchedule: "BuildingDepot",
		CreditLimit:        decimal.NewNullDecimal(decimal.NewFromInt(400_000)),
		AmountDrawn:        decimal.NewNullDecimal(decimal.NewFromInt(250_000)),
	}
	terms, err := l.Terms()
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if terms.Schedule != ScheduleBuildingDepot {
		t.Fatalf("schedule = %s", terms.Schedule)
	}
	if !terms.Principal.Equal(decimal.NewFromInt(400_000)) {
		t.Fatalf("principal should be the credit limit, got %s", terms.Principal)
	}
	if len(terms.Draws) != 1 || !terms.Draws[0].Amount.Equal(decimal.NewFromInt(250_000)) {
		t.Fatalf("draws = %+v", terms.Draws)
	}
}

func TestOutstanding(t *testing.T) {
	d := func(m int) time.Time { return time.Date(2025, time.Month(m), 1, 0, 0, 0, 0, time.UTC) }
	schedule := []PeriodPayment{
		{Month: 1, DueDate: d(2), Capital: decimal.NewFromInt(100), RemainingBalance: decimal.NewFromInt(200)},
		{Month: 2, DueDate: d(3), Capital: decimal.NewFromInt(100), RemainingBalance: decimal.NewFromInt(100)},
		{Month: 3, DueDate: d(4), Capital: decimal.NewFromInt(100), RemainingBalance: decimal.Zero},
	}
	l := &Loan{}
	if got := l.Outstanding(schedule, d(1)); !got.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("before first due date = %s, want 300", got)
	}
	if got := l.Outstanding(schedule, d(3)); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("on second due date = %s, want 100", got)
	}
	if n := RemainingMonths(schedule, d(3)); n != 1 {
		t.Fatalf("remaining months = %d, want 1", n)
	}
	l.OutstandingOverride = decimal.NewNullDecimal(decimal.NewFromInt(42))
	if got := l.Outstanding(schedule, d(3)); !got.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("override ignored: %s", got)
	}
}

func TestPaymentRecord(t *testing.T) {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	p := LoanPayment{DueDate: due, Status: PaymentScheduled}
	p.Record(due)
	if p.Status != PaymentPaid || p.DaysLate != 0 || !p.IsPaid() {
		t.Fatalf("on-time payment recorded as %+v", p)
	}

	p = LoanPayment{DueDate: due, Status: PaymentScheduled}
	p.Record(due.Add(5*24*time.Hour + 3*time.Hour))
	if p.Status != PaymentLate || p.DaysLate != 5 {
		t.Fatalf("late payment recorded as status=%s days=%d", p.Status, p.DaysLate)
	}
}
