package mysql

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"loanportfolio/internal/domain/loan"
	infradb "loanportfolio/internal/infrastructure/db"
)

// openTestDB creates an in-memory sqlite DB with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one connection so every query sees the same in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := infradb.Migrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeLoan(loanID, fundID string) *loan.Loan {
	return &loan.Loan{
		LoanID:             loanID,
		TenantID:           "t1",
		FundID:             fundID,
		DebtorID:           "d1",
		Principal:          dec("1000000"),
		AnnualRate:         dec("0.05"),
		TenorMonths:        60,
		StartDate:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		RedemptionSchedule: string(loan.ScheduleAnnuity),
		Status:             loan.StatusActive,
		Currency:           "EUR",
	}
}
