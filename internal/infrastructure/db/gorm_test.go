package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestOpenGormWithDialector(t *testing.T) {
	cases := []struct {
		name    string
		pingErr error
	}{
		{"ping ok", nil},
		{"ping fails", errors.New("no ping")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// unmonitored pings always succeed
			sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(tc.pingErr != nil))
			if err != nil {
				t.Fatalf("sqlmock.New: %v", err)
			}
			defer sqlDB.Close()
			if tc.pingErr != nil {
				mock.ExpectPing().WillReturnError(tc.pingErr)
			}

			gdb, err := OpenGormWithDialector(mysql.New(mysql.Config{
				Conn:                      sqlDB,
				SkipInitializeWithVersion: true,
			}))
			if tc.pingErr == nil && (err != nil || gdb == nil) {
				t.Fatalf("open: db=%v err=%v", gdb, err)
			}
			if tc.pingErr != nil && !errors.Is(err, tc.pingErr) {
				t.Fatalf("want ping error, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestMigrate_CreatesTables(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, table := range []string{"loans", "loan_payments", "debtor_balance_sheets", "collateral_indices",
		"tariff_settings", "ltv_spread_tiers", "model_settings", "sector_correlations", "risk_runs", "risk_run_loans"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("table %s not created", table)
		}
	}
	// idempotent
	if err := Migrate(gdb); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
