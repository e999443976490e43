package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"loanportfolio/internal/domain/collateral"
	"loanportfolio/internal/domain/debtor"
	"loanportfolio/internal/domain/loan"
	"loanportfolio/internal/domain/modelsettings"
	"loanportfolio/internal/domain/risk"
	"loanportfolio/internal/domain/tariff"
)

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector opens, tunes the pool and pings. Tests pass a
// dialector over a mocked connection.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	zap.L().Info("gorm: connected", zap.String("dialect", dial.Name()))
	return db, nil
}

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&debtor.Debtor{}, &debtor.BalanceSheet{}, &debtor.PL{}, &debtor.SectorShare{},
		&loan.Loan{}, &loan.LoanPayment{},
		&collateral.Collateral{}, &collateral.LoanCollateral{}, &collateral.Index{},
		&tariff.Settings{}, &tariff.CreditRatingSpread{}, &tariff.LtvSpreadTier{}, &tariff.ImpactDiscount{},
		&tariff.CreditRatingThreshold{},
		&modelsettings.Settings{}, &modelsettings.SectorDefinition{}, &modelsettings.SectorCorrelation{},
		&modelsettings.SectorCollateralCorrelation{}, &modelsettings.PropertyTypeParameter{},
		&risk.Run{}, &risk.RunLoan{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
