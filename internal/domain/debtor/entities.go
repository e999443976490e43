package debtor

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("debtor not found")
	ErrNoActuals = errors.New("debtor has no non-pro-forma financials")
)

type Debtor struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	DebtorID  string    `gorm:"size:32;uniqueIndex" json:"debtor_id"`
	TenantID  string    `gorm:"size:32;index" json:"tenant_id"`
	Name      string    `gorm:"size:255" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Debtor) TableName() string { return "debtors" }

// BalanceSheet is a yearly snapshot, append-only per (debtor, year, pro-forma).
type BalanceSheet struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	DebtorID           string          `gorm:"size:32;uniqueIndex:ux_balance_sheets_key" json:"debtor_id"`
	BookYear           int             `gorm:"uniqueIndex:ux_balance_sheets_key" json:"book_year"`
	IsProForma         bool            `gorm:"uniqueIndex:ux_balance_sheets_key" json:"is_pro_forma"`
	TotalAssets        decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_assets"`
	CurrentAssets      decimal.Decimal `gorm:"type:decimal(20,2)" json:"current_assets"`
	TotalLiabilities   decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_liabilities"`
	CurrentLiabilities decimal.Decimal `gorm:"type:decimal(20,2)" json:"current_liabilities"`
	Equity             decimal.Decimal `gorm:"type:decimal(20,2)" json:"equity"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (BalanceSheet) TableName() string { return "debtor_balance_sheets" }

type PL struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	DebtorID        string          `gorm:"size:32;uniqueIndex:ux_debtor_pls_key" json:"debtor_id"`
	BookYear        int             `gorm:"uniqueIndex:ux_debtor_pls_key" json:"book_year"`
	IsProForma      bool            `gorm:"uniqueIndex:ux_debtor_pls_key" json:"is_pro_forma"`
	Revenue         decimal.Decimal `gorm:"type:decimal(20,2)" json:"revenue"`
	Costs           decimal.Decimal `gorm:"type:decimal(20,2)" json:"costs"`
	EBITDA          decimal.Decimal `gorm:"column:ebitda;type:decimal(20,2)" json:"ebitda"`
	InterestExpense decimal.Decimal `gorm:"type:decimal(20,2)" json:"interest_expense"`
	NetIncome       decimal.Decimal `gorm:"type:decimal(20,2)" json:"net_income"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (PL) TableName() string { return "debtor_pls" }

// SectorShare is one line of a debtor's revenue breakdown; shares of one
// debtor sum to 1.
type SectorShare struct {
	ID         uint64          `gorm:"primaryKey;column:id" json:"-"`
	DebtorID   string          `gorm:"size:32;index" json:"debtor_id"`
	SectorCode string          `gorm:"size:32" json:"sector_code"`
	Share      decimal.Decimal `gorm:"type:decimal(7,6)" json:"share"`
}

func (SectorShare) TableName() string { return "debtor_revenue_sectors" }

// Financials is the matched actuals of one book year.
type Financials struct {
	BookYear     int
	BalanceSheet BalanceSheet
	PL           PL
}

// LatestActuals picks the most recent book year that has both a
// non-pro-forma balance sheet and P&L.
func LatestActuals(sheets []BalanceSheet, pls []PL) (Financials, error) {
	byYear := make(map[int]PL, len(pls))
	for _, p := range pls {
		if !p.IsProForma {
			byYear[p.BookYear] = p
		}
	}
	var (
		best  Financials
		found bool
	)
	for _, s := range sheets {
		if s.IsProForma {
			continue
		}
		p, ok := byYear[s.BookYear]
		if !ok {
			continue
		}
		if !found || s.BookYear > best.BookYear {
			best = Financials{BookYear: s.BookYear, BalanceSheet: s, PL: p}
			found = true
		}
	}
	if !found {
		return Financials{}, ErrNoActuals
	}
	return best, nil
}
