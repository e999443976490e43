package portfolio

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"loanportfolio/internal/domain/collateral"
	"loanportfolio/internal/domain/debtor"
	"loanportfolio/internal/domain/loan"
	"loanportfolio/internal/domain/modelsettings"
	"loanportfolio/internal/domain/tariff"
	"loanportfolio/internal/domain/uow"
	"loanportfolio/internal/infrastructure/metrics"
	"loanportfolio/internal/testutil/collateralmock"
	"loanportfolio/internal/testutil/debtormock"
	"loanportfolio/internal/testutil/loanmock"
	"loanportfolio/internal/testutil/riskmock"
	"loanportfolio/internal/testutil/settingsmock"
	"loanportfolio/internal/testutil/uowmock"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

var asOf = date(2024, time.January, 1)

// world is an in-memory store behind the repository mocks.
//
// Fund t1/f1 holds L1 (600k linear over 60 months), secured by 60% of an
// office (1m appraised, indexed +4%, 10% haircut) and all of a 500k retail
// unit. X9 in another fund holds the remaining 40% of the office with
// priority 2. The debtor's 2023 Debt/EBITDA is 2.4, which rates B.
type world struct {
	loans      map[string]*loan.Loan
	payments   map[uint64][]loan.LoanPayment
	sheets     map[string][]debtor.BalanceSheet
	pls        map[string][]debtor.PL
	shares     map[string][]debtor.SectorShare
	assets     []collateral.Collateral
	links      []collateral.LoanCollateral
	indices    []collateral.Index
	tariffs    *settingsmock.TariffRepo
	models     *settingsmock.ModelRepo
	runs       *riskmock.Store
	replaced   int
	loanSaves  int
	paymentErr error
}

func newWorld() *world {
	return &world{
		loans: map[string]*loan.Loan{
			"L1": {
				ID: 1, LoanID: "L1", TenantID: "t1", FundID: "f1", DebtorID: "d1",
				Principal: dec("600000"), AnnualRate: dec("0.05"), TenorMonths: 60,
				StartDate: date(2024, time.January, 15), RedemptionSchedule: string(loan.ScheduleLinear),
				Status: loan.StatusActive, Currency: "EUR", ImpactLevel: 1,
			},
			"X9": {
				ID: 9, LoanID: "X9", TenantID: "t1", FundID: "f2", DebtorID: "d1",
				Principal: dec("300000"), AnnualRate: dec("0.05"), TenorMonths: 24,
				StartDate: date(2023, time.June, 15), RedemptionSchedule: string(loan.ScheduleBullet),
				Status: loan.StatusActive, Currency: "EUR",
			},
		},
		payments: map[uint64][]loan.LoanPayment{},
		sheets: map[string][]debtor.BalanceSheet{
			"d1": {
				{DebtorID: "d1", BookYear: 2023, TotalAssets: dec("4000000"), TotalLiabilities: dec("2400000"), Equity: dec("1600000")},
				{DebtorID: "d1", BookYear: 2024, IsProForma: true, TotalLiabilities: dec("100")},
			},
		},
		pls: map[string][]debtor.PL{
			"d1": {{DebtorID: "d1", BookYear: 2023, Revenue: dec("5000000"), EBITDA: dec("1000000")}},
		},
		shares: map[string][]debtor.SectorShare{
			"d1": {{DebtorID: "d1", SectorCode: "retail", Share: dec("0.7")}},
		},
		assets: []collateral.Collateral{
			{CollateralID: "c1", PropertyType: "office", AppraisalValue: dec("1000000"), AppraisalDate: date(2023, time.November, 20), LiquidityHaircut: dec("0.1")},
			{CollateralID: "c2", PropertyType: "retail", AppraisalValue: dec("500000"), AppraisalDate: date(2024, time.January, 5)},
		},
		links: []collateral.LoanCollateral{
			{LoanID: "L1", CollateralID: "c1", AllocationPercentage: dec("60"), Priority: 1},
			{LoanID: "X9", CollateralID: "c1", AllocationPercentage: dec("40"), Priority: 2},
			{LoanID: "L1", CollateralID: "c2", AllocationPercentage: dec("100"), Priority: 1},
		},
		indices: []collateral.Index{
			{PropertyType: "office", Year: 2023, Quarter: 4, PriceIndex: dec("100")},
			{PropertyType: "office", Year: 2024, Quarter: 1, PriceIndex: dec("104")},
			{PropertyType: "retail", Year: 2024, Quarter: 1, PriceIndex: dec("100")},
		},
		tariffs: &settingsmock.TariffRepo{
			Settings: &tariff.Settings{
				Active:   true,
				BaseRate: dec("0.03"),
				RatingSpreads: []tariff.CreditRatingSpread{
					{Rating: "A", Spread: dec("0.01")},
					{Rating: "B", Spread: dec("0.02")},
					{Rating: "C", Spread: dec("0.04")},
				},
				LtvTiers: []tariff.LtvSpreadTier{
					{MaxLtv: nullDec("0.6"), Spread: dec("0.005")},
					{MaxLtv: nullDec("0.8"), Spread: dec("0.01")},
					{Spread: dec("0.03")},
				},
				ImpactDiscounts: []tariff.ImpactDiscount{
					{Level: 0, Discount: dec("0")},
					{Level: 1, Discount: dec("0.002")},
				},
			},
			Thresholds: []tariff.CreditRatingThreshold{
				{RatioName: "Debt/EBITDA", Rating: "A", MinValue: nullDec("0"), MaxValue: nullDec("2")},
				{RatioName: "Debt/EBITDA", Rating: "B", MinValue: nullDec("2"), MaxValue: nullDec("3")},
				{RatioName: "Debt/EBITDA", Rating: "C", MinValue: nullDec("3")},
			},
		},
		models: &settingsmock.ModelRepo{Settings: &modelsettings.Settings{
			Active:            true,
			DefaultGrowth:     0.01,
			DefaultVolatility: 0.15,
			TaxRate:           0.25,
			MinDSCR:           1.2,
			DefaultDSCR:       1,
			MaxLtv:            0.8,
			Sectors:           []modelsettings.SectorDefinition{{Code: "retail", Volatility: 0.25, Growth: 0.02}},
			PropertyTypes: []modelsettings.PropertyTypeParameter{
				{PropertyType: "office", ExpectedReturn: 0.01, Volatility: 0.1},
				{PropertyType: "retail", ExpectedReturn: 0.0, Volatility: 0.12},
			},
			CollateralLinks: []modelsettings.SectorCollateralCorrelation{{SectorCode: "retail", PropertyType: "retail", Rho: 0.4}},
		}},
		runs: &riskmock.Store{},
	}
}

func (w *world) repos() uow.Repos {
	get := func(_ context.Context, id string) (*loan.Loan, error) {
		l, ok := w.loans[id]
		if !ok {
			return nil, loan.ErrNotFound
		}
		cp := *l
		return &cp, nil
	}
	in := func(ids []string, v string) bool { return slices.Contains(ids, v) }
	return uow.Repos{
		Loans: &loanmock.Repo{
			GetByLoanIDFn:          get,
			GetByLoanIDForUpdateFn: get,
			ListByFundFn: func(_ context.Context, tenantID, fundID string) ([]loan.Loan, error) {
				var out []loan.Loan
				for _, id := range []string{"L1", "L2", "L3", "X9"} {
					if l, ok := w.loans[id]; ok && l.TenantID == tenantID && l.FundID == fundID && l.Status == loan.StatusActive {
						out = append(out, *l)
					}
				}
				return out, nil
			},
			SaveFn: func(_ context.Context, l *loan.Loan) error {
				cp := *l
				w.loans[l.LoanID] = &cp
				w.loanSaves++
				return nil
			},
		},
		Payments: &loanmock.PaymentRepo{
			ListByLoanFn: func(_ context.Context, id uint64) ([]loan.LoanPayment, error) {
				return slices.Clone(w.payments[id]), nil
			},
			ReplaceScheduleFn: func(_ context.Context, id uint64, ps []loan.LoanPayment) error {
				w.payments[id] = slices.Clone(ps)
				w.replaced++
				return nil
			},
			SaveFn: func(_ context.Context, p *loan.LoanPayment) error {
				if w.paymentErr != nil {
					return w.paymentErr
				}
				for i := range w.payments[p.LoanID] {
					if w.payments[p.LoanID][i].Month == p.Month {
						w.payments[p.LoanID][i] = *p
					}
				}
				return nil
			},
		},
		Debtors: &debtormock.Repo{
			ListBalanceSheetsFn: func(_ context.Context, id string) ([]debtor.BalanceSheet, error) { return w.sheets[id], nil },
			ListPLsFn:           func(_ context.Context, id string) ([]debtor.PL, error) { return w.pls[id], nil },
			ListSectorSharesFn:  func(_ context.Context, id string) ([]debtor.SectorShare, error) { return w.shares[id], nil },
		},
		Collaterals: &collateralmock.Repo{
			ListByIDsFn: func(_ context.Context, ids []string) ([]collateral.Collateral, error) {
				var out []collateral.Collateral
				for _, a := range w.assets {
					if in(ids, a.CollateralID) {
						out = append(out, a)
					}
				}
				return out, nil
			},
			ListLinksByLoansFn: func(_ context.Context, ids []string) ([]collateral.LoanCollateral, error) {
				var out []collateral.LoanCollateral
				for _, l := range w.links {
					if in(ids, l.LoanID) {
						out = append(out, l)
					}
				}
				return out, nil
			},
			ListLinksByCollateralsFn: func(_ context.Context, ids []string) ([]collateral.LoanCollateral, error) {
				var out []collateral.LoanCollateral
				for _, l := range w.links {
					if in(ids, l.CollateralID) {
						out = append(out, l)
					}
				}
				return out, nil
			},
			ListIndicesFn: func(_ context.Context, types []string) ([]collateral.Index, error) {
				var out []collateral.Index
				for _, i := range w.indices {
					if in(types, i.PropertyType) {
						out = append(out, i)
					}
				}
				return out, nil
			},
		},
		Tariffs:  w.tariffs,
		Models:   w.models,
		RiskRuns: w.runs.Repo(),
	}
}

func newTestUsecase(t *testing.T, w *world, cache RunCache) (*Usecase, *metrics.Metrics) {
	t.Helper()
	repos := w.repos()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	uc := NewUsecase(uowmock.Passthrough(repos), repos, cache, m, zaptest.NewLogger(t), Options{Workers: 2, ChunkSize: 50})
	return uc, m
}

// fakeCache is an in-memory RunCache. An empty run ID marks a claim in
// flight.
type fakeCache struct {
	entries  map[string]string
	err      error
	released int
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]string{}} }

func (c *fakeCache) Claim(_ context.Context, fp string) (bool, string, error) {
	if c.err != nil {
		return false, "", c.err
	}
	if id, ok := c.entries[fp]; ok {
		return false, id, nil
	}
	c.entries[fp] = ""
	return true, "", nil
}

func (c *fakeCache) Complete(_ context.Context, fp, runID string) error {
	if c.err != nil {
		return c.err
	}
	c.entries[fp] = runID
	return nil
}

func (c *fakeCache) Release(_ context.Context, fp string) error {
	delete(c.entries, fp)
	c.released++
	return nil
}
