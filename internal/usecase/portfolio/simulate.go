package portfolio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/debtor"
	"loanportfolio/internal/domain/loan"
	"loanportfolio/internal/domain/modelsettings"
	"loanportfolio/internal/domain/risk"
	"loanportfolio/internal/domain/tariff"
	"loanportfolio/internal/domain/uow"
	"loanportfolio/internal/usecase/amortization"
	"loanportfolio/internal/usecase/rating"
	"loanportfolio/internal/usecase/simulation"
	"loanportfolio/pkg/id"
)

// snapshot is everything a fund simulation reads. Its JSON encoding is the
// run fingerprint input.
type snapshot struct {
	Portfolio  *simulation.Portfolio          `json:"portfolio"`
	Settings   *modelsettings.Settings        `json:"settings"`
	Thresholds []tariff.CreditRatingThreshold `json:"thresholds"`
}

// SimulateFund runs the Monte Carlo simulation over a fund's active loans
// and stores the summary. An identical earlier run (same snapshot, trials
// and seed) is returned instead of recomputed.
func (u *Usecase) SimulateFund(ctx context.Context, tenantID, fundID string, asOf time.Time, trials int, seed uint64) (*risk.Run, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", apperr.ErrInvalidInput, trials)
	}
	log := u.log.With(zap.String("tenant_id", tenantID), zap.String("fund_id", fundID))

	snap, err := u.loadSnapshot(ctx, tenantID, fundID, asOf)
	if err != nil {
		u.metrics.ObserveRun("error", 0, 0)
		log.Warn("fund snapshot failed", zap.String("kind", string(apperr.KindOf(err))), zap.Error(err))
		return nil, err
	}
	fp, err := fingerprint(snap, asOf, trials, seed)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("fingerprint", fp[:12]))

	cached, claimed := false, false
	if u.cache != nil {
		ok, runID, err := u.cache.Claim(ctx, fp)
		switch {
		case err != nil:
			log.Warn("run cache unavailable, continuing without it", zap.Error(err))
		case ok:
			cached, claimed = true, true
		case runID == "":
			u.metrics.ObserveRun("in_progress", 0, 0)
			return nil, fmt.Errorf("%w: %s/%s", ErrRunInProgress, tenantID, fundID)
		default:
			cached = true
		}
	}
	release := func() {
		if !claimed {
			return
		}
		if err := u.cache.Release(context.WithoutCancel(ctx), fp); err != nil {
			log.Warn("release run claim", zap.Error(err))
		}
	}
	complete := func(runID string) {
		if !cached {
			return
		}
		if err := u.cache.Complete(context.WithoutCancel(ctx), fp, runID); err != nil {
			log.Warn("complete run claim", zap.Error(err))
		}
	}

	prev, err := u.repos.RiskRuns.GetByFingerprint(ctx, fp)
	switch {
	case err == nil:
		complete(prev.RunID)
		u.metrics.CacheHit()
		log.Info("simulation answered from stored run", zap.String("run_id", prev.RunID))
		return prev, nil
	case !errors.Is(err, risk.ErrNotFound):
		release()
		return nil, err
	}

	opts := simulation.Options{
		Trials:    trials,
		Seed:      seed,
		Workers:   u.opts.Workers,
		ChunkSize: u.opts.ChunkSize,
		Source:    u.opts.Source,
	}
	if len(snap.Thresholds) > 0 {
		re, err := rating.NewEngine(snap.Thresholds, nil)
		if err != nil {
			release()
			return nil, err
		}
		opts.Rating = re
	}

	start := u.opts.Now()
	sum, err := simulation.Run(ctx, snap.Portfolio, snap.Settings, opts)
	elapsed := u.opts.Now().Sub(start)
	if err != nil {
		release()
		u.metrics.ObserveRun(runResult(err), elapsed, trials)
		log.Warn("simulation failed", zap.String("kind", string(apperr.KindOf(err))), zap.Error(err))
		return nil, err
	}

	run, err := toRun(sum, tenantID, fundID, asOf, fp)
	if err != nil {
		release()
		return nil, err
	}
	if err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.RiskRuns.Create(ctx, run)
	}); err != nil {
		release()
		u.metrics.ObserveRun("error", elapsed, trials)
		return nil, err
	}
	complete(run.RunID)

	u.metrics.ObserveRun("ok", elapsed, trials)
	log.Info("fund simulated",
		zap.String("run_id", run.RunID),
		zap.Int("loans", len(run.Loans)),
		zap.Int("trials", trials),
		zap.Uint64("seed", seed),
		zap.Float64("default_frequency", run.DefaultFrequency),
		zap.Stringer("expected_loss", run.ExpectedLoss),
		zap.Stringer("var99", run.LossVaR99),
		zap.Duration("elapsed", elapsed))
	return run, nil
}

func runResult(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "error"
}

// loadSnapshot loads the fund into simulator input. Collateral values are
// indexed to asOf and net of haircut; first mortgages stay separate so the
// simulator can rank them ahead of the fund.
func (u *Usecase) loadSnapshot(ctx context.Context, tenantID, fundID string, asOf time.Time) (*snapshot, error) {
	r := u.repos
	loans, err := r.Loans.ListByFund(ctx, tenantID, fundID)
	if err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return nil, fmt.Errorf("%w: fund %s/%s has no active loans", apperr.ErrInvalidInput, tenantID, fundID)
	}
	settings, err := r.Models.GetActive(ctx)
	if err != nil {
		if errors.Is(err, modelsettings.ErrNoActiveSettings) {
			return nil, fmt.Errorf("%w: %w", apperr.ErrConfigurationMissing, err)
		}
		return nil, err
	}
	thresholds, err := r.Tariffs.ListThresholds(ctx)
	if err != nil {
		return nil, err
	}

	p := &simulation.Portfolio{}
	inFund := make(map[string]bool, len(loans))
	loanIDs := make([]string, 0, len(loans))
	for _, l := range loans {
		inFund[l.LoanID] = true
		loanIDs = append(loanIDs, l.LoanID)
	}

	links, err := r.Collaterals.ListLinksByLoans(ctx, loanIDs)
	if err != nil {
		return nil, err
	}
	claims := make(map[string][]simulation.Claim)
	if len(links) > 0 {
		book, err := loadCollateral(ctx, r.Collaterals, links)
		if err != nil {
			return nil, err
		}
		for _, c := range book.assets {
			ratio, err := book.engine.IndexRatio(c, asOf)
			if err != nil {
				return nil, err
			}
			value := c.AppraisalValue.Mul(ratio).Mul(decimal.NewFromInt(1).Sub(c.LiquidityHaircut))
			p.Collaterals = append(p.Collaterals, simulation.Collateral{
				CollateralID:  c.CollateralID,
				PropertyType:  c.PropertyType,
				Value:         value.InexactFloat64(),
				FirstMortgage: c.FirstMortgageAmount.Decimal.InexactFloat64(),
			})
		}
		for _, lc := range book.claims {
			c := simulation.Claim{CollateralID: lc.CollateralID, Share: lc.Share().InexactFloat64(), Priority: lc.Priority}
			if inFund[lc.LoanID] {
				claims[lc.LoanID] = append(claims[lc.LoanID], c)
				continue
			}
			exposure, err := u.foreignExposure(ctx, lc.LoanID, asOf)
			if err != nil {
				return nil, err
			}
			p.ForeignClaims = append(p.ForeignClaims, simulation.ForeignClaim{Claim: c, LoanID: lc.LoanID, Exposure: exposure})
		}
	}

	debtors := make(map[string]simulation.Debtor)
	for i := range loans {
		l := &loans[i]
		schedule, err := loadSchedule(ctx, r.Payments, l)
		if err != nil {
			return nil, err
		}
		d, ok := debtors[l.DebtorID]
		if !ok {
			d, err = loadDebtor(ctx, r.Debtors, l.DebtorID)
			if err != nil {
				return nil, err
			}
			debtors[l.DebtorID] = d
		}
		p.Loans = append(p.Loans, simulation.Loan{
			LoanID:   l.LoanID,
			Exposure: l.Outstanding(schedule, asOf).InexactFloat64(),
			Years:    simulation.YearlyService(schedule, asOf),
			Debtor:   d,
			Claims:   claims[l.LoanID],
		})
	}
	return &snapshot{Portfolio: p, Settings: settings, Thresholds: thresholds}, nil
}

// foreignExposure is the balance at asOf of a loan outside the fund that
// shares collateral with it. Deleted loans no longer claim anything.
func (u *Usecase) foreignExposure(ctx context.Context, loanID string, asOf time.Time) (float64, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if errors.Is(err, loan.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	schedule, err := loadSchedule(ctx, u.repos.Payments, l)
	if err != nil {
		return 0, err
	}
	return l.Outstanding(schedule, asOf).InexactFloat64(), nil
}

// loadSchedule reads the stored schedule, computing it from the terms for
// loans that were never scheduled.
func loadSchedule(ctx context.Context, repo loan.PaymentRepository, l *loan.Loan) ([]loan.PeriodPayment, error) {
	ps, err := repo.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if len(ps) > 0 {
		return loan.AsSchedule(ps), nil
	}
	terms, err := l.Terms()
	if err != nil {
		return nil, fmt.Errorf("%w: loan %s: %v", apperr.ErrInvalidInput, l.LoanID, err)
	}
	return amortization.Compute(terms)
}

func loadDebtor(ctx context.Context, repo debtor.Repository, debtorID string) (simulation.Debtor, error) {
	sheets, err := repo.ListBalanceSheets(ctx, debtorID)
	if err != nil {
		return simulation.Debtor{}, err
	}
	pls, err := repo.ListPLs(ctx, debtorID)
	if err != nil {
		return simulation.Debtor{}, err
	}
	f, err := debtor.LatestActuals(sheets, pls)
	if err != nil {
		return simulation.Debtor{}, fmt.Errorf("%w: debtor %s: %w", apperr.ErrUnratableInput, debtorID, err)
	}
	shares, err := repo.ListSectorShares(ctx, debtorID)
	if err != nil {
		return simulation.Debtor{}, err
	}
	d := simulation.Debtor{
		DebtorID:         debtorID,
		EBITDA:           f.PL.EBITDA.InexactFloat64(),
		TotalLiabilities: f.BalanceSheet.TotalLiabilities.InexactFloat64(),
	}
	for _, s := range shares {
		d.Sectors = append(d.Sectors, simulation.SectorWeight{Code: s.SectorCode, Share: s.Share.InexactFloat64()})
	}
	return d, nil
}

func fingerprint(s *snapshot, asOf time.Time, trials int, seed uint64) (string, error) {
	payload, err := json.Marshal(struct {
		AsOf     string    `json:"as_of"`
		Trials   int       `json:"trials"`
		Seed     uint64    `json:"seed"`
		Snapshot *snapshot `json:"snapshot"`
	}{asOf.UTC().Format(time.DateOnly), trials, seed, s})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v).Round(2) }

func toRun(sum *simulation.Summary, tenantID, fundID string, asOf time.Time, fp string) (*risk.Run, error) {
	pct, err := json.Marshal(sum.LossPercentiles)
	if err != nil {
		return nil, err
	}
	run := &risk.Run{
		RunID:            id.NewID32(),
		TenantID:         tenantID,
		FundID:           fundID,
		AsOf:             asOf,
		Seed:             sum.Seed,
		Trials:           sum.Trials,
		Fingerprint:      fp,
		TotalExposure:    money(sum.TotalExposure),
		DefaultFrequency: sum.DefaultFrequency,
		ExpectedLoss:     money(sum.ExpectedLoss),
		LossVaR95:        money(sum.LossVaR95),
		LossVaR99:        money(sum.LossVaR99),
		LossES95:         money(sum.LossES95),
		LossPercentiles:  datatypes.JSON(pct),
	}
	for _, lr := range sum.Loans {
		dist, err := json.Marshal(lr.RatingDistribution)
		if err != nil {
			return nil, err
		}
		run.Loans = append(run.Loans, risk.RunLoan{
			LoanID:                  lr.LoanID,
			Exposure:                money(lr.Exposure),
			DefaultFrequency:        lr.DefaultFrequency,
			CovenantBreachFrequency: lr.CovenantBreachFrequency,
			ExpectedLoss:            money(lr.ExpectedLoss),
			LtvP50:                  lr.LtvP50,
			LtvP95:                  lr.LtvP95,
			LtvP99:                  lr.LtvP99,
			RatingDistribution:      datatypes.JSON(dist),
		})
	}
	return run, nil
}
