package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	runcache "loanportfolio/internal/adapter/cache"
	httpadp "loanportfolio/internal/adapter/http"
	mw "loanportfolio/internal/adapter/middleware"
	"loanportfolio/internal/adapter/repository/mysql"
	"loanportfolio/internal/config"
	infracache "loanportfolio/internal/infrastructure/cache"
	infradb "loanportfolio/internal/infrastructure/db"
	"loanportfolio/internal/infrastructure/logging"
	"loanportfolio/internal/infrastructure/metrics"
	"loanportfolio/internal/usecase/portfolio"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("engine stopped", zap.Error(err))
	}
	logger.Info("engine stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := infradb.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		return err
	}
	if err := infradb.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := infracache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	owner, _ := os.Hostname()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	repos := mysql.Repos(db)
	uc := portfolio.NewUsecase(
		mysql.NewGormUoW(db),
		repos,
		runcache.NewRunCache(rdb, cfg.RunCacheTTL, owner),
		metrics.NewMetrics(reg),
		logger.Named("portfolio"),
		portfolio.Options{Workers: cfg.SimWorkers},
	)

	checks := []httpadp.Check{
		{Name: "mysql", Ping: sqlDB.PingContext},
		{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
	funds := make([]httpadp.Fund, 0, len(cfg.ScheduledRuns))
	for _, f := range cfg.ScheduledRuns {
		funds = append(funds, httpadp.Fund{TenantID: f.TenantID, FundID: f.FundID})
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID(), mw.RequestLogger(logger.Named("http")), middleware.Recover())
	httpadp.Register(e, httpadp.NewHandler(checks, repos.RiskRuns, funds), reg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.AppPort
		logger.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	if cfg.RunInterval > 0 && len(cfg.ScheduledRuns) > 0 {
		g.Go(func() error {
			scheduleRuns(gctx, uc, cfg, logger.Named("scheduler"))
			return nil
		})
	}
	return g.Wait()
}

// scheduleRuns simulates every configured fund once per interval until ctx ends.
func scheduleRuns(ctx context.Context, uc *portfolio.Usecase, cfg *config.Config, logger *zap.Logger) {
	t := time.NewTicker(cfg.RunInterval)
	defer t.Stop()
	for {
		simulateAll(ctx, uc, cfg, logger)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func simulateAll(ctx context.Context, uc *portfolio.Usecase, cfg *config.Config, logger *zap.Logger) {
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	for _, f := range cfg.ScheduledRuns {
		fields := []zap.Field{zap.String("tenant_id", f.TenantID), zap.String("fund_id", f.FundID)}
		run, err := uc.SimulateFund(ctx, f.TenantID, f.FundID, asOf, cfg.SimTrials, cfg.SimSeed)
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, portfolio.ErrRunInProgress):
			logger.Info("fund simulation already running", fields...)
		case err != nil:
			logger.Error("fund simulation failed", append(fields, zap.Error(err))...)
		default:
			logger.Info("fund simulated", append(fields,
				zap.String("run_id", run.RunID),
				zap.String("expected_loss", run.ExpectedLoss.StringFixed(2)),
				zap.String("loss_var99", run.LossVaR99.StringFixed(2)),
			)...)
		}
	}
}
