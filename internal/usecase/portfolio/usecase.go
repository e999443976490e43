package portfolio

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"loanportfolio/internal/domain/uow"
	"loanportfolio/internal/infrastructure/metrics"
	"loanportfolio/internal/usecase/simulation"
)

var ErrRunInProgress = errors.New("identical simulation already in progress")

// RunCache collapses identical simulation requests across workers.
type RunCache interface {
	Claim(ctx context.Context, fingerprint string) (bool, string, error)
	Complete(ctx context.Context, fingerprint, runID string) error
	Release(ctx context.Context, fingerprint string) error
}

type Options struct {
	Workers   int
	ChunkSize int
	// Source overrides the random source of the simulator.
	Source simulation.SourceFactory
	Now    func() time.Time
}

// Usecase runs the engines over storage snapshots. Writes go through the
// unit of work, snapshot reads through repos.
type Usecase struct {
	uow     uow.UnitOfWork
	repos   uow.Repos
	cache   RunCache
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    Options
}

// NewUsecase wires the orchestrator. cache and m may be nil.
func NewUsecase(tx uow.UnitOfWork, repos uow.Repos, cache RunCache, m *metrics.Metrics, log *zap.Logger, opts Options) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Usecase{uow: tx, repos: repos, cache: cache, metrics: m, log: log, opts: opts}
}
