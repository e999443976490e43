package simulation

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/modelsettings"
	"loanportfolio/internal/usecase/rating"
)

const DefaultChunkSize = 250

type Options struct {
	Trials int
	Seed   uint64
	// Workers bounds the chunks simulated concurrently; defaults to
	// runtime.NumCPU. Results do not depend on it.
	Workers int
	// ChunkSize is the number of trials per unit of work. Summaries are
	// bit-identical for a fixed chunk size.
	ChunkSize int
	Source    SourceFactory
	// Rating enables the simulated Debt/EBITDA rating distribution.
	Rating *rating.Engine
}

type LoanResult struct {
	LoanID                  string
	Exposure                float64
	DefaultFrequency        float64
	CovenantBreachFrequency float64
	ExpectedLoss            float64
	LtvP50                  float64
	LtvP95                  float64
	LtvP99                  float64
	// RatingDistribution is the share of trials ending in each rating.
	RatingDistribution map[string]float64
}

type Summary struct {
	Trials           int
	Seed             uint64
	TotalExposure    float64
	DefaultFrequency float64
	ExpectedLoss     float64
	LossVaR95        float64
	LossVaR99        float64
	LossES95         float64
	LossPercentiles  map[string]float64
	Loans            []LoanResult
}

// Run simulates the portfolio over its remaining tenor. Trials are split
// into chunks run on a bounded worker pool; trial t always draws from
// opts.Source(seed, t) and chunks are merged in order, so the summary is a
// function of the inputs and the seed only. A cancelled run returns the
// context error and no partial summary.
func Run(ctx context.Context, p *Portfolio, s *modelsettings.Settings, opts Options) (*Summary, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: model settings", apperr.ErrConfigurationMissing)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: nil portfolio", apperr.ErrInvalidInput)
	}
	if opts.Trials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", apperr.ErrInvalidInput, opts.Trials)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Source == nil {
		opts.Source = PCGSource
	}

	m, err := newModel(p, s, opts.Rating)
	if err != nil {
		return nil, err
	}

	chunks := (opts.Trials + opts.ChunkSize - 1) / opts.ChunkSize
	results := make([]*chunkResult, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for c := 0; c < chunks; c++ {
		if gctx.Err() != nil {
			break
		}
		first := c * opts.ChunkSize
		n := min(opts.ChunkSize, opts.Trials-first)
		g.Go(func() error {
			r, err := m.runChunk(gctx, opts, first, n)
			if err != nil {
				return err
			}
			results[c] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.merge(results, opts), nil
}

func (m *model) runChunk(ctx context.Context, opts Options, first, n int) (*chunkResult, error) {
	sc := m.newScratch()
	r := newChunkResult(len(m.loans), n)
	for t := first; t < first+n; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.trial(opts.Source(opts.Seed, uint64(t)), sc)
		r.add(sc.state)
	}
	return r, nil
}
