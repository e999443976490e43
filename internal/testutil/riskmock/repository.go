package riskmock

import (
	"context"

	domain "loanportfolio/internal/domain/risk"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn           func(ctx context.Context, r *domain.Run) error
	GetByFingerprintFn func(ctx context.Context, fingerprint string) (*domain.Run, error)
	ListByFundFn       func(ctx context.Context, tenantID, fundID string, limit int) ([]domain.Run, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Run) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Run, error) {
	if m.GetByFingerprintFn != nil {
		return m.GetByFingerprintFn(ctx, fingerprint)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByFund(ctx context.Context, tenantID, fundID string, limit int) ([]domain.Run, error) {
	if m.ListByFundFn != nil {
		return m.ListByFundFn(ctx, tenantID, fundID, limit)
	}
	return nil, nil
}

// Store is an in-memory Repo keyed by fingerprint.
type Store struct {
	Runs []*domain.Run
}

func (s *Store) Repo() *Repo {
	return &Repo{
		CreateFn: func(_ context.Context, r *domain.Run) error {
			s.Runs = append(s.Runs, r)
			return nil
		},
		GetByFingerprintFn: func(_ context.Context, fp string) (*domain.Run, error) {
			for i := len(s.Runs) - 1; i >= 0; i-- {
				if s.Runs[i].Fingerprint == fp {
					return s.Runs[i], nil
				}
			}
			return nil, domain.ErrNotFound
		},
		ListByFundFn: func(_ context.Context, tenantID, fundID string, limit int) ([]domain.Run, error) {
			var out []domain.Run
			for i := len(s.Runs) - 1; i >= 0; i-- {
				r := s.Runs[i]
				if r.TenantID != tenantID || r.FundID != fundID {
					continue
				}
				out = append(out, *r)
				if limit > 0 && len(out) == limit {
					break
				}
			}
			return out, nil
		},
	}
}
