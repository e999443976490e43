package risk

import "context"

type Repository interface {
	// Create stores the run together with its loan rows.
	Create(ctx context.Context, r *Run) error
	GetByFingerprint(ctx context.Context, fingerprint string) (*Run, error)
	ListByFund(ctx context.Context, tenantID, fundID string, limit int) ([]Run, error)
}
