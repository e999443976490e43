package tariff

import "context"

type Repository interface {
	// GetActive loads the active settings with all spread tables.
	GetActive(ctx context.Context) (*Settings, error)
	ListThresholds(ctx context.Context) ([]CreditRatingThreshold, error)
}
