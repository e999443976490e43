package modelsettings

import "context"

type Repository interface {
	GetActive(ctx context.Context) (*Settings, error)
}
