package settingsmock

import (
	"context"

	"loanportfolio/internal/domain/modelsettings"
	"loanportfolio/internal/domain/tariff"
)

var (
	_ tariff.Repository        = (*TariffRepo)(nil)
	_ modelsettings.Repository = (*ModelRepo)(nil)
)

// TariffRepo serves fixed tariff settings and rating thresholds. A nil
// Settings reports tariff.ErrNoActiveSettings.
type TariffRepo struct {
	Settings   *tariff.Settings
	Thresholds []tariff.CreditRatingThreshold
	Err        error
}

func (m *TariffRepo) GetActive(context.Context) (*tariff.Settings, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Settings == nil {
		return nil, tariff.ErrNoActiveSettings
	}
	return m.Settings, nil
}

func (m *TariffRepo) ListThresholds(context.Context) ([]tariff.CreditRatingThreshold, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Thresholds, nil
}

// ModelRepo serves fixed model settings.
type ModelRepo struct {
	Settings *modelsettings.Settings
	Err      error
}

func (m *ModelRepo) GetActive(context.Context) (*modelsettings.Settings, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Settings == nil {
		return nil, modelsettings.ErrNoActiveSettings
	}
	return m.Settings, nil
}
