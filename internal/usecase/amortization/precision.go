package amortization

import (
	"strings"

	"github.com/Rhymond/go-money"
)

const defaultPlaces = 2

// currencyPlaces returns the ISO 4217 minor-unit digits of code, 2 when the
// code is empty or unknown.
func currencyPlaces(code string) int32 {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return defaultPlaces
	}
	c := money.GetCurrency(code)
	if c == nil {
		return defaultPlaces
	}
	return int32(c.Fraction)
}
