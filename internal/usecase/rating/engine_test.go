package rating

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/debtor"
	"loanportfolio/internal/domain/tariff"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func band(ratio, rating, min, max string) tariff.CreditRatingThreshold {
	t := tariff.CreditRatingThreshold{RatioName: ratio, Rating: rating}
	if min != "" {
		t.MinValue = decimal.NewNullDecimal(dec(min))
	}
	if max != "" {
		t.MaxValue = decimal.NewNullDecimal(dec(max))
	}
	return t
}

func debtEbitdaBands() []tariff.CreditRatingThreshold {
	return []tariff.CreditRatingThreshold{
		band("Debt/EBITDA", "A", "0", "1.5"),
		band("Debt/EBITDA", "B", "1.5", "3.0"),
		band("Debt/EBITDA", "C", "3.0", ""),
	}
}

func newEngine(t *testing.T, th []tariff.CreditRatingThreshold) *Engine {
	t.Helper()
	e, err := NewEngine(th, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestRateValue_Example(t *testing.T) {
	e := newEngine(t, debtEbitdaBands())
	tests := []struct {
		v    string
		want string
	}{
		{"0", "A"},
		{"1.49", "A"},
		{"1.5", "B"},
		{"2.9", "B"},
		{"3.0", "C"},
		{"42", "C"},
		// below the lowest band clamps to it
		{"-0.5", "A"},
	}
	for _, tt := range tests {
		got, err := e.RateValue(DebtToEBITDA, dec(tt.v))
		if err != nil {
			t.Fatalf("RateValue(%s): %v", tt.v, err)
		}
		if got != tt.want {
			t.Errorf("RateValue(%s) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestRateValue_MonotonicWithinBand(t *testing.T) {
	e := newEngine(t, debtEbitdaBands())
	for v := dec("1.5"); v.LessThan(dec("3.0")); v = v.Add(dec("0.01")) {
		got, err := e.RateValue(DebtToEBITDA, v)
		if err != nil || got != "B" {
			t.Fatalf("RateValue(%s) = %s, %v; want B", v, got, err)
		}
	}
}

func TestRateValue_ClampAboveHighest(t *testing.T) {
	e := newEngine(t, []tariff.CreditRatingThreshold{
		band("current_ratio", "C", "0", "1"),
		band("current_ratio", "B", "1", "2"),
		band("current_ratio", "A", "2", "5"),
	})
	got, err := e.RateValue(CurrentRatio, dec("7"))
	if err != nil || got != "A" {
		t.Fatalf("RateValue(7) = %s, %v; want A", got, err)
	}
}

func TestRateValue_OverlapPicksTightest(t *testing.T) {
	e := newEngine(t, []tariff.CreditRatingThreshold{
		band("Debt/EBITDA", "A", "0", "4"),
		band("Debt/EBITDA", "BB", "2", "3"),
		band("Debt/EBITDA", "B", "2", "3"),
	})
	got, err := e.RateValue(DebtToEBITDA, dec("2.5"))
	if err != nil {
		t.Fatal(err)
	}
	// BB and B are equally tight, B is more conservative
	if got != "B" {
		t.Fatalf("got %s, want B", got)
	}
	got, _ = e.RateValue(DebtToEBITDA, dec("1"))
	if got != "A" {
		t.Fatalf("got %s, want A", got)
	}
}

func TestRateValue_Failures(t *testing.T) {
	e := newEngine(t, []tariff.CreditRatingThreshold{
		band("Debt/EBITDA", "A", "0", "1.5"),
		band("Debt/EBITDA", "C", "2", "4"),
	})
	if _, err := e.RateValue(DebtToEBITDA, dec("1.7")); !errors.Is(err, apperr.ErrUnratableInput) {
		t.Fatalf("gap: expected ErrUnratableInput, got %v", err)
	}
	if _, err := e.RateValue(CurrentRatio, dec("1")); !errors.Is(err, apperr.ErrConfigurationMissing) {
		t.Fatalf("no bands: expected ErrConfigurationMissing, got %v", err)
	}
}

func TestNewEngine_UnknownRatio(t *testing.T) {
	_, err := NewEngine([]tariff.CreditRatingThreshold{band("quick ratio", "A", "0", "")}, nil)
	if !errors.Is(err, apperr.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestComputeCreditRating(t *testing.T) {
	th := append(debtEbitdaBands(),
		band("solvency", "C", "", "0.1"),
		band("solvency", "B", "0.1", "0.3"),
		band("solvency", "A", "0.3", ""),
	)
	sheets := []debtor.BalanceSheet{
		{BookYear: 2023, TotalAssets: dec("1000"), TotalLiabilities: dec("600"), Equity: dec("400")},
		{BookYear: 2024, IsProForma: true, TotalAssets: dec("1000"), TotalLiabilities: dec("990"), Equity: dec("10")},
	}
	pls := []debtor.PL{
		{BookYear: 2023, EBITDA: dec("250")},
		{BookYear: 2024, IsProForma: true, EBITDA: dec("1")},
	}
	res, err := ComputeCreditRating(sheets, pls, []Ratio{DebtToEBITDA, Solvency}, th)
	if err != nil {
		t.Fatalf("ComputeCreditRating: %v", err)
	}
	// 600/250 = 2.4 -> B, 400/1000 = 0.4 -> A; overall the worse one
	if res.Rating != "B" || res.BookYear != 2023 {
		t.Fatalf("result = %+v", res)
	}
	if got := res.ByRatio[Solvency]; got.Rating != "A" || !got.Value.Equal(dec("0.4")) {
		t.Fatalf("solvency = %+v", got)
	}

	pls[0].EBITDA = decimal.Zero
	if _, err := ComputeCreditRating(sheets, pls, []Ratio{DebtToEBITDA}, th); !errors.Is(err, apperr.ErrUnratableInput) {
		t.Fatalf("zero EBITDA: expected ErrUnratableInput, got %v", err)
	}
	if _, err := ComputeCreditRating(nil, nil, nil, th); !errors.Is(err, apperr.ErrUnratableInput) {
		t.Fatalf("no actuals: expected ErrUnratableInput, got %v", err)
	}
}

func TestWorse(t *testing.T) {
	e := newEngine(t, nil)
	if !e.Worse("B", "A") || e.Worse("AAA", "AA") || !e.Worse("NR", "D") {
		t.Fatal("scale ordering broken")
	}
	if got := e.Worst("BBB", "A", "CCC", "AA"); got != "CCC" {
		t.Fatalf("Worst = %s", got)
	}
}

func TestParseRatio(t *testing.T) {
	for in, want := range map[string]Ratio{
		"Debt/EBITDA":    DebtToEBITDA,
		"debt_to_ebitda": DebtToEBITDA,
		"Current Ratio":  CurrentRatio,
		"ICR":            InterestCoverage,
		"net-margin":     NetMargin,
		"Equity ratio":   Solvency,
	} {
		got, err := ParseRatio(in)
		if err != nil || got != want {
			t.Errorf("ParseRatio(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
}
