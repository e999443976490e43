package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"loanportfolio/internal/domain/loan"
	"loanportfolio/internal/usecase/pricing"
	"loanportfolio/internal/usecase/rating"
)

// QuoteDTO is the outcome of pricing and rescheduling one loan. Ltv is zero
// when Unsecured is set.
type QuoteDTO struct {
	LoanID       string                              `json:"loan_id"`
	AsOf         time.Time                           `json:"as_of"`
	Rating       string                              `json:"rating"`
	RatingYear   int                                 `json:"rating_year"`
	Ratios       map[rating.Ratio]rating.RatioRating `json:"ratios"`
	Outstanding  decimal.Decimal                     `json:"outstanding"`
	Collateral   decimal.Decimal                     `json:"collateral_value"`
	Ltv          decimal.Decimal                     `json:"ltv"`
	Unsecured    bool                                `json:"unsecured,omitempty"`
	Pricing      pricing.Breakdown                   `json:"pricing"`
	ScheduleType loan.ScheduleType                   `json:"schedule_type"`
	Schedule     []loan.PeriodPayment                `json:"schedule"`
}
