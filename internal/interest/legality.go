package interest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

// MaxAnnualRate is the Thai Civil and Commercial Code ceiling on interest for
// loans between natural persons: 15% per year.
var MaxAnnualRate = decimal.NewFromFloat(0.15)

var (
	daysPerYear   = decimal.NewFromInt(365)
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

type LegalityResult struct {
	IsLegal    bool
	Annualized decimal.Decimal
	Message    string
}

// CheckRateLegality annualizes a periodic rate and flags it against the legal
// ceiling. Advisory only: callers decide whether to block persisting the
// policy, the calculator itself never enforces it.
func CheckRateLegality(rate decimal.Decimal, mode domain.InterestMode) (LegalityResult, error) {
	var annualized decimal.Decimal
	switch mode {
	case domain.InterestModeDaily:
		annualized = rate.Mul(daysPerYear)
	case domain.InterestModeMonthly:
		annualized = rate.Mul(monthsPerYear)
	default:
		return LegalityResult{}, fmt.Errorf("CheckRateLegality: mode %q: %w", mode, domain.ErrInvalidRequest)
	}

	pct := annualized.Mul(hundred)
	if annualized.GreaterThan(MaxAnnualRate) {
		return LegalityResult{
			IsLegal:    false,
			Annualized: annualized,
			Message:    fmt.Sprintf("annualized rate %s%% exceeds the 15%% per year legal ceiling", pct),
		}, nil
	}

	return LegalityResult{
		IsLegal:    true,
		Annualized: annualized,
		Message:    fmt.Sprintf("annualized rate %s%% is within the 15%% per year legal ceiling", pct),
	}, nil
}
