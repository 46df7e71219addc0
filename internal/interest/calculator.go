// Package interest computes accrued loan interest. All functions are pure
// over in-memory values and safe for concurrent use.
package interest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

// BreakdownEntry is one accrual period, kept for display and reconciliation.
type BreakdownEntry struct {
	From      time.Time
	To        time.Time
	Days      int
	Principal decimal.Decimal
	Rate      decimal.Decimal
	Amount    decimal.Decimal
}

type Result struct {
	Total     decimal.Decimal
	Breakdown []BreakdownEntry
}

func zeroResult() Result {
	return Result{Total: decimal.Zero}
}

// fullMonthDays is the minimum period length for the flat monthly charge.
// Anchor-to-anchor periods shorter than this (February pathologies aside)
// are partial and get prorated instead.
const fullMonthDays = 28

type Calculator struct {
	clock clock.Clock
}

func NewCalculator(c clock.Clock) *Calculator {
	return &Calculator{clock: c}
}

// Calculate computes interest on principal under policy from one date to
// another, both truncated to midnight UTC+7. Callers guarantee from <= to;
// an inverted span yields zero, never negative interest.
func Calculate(principal decimal.Decimal, policy domain.InterestPolicy, from, to time.Time) (Result, error) {
	if !policy.Mode.IsValid() {
		return zeroResult(), fmt.Errorf("Calculate: mode %q: %w", policy.Mode, domain.ErrInvalidRequest)
	}

	from = clock.DateOnly(from)
	to = clock.DateOnly(to)
	if principal.LessThanOrEqual(decimal.Zero) || !from.Before(to) {
		return zeroResult(), nil
	}

	if policy.Mode == domain.InterestModeDaily {
		return calculateDaily(principal, policy.Rate, from, to), nil
	}
	return calculateMonthly(principal, policy, from, to), nil
}

func calculateDaily(principal, dailyRate decimal.Decimal, from, to time.Time) Result {
	days := clock.DaysBetween(from, to)
	amount := principal.Mul(dailyRate).Mul(decimal.NewFromInt(int64(days))).Round(2)
	return Result{
		Total: amount,
		Breakdown: []BreakdownEntry{{
			From:      from,
			To:        to,
			Days:      days,
			Principal: principal,
			Rate:      dailyRate,
			Amount:    amount,
		}},
	}
}

// calculateMonthly walks anchor-to-anchor periods from the cursor to the end
// date. A period that runs a full month on the anchor boundary is charged the
// flat monthly rate; partial first and last periods are prorated by the day
// count of the month the period starts in.
func calculateMonthly(principal decimal.Decimal, policy domain.InterestPolicy, from, to time.Time) Result {
	res := zeroResult()
	cursor := from

	for cursor.Before(to) {
		anchor := nextAnchor(cursor, policy.AnchorDay)
		end := anchor
		if end.After(to) {
			end = to
		}

		days := clock.DaysBetween(cursor, end)
		var amount decimal.Decimal
		if isAnchorDate(cursor, policy.AnchorDay) && isAnchorDate(end, policy.AnchorDay) && days >= fullMonthDays {
			amount = principal.Mul(policy.Rate).Round(2)
		} else {
			daysInMonth := decimal.NewFromInt(int64(clock.DaysInMonth(cursor)))
			amount = principal.Mul(policy.Rate).Div(daysInMonth).Mul(decimal.NewFromInt(int64(days))).Round(2)
		}

		res.Total = res.Total.Add(amount)
		res.Breakdown = append(res.Breakdown, BreakdownEntry{
			From:      cursor,
			To:        end,
			Days:      days,
			Principal: principal,
			Rate:      policy.Rate,
			Amount:    amount,
		})

		cursor = end
	}

	return res
}

// nextAnchor returns the first anchor date strictly after cursor: this
// month's anchor clamped to the month length, or next month's when the
// cursor already sits on or past it.
func nextAnchor(cursor time.Time, anchorDay int) time.Time {
	anchor := anchorInMonth(cursor.Year(), cursor.Month(), anchorDay)
	if !cursor.Before(anchor) {
		next := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, clock.Bangkok).AddDate(0, 1, 0)
		anchor = anchorInMonth(next.Year(), next.Month(), anchorDay)
	}
	return anchor
}

func anchorInMonth(year int, month time.Month, anchorDay int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, clock.Bangkok)
	day := anchorDay
	if dim := clock.DaysInMonth(first); day > dim {
		day = dim
	}
	return time.Date(year, month, day, 0, 0, 0, 0, clock.Bangkok)
}

func isAnchorDate(t time.Time, anchorDay int) bool {
	day := anchorDay
	if dim := clock.DaysInMonth(t); day > dim {
		day = dim
	}
	return t.Day() == day
}

// Accrued computes interest from the accrual baseline up to today. The
// baseline is the last payment date when one exists, otherwise the loan start
// date. A baseline on or after today accrues nothing; so does a loan without
// a policy.
func (c *Calculator) Accrued(loan domain.Loan, policy *domain.InterestPolicy, lastPayment *time.Time) (Result, error) {
	if policy == nil {
		return zeroResult(), nil
	}

	baseline := loan.StartDate
	if lastPayment != nil {
		baseline = *lastPayment
	}
	baseline = clock.DateOnly(baseline)

	today := clock.Today(c.clock)
	if !baseline.Before(today) {
		return zeroResult(), nil
	}

	res, err := Calculate(loan.RemainingPrincipal, *policy, baseline, today)
	if err != nil {
		return zeroResult(), fmt.Errorf("Accrued: %w", err)
	}
	return res, nil
}

// AccruedFromAllocations resets the accrual baseline to the chronologically
// latest allocation's payment date: every repayment restarts the clock.
func (c *Calculator) AccruedFromAllocations(loan domain.Loan, policy *domain.InterestPolicy, allocations []domain.PaymentAllocation) (Result, error) {
	var lastPayment *time.Time
	for i := range allocations {
		d := allocations[i].PaymentDate
		if lastPayment == nil || d.After(*lastPayment) {
			lastPayment = &d
		}
	}
	res, err := c.Accrued(loan, policy, lastPayment)
	if err != nil {
		return zeroResult(), fmt.Errorf("AccruedFromAllocations: %w", err)
	}
	return res, nil
}
