// Package installment builds flat-rate repayment schedules and applies term
// payments. Interest is simple (principal x rate x term/12), split evenly
// across terms; there is no declining-balance amortization.
package installment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

type PlanParams struct {
	TotalAmount   decimal.Decimal
	DownPayment   decimal.Decimal
	NumberOfTerms int
	InterestRate  decimal.Decimal // percent per year
	StartDate     time.Time
}

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// BuildPlan produces the plan header and its ordered installments. The term
// amount is rounded up to whole baht, so the final term carries the rounding
// remainder.
func BuildPlan(p PlanParams) (domain.InstallmentPlan, []domain.Installment, error) {
	if p.NumberOfTerms <= 0 {
		return domain.InstallmentPlan{}, nil, fmt.Errorf("BuildPlan: terms %d: %w", p.NumberOfTerms, domain.ErrInvalidRequest)
	}
	if p.DownPayment.IsNegative() {
		return domain.InstallmentPlan{}, nil, fmt.Errorf("BuildPlan: negative down payment: %w", domain.ErrInvalidAmount)
	}

	financed := p.TotalAmount.Sub(p.DownPayment)
	if financed.LessThanOrEqual(decimal.Zero) {
		return domain.InstallmentPlan{}, nil, fmt.Errorf("BuildPlan: nothing to finance: %w", domain.ErrInvalidAmount)
	}

	terms := decimal.NewFromInt(int64(p.NumberOfTerms))
	totalInterest := financed.Mul(p.InterestRate).Div(hundred).Mul(terms.Div(twelve)).Round(2)
	totalDue := financed.Add(totalInterest)
	termAmount := totalDue.Div(terms).Ceil()

	principalPerTerm := financed.Div(terms).Round(2)
	interestPerTerm := totalInterest.Div(terms).Round(2)

	startDate := clock.DateOnly(p.StartDate)
	plan := domain.InstallmentPlan{
		TotalAmount:   p.TotalAmount,
		DownPayment:   p.DownPayment,
		NumberOfTerms: p.NumberOfTerms,
		TermAmount:    termAmount,
		InterestRate:  p.InterestRate,
		StartDate:     startDate,
		Status:        domain.PlanStatusActive,
	}

	installments := make([]domain.Installment, 0, p.NumberOfTerms)
	for n := 1; n <= p.NumberOfTerms; n++ {
		amount := termAmount
		if n == p.NumberOfTerms {
			// Remainder term: totals reconcile against the ceiling rounding.
			amount = totalDue.Sub(termAmount.Mul(decimal.NewFromInt(int64(p.NumberOfTerms - 1))))
		}
		installments = append(installments, domain.Installment{
			TermNumber:      n,
			DueDate:         startDate.AddDate(0, n, 0),
			Amount:          amount,
			PrincipalAmount: principalPerTerm,
			InterestAmount:  interestPerTerm,
			PaidAmount:      decimal.Zero,
			Status:          domain.InstallmentStatusPending,
		})
	}

	return plan, installments, nil
}

// ApplyTermPayment updates an installment's paid amount and status. With
// replace set, the amount overwrites the recorded total instead of adding to
// it, the path used to correct a previously recorded payment.
func ApplyTermPayment(inst *domain.Installment, amount decimal.Decimal, replace bool) error {
	if amount.IsNegative() || (!replace && amount.IsZero()) {
		return fmt.Errorf("ApplyTermPayment: %w", domain.ErrInvalidAmount)
	}

	newPaid := amount
	if !replace {
		newPaid = inst.PaidAmount.Add(amount)
	}

	inst.PaidAmount = newPaid
	switch {
	case newPaid.GreaterThanOrEqual(inst.Amount):
		inst.Status = domain.InstallmentStatusPaid
	case newPaid.GreaterThan(decimal.Zero):
		inst.Status = domain.InstallmentStatusPartial
	default:
		inst.Status = domain.InstallmentStatusPending
	}
	return nil
}

// IsOverdue reports whether an unpaid installment's due date has passed.
func IsOverdue(inst domain.Installment, today time.Time) bool {
	switch inst.Status {
	case domain.InstallmentStatusPending, domain.InstallmentStatusPartial:
		return inst.DueDate.Before(clock.DateOnly(today))
	default:
		return false
	}
}
