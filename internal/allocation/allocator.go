// Package allocation splits a payment amount across open loans. Strategies
// are pure over the loan snapshots they are given; callers load and lock the
// candidate set.
package allocation

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

// Item is one loan's share of a payment, persisted as a PaymentAllocation.
type Item struct {
	LoanID        uuid.UUID
	PrincipalPaid decimal.Decimal
	InterestPaid  decimal.Decimal
}

func (i Item) Total() decimal.Decimal {
	return i.PrincipalPaid.Add(i.InterestPaid)
}

type Strategy interface {
	Method() domain.AllocationMethod
	Allocate(loans []domain.Loan, amount decimal.Decimal) []Item
}

// ForMethod maps a stored allocation method to its strategy.
func ForMethod(m domain.AllocationMethod) (Strategy, error) {
	switch m {
	case domain.MethodInterestFirst:
		return interestFirst{}, nil
	case domain.MethodPrincipalFirst:
		return principalFirst{}, nil
	case domain.MethodFifo:
		return fifo{}, nil
	default:
		return nil, fmt.Errorf("ForMethod: %q: %w", m, domain.ErrUnknownStrategy)
	}
}

// AutoAllocate splits amount across loans under the named method. Loans that
// would receive nothing are skipped; iteration stops once the amount is
// exhausted.
func AutoAllocate(loans []domain.Loan, amount decimal.Decimal, method domain.AllocationMethod) ([]Item, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("AutoAllocate: %w", domain.ErrInvalidAmount)
	}
	strategy, err := ForMethod(method)
	if err != nil {
		return nil, fmt.Errorf("AutoAllocate: %w", err)
	}
	return strategy.Allocate(loans, amount), nil
}

// ValidateManual checks a caller-supplied allocation against the payment
// amount. The split itself is the caller's business; only conservation and
// non-negativity are enforced.
func ValidateManual(items []Item, amount decimal.Decimal) error {
	total := decimal.Zero
	for _, it := range items {
		if it.PrincipalPaid.IsNegative() || it.InterestPaid.IsNegative() {
			return fmt.Errorf("ValidateManual: loan %s: %w", it.LoanID, domain.ErrNegativeAllocation)
		}
		total = total.Add(it.Total())
	}
	if total.GreaterThan(amount) {
		return fmt.Errorf("ValidateManual: allocated %s against payment %s: %w",
			total, amount, domain.ErrAllocationExceedsPayment)
	}
	return nil
}

type interestFirst struct{}

func (interestFirst) Method() domain.AllocationMethod { return domain.MethodInterestFirst }

func (interestFirst) Allocate(loans []domain.Loan, amount decimal.Decimal) []Item {
	return walk(loans, amount, splitInterestFirst)
}

type principalFirst struct{}

func (principalFirst) Method() domain.AllocationMethod { return domain.MethodPrincipalFirst }

func (principalFirst) Allocate(loans []domain.Loan, amount decimal.Decimal) []Item {
	return walk(loans, amount, splitPrincipalFirst)
}

// fifo pays oldest debt first and within each loan settles interest before
// principal, same as interestFirst.
type fifo struct{}

func (fifo) Method() domain.AllocationMethod { return domain.MethodFifo }

func (fifo) Allocate(loans []domain.Loan, amount decimal.Decimal) []Item {
	sorted := make([]domain.Loan, len(loans))
	copy(sorted, loans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	return walk(sorted, amount, splitInterestFirst)
}

type splitFunc func(loan domain.Loan, remaining decimal.Decimal) Item

func walk(loans []domain.Loan, amount decimal.Decimal, split splitFunc) []Item {
	var items []Item
	remaining := amount

	for _, loan := range loans {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		item := split(loan, remaining)
		if item.Total().LessThanOrEqual(decimal.Zero) {
			continue
		}
		remaining = remaining.Sub(item.Total())
		items = append(items, item)
	}

	return items
}

func splitInterestFirst(loan domain.Loan, remaining decimal.Decimal) Item {
	interest := decimal.Min(loan.AccruedInterest, remaining)
	remaining = remaining.Sub(interest)
	principal := decimal.Min(loan.RemainingPrincipal, remaining)
	return Item{LoanID: loan.ID, PrincipalPaid: principal, InterestPaid: interest}
}

func splitPrincipalFirst(loan domain.Loan, remaining decimal.Decimal) Item {
	principal := decimal.Min(loan.RemainingPrincipal, remaining)
	remaining = remaining.Sub(principal)
	interest := decimal.Min(loan.AccruedInterest, remaining)
	return Item{LoanID: loan.ID, PrincipalPaid: principal, InterestPaid: interest}
}
