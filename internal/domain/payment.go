package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AllocationMethod string

const (
	MethodInterestFirst  AllocationMethod = "interest_first"
	MethodPrincipalFirst AllocationMethod = "principal_first"
	MethodFifo           AllocationMethod = "fifo"
)

func (m AllocationMethod) IsValid() bool {
	switch m {
	case MethodInterestFirst, MethodPrincipalFirst, MethodFifo:
		return true
	default:
		return false
	}
}

type Payment struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Note        *string
	CreatedAt   time.Time
}

// PaymentAllocation records how much of a payment went to a loan, split into
// principal and interest. PaymentDate is denormalized from the owning payment
// when loaded, so accrual baselines can be derived without a second lookup.
type PaymentAllocation struct {
	ID            uuid.UUID
	PaymentID     uuid.UUID
	LoanID        uuid.UUID
	PrincipalPaid decimal.Decimal
	InterestPaid  decimal.Decimal
	PaymentDate   time.Time
	CreatedAt     time.Time
}
