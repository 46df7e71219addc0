package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusOpen    LoanStatus = "open"
	LoanStatusOverdue LoanStatus = "overdue"
	LoanStatusClosed  LoanStatus = "closed"
)

type LoanType string

const (
	LoanTypeReceivable LoanType = "receivable"
	LoanTypePayable    LoanType = "payable"
)

// Loan carries both the immutable origination terms and the mutable cached
// balances. RemainingPrincipal and AccruedInterest are derived state: they
// must always be recomputable from (policy, start date, payment history).
type Loan struct {
	ID                 uuid.UUID
	WorkspaceID        uuid.UUID
	PolicyID           *uuid.UUID
	Type               LoanType
	Principal          decimal.Decimal
	RemainingPrincipal decimal.Decimal
	AccruedInterest    decimal.Decimal
	StartDate          time.Time
	DueDate            *time.Time
	Status             LoanStatus
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StatusForBalance is the canonical mapping from remaining principal to loan
// status, used after both applying and reversing allocations. A reversal that
// puts principal back on a closed loan reopens it.
func StatusForBalance(remaining decimal.Decimal) LoanStatus {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return LoanStatusClosed
	}
	return LoanStatusOpen
}
