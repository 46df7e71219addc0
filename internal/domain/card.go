package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditCard tracks a revolving balance. InterestRate is a monthly decimal
// fraction applied to unpaid carry when a new statement is cut.
type CreditCard struct {
	ID                uuid.UUID
	WorkspaceID       uuid.UUID
	Name              string
	CreditLimit       decimal.Decimal
	CurrentBalance    decimal.Decimal
	StatementCutDay   int
	PaymentDueDays    int
	MinPaymentPercent decimal.Decimal
	MinPaymentFixed   *decimal.Decimal
	InterestRate      decimal.Decimal
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreditCardStatement struct {
	ID              uuid.UUID
	CardID          uuid.UUID
	StatementDate   time.Time
	DueDate         time.Time
	OpeningBalance  decimal.Decimal
	ClosingBalance  decimal.Decimal
	MinimumPayment  decimal.Decimal
	InterestCharged decimal.Decimal
	TotalPaid       decimal.Decimal
	IsPaid          bool
	CreatedAt       time.Time
}

// UnpaidCarry is the portion of the statement's closing balance not yet paid.
func (s *CreditCardStatement) UnpaidCarry() decimal.Decimal {
	unpaid := s.ClosingBalance.Sub(s.TotalPaid)
	if unpaid.IsNegative() {
		return decimal.Zero
	}
	return unpaid
}
