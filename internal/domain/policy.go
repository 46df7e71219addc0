package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InterestMode string

const (
	InterestModeDaily   InterestMode = "daily"
	InterestModeMonthly InterestMode = "monthly"
)

func (m InterestMode) IsValid() bool {
	return m == InterestModeDaily || m == InterestModeMonthly
}

// InterestPolicy defines how a loan accrues interest. Rate is a decimal
// fraction per period: per day for daily mode, per month for monthly mode.
// AnchorDay is the billing-cycle anchor for monthly mode, clamped to the
// length of short months.
type InterestPolicy struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Name        string
	Mode        InterestMode
	Rate        decimal.Decimal
	AnchorDay   int
	GraceDays   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
