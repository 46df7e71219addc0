package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

type CreditAction string

const (
	CreditActionApply   CreditAction = "apply"
	CreditActionRestore CreditAction = "restore"
)

// CustomerCredit is a customer credit line. Invariant after every operation:
// UsedCredit + AvailableCredit = CreditLimit, and UsedCredit never negative.
type CustomerCredit struct {
	ID              uuid.UUID
	WorkspaceID     uuid.UUID
	CreditLimit     decimal.Decimal
	UsedCredit      decimal.Decimal
	AvailableCredit decimal.Decimal
	RiskLevel       RiskLevel
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreditHistory struct {
	ID         uuid.UUID
	CreditID   uuid.UUID
	Action     CreditAction
	Amount     decimal.Decimal
	UsedBefore decimal.Decimal
	UsedAfter  decimal.Decimal
	Note       *string
	CreatedAt  time.Time
}

var (
	riskMedium   = decimal.NewFromFloat(0.5)
	riskHigh     = decimal.NewFromFloat(0.75)
	riskCritical = decimal.NewFromFloat(0.9)
)

// RiskLevelFor grades a credit line by utilization of its limit.
func RiskLevelFor(used, limit decimal.Decimal) RiskLevel {
	if limit.LessThanOrEqual(decimal.Zero) {
		return RiskLevelCritical
	}
	util := used.Div(limit)
	switch {
	case util.GreaterThanOrEqual(riskCritical):
		return RiskLevelCritical
	case util.GreaterThanOrEqual(riskHigh):
		return RiskLevelHigh
	case util.GreaterThanOrEqual(riskMedium):
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
