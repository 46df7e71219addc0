package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
)

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPartial InstallmentStatus = "partial"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
)

// InstallmentPlan is a flat-rate repayment schedule. InterestRate is percent
// per year; total interest is simple, not declining-balance.
type InstallmentPlan struct {
	ID            uuid.UUID
	WorkspaceID   uuid.UUID
	TotalAmount   decimal.Decimal
	DownPayment   decimal.Decimal
	NumberOfTerms int
	TermAmount    decimal.Decimal
	InterestRate  decimal.Decimal
	StartDate     time.Time
	Status        PlanStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Installment struct {
	ID              uuid.UUID
	PlanID          uuid.UUID
	TermNumber      int
	DueDate         time.Time
	Amount          decimal.Decimal
	PrincipalAmount decimal.Decimal
	InterestAmount  decimal.Decimal
	PaidAmount      decimal.Decimal
	Status          InstallmentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
