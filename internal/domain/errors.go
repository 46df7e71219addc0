package domain

import "errors"

var (
	ErrNotFound                 = errors.New("not found")
	ErrInvalidAmount            = errors.New("amount must be greater than zero")
	ErrInvalidRequest           = errors.New("invalid request")
	ErrAllocationExceedsPayment = errors.New("allocation total exceeds payment amount")
	ErrNegativeAllocation       = errors.New("allocation amounts must not be negative")
	ErrOverCreditLimit          = errors.New("transaction exceeds card credit limit")
	ErrInsufficientCredit       = errors.New("insufficient available credit")
	ErrPolicyInUse              = errors.New("interest policy is referenced by loans")
	ErrVersionConflict          = errors.New("optimistic lock conflict")
	ErrUnknownStrategy          = errors.New("unknown allocation method")
	ErrPlanCompleted            = errors.New("installment plan already completed")
)
