package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount            = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrAllocationExceedsPayment = &AppError{http.StatusUnprocessableEntity, "ALLOCATION_EXCEEDS_PAYMENT", "Allocations exceed the payment amount"}
	ErrNegativeAllocation       = &AppError{http.StatusBadRequest, "NEGATIVE_ALLOCATION", "Allocation amounts cannot be negative"}
	ErrUnknownStrategy          = &AppError{http.StatusBadRequest, "UNKNOWN_STRATEGY", "Unknown allocation method"}
	ErrOverCreditLimit          = &AppError{http.StatusUnprocessableEntity, "OVER_CREDIT_LIMIT", "Transaction would exceed the credit limit"}
	ErrInsufficientCredit       = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_CREDIT", "Insufficient available credit"}
	ErrPolicyInUse              = &AppError{http.StatusConflict, "POLICY_IN_USE", "Interest policy is referenced by existing loans"}
	ErrPlanCompleted            = &AppError{http.StatusUnprocessableEntity, "PLAN_COMPLETED", "Installment plan is already completed"}
	ErrVersionConflict          = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
)
