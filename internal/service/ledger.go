package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/allocation"
	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
	"github.com/wisanuit/deptapp-sub002/internal/interest"
	"github.com/wisanuit/deptapp-sub002/internal/logging"
)

type loanRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Loan, error)
	ListOpenForUpdate(ctx context.Context, tx *sql.Tx, workspaceID uuid.UUID) ([]domain.Loan, error)
	UpdateBalances(ctx context.Context, tx *sql.Tx, id uuid.UUID, remaining, accrued decimal.Decimal, status domain.LoanStatus, newVersion int64) error
}

type paymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	CreateAllocation(ctx context.Context, tx *sql.Tx, a *domain.PaymentAllocation) error
	GetAllocationsByPayment(ctx context.Context, tx *sql.Tx, paymentID uuid.UUID) ([]domain.PaymentAllocation, error)
	GetAllocationsByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.PaymentAllocation, error)
}

type policyRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InterestPolicy, error)
}

// LedgerService applies payments to loan balances and keeps the cached
// derived state (remaining principal, accrued interest) consistent with the
// payment history. Every read-compute-write sequence runs in one transaction
// with the touched loans row-locked.
type LedgerService struct {
	loans    loanRepo
	payments paymentRepo
	policies policyRepo
	db       *sql.DB
	calc     *interest.Calculator
	clock    clock.Clock
}

func NewLedgerService(loans loanRepo, payments paymentRepo, policies policyRepo, db *sql.DB, clk clock.Clock) *LedgerService {
	return &LedgerService{
		loans:    loans,
		payments: payments,
		policies: policies,
		db:       db,
		calc:     interest.NewCalculator(clk),
		clock:    clk,
	}
}

type RecordPaymentRequest struct {
	WorkspaceID uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Note        *string

	// Method drives auto-allocation; ignored when Manual is supplied.
	Method domain.AllocationMethod
	Manual []allocation.Item
}

type RecordPaymentResult struct {
	Payment     domain.Payment
	Allocations []domain.PaymentAllocation
}

// RecordPayment creates a payment and applies its allocation to the open
// loans of the workspace, either splitting automatically under the requested
// method or validating and applying a caller-supplied manual split.
func (s *LedgerService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	log := logging.FromContext(ctx)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("RecordPayment: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RecordPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	items, err := s.resolveAllocation(ctx, tx, req)
	if err != nil {
		return nil, fmt.Errorf("RecordPayment: %w", err)
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		ID:          uuid.New(),
		WorkspaceID: req.WorkspaceID,
		Amount:      req.Amount,
		PaymentDate: clock.DateOnly(req.PaymentDate),
		Note:        req.Note,
		CreatedAt:   now,
	}
	if err := s.payments.Create(ctx, tx, &payment); err != nil {
		return nil, fmt.Errorf("RecordPayment: create payment: %w", err)
	}

	allocations := make([]domain.PaymentAllocation, 0, len(items))
	for _, item := range items {
		a := domain.PaymentAllocation{
			ID:            uuid.New(),
			PaymentID:     payment.ID,
			LoanID:        item.LoanID,
			PrincipalPaid: item.PrincipalPaid,
			InterestPaid:  item.InterestPaid,
			PaymentDate:   payment.PaymentDate,
			CreatedAt:     now,
		}
		if err := s.payments.CreateAllocation(ctx, tx, &a); err != nil {
			return nil, fmt.Errorf("RecordPayment: create allocation: %w", err)
		}
		if err := s.applyToLoan(ctx, tx, item); err != nil {
			return nil, fmt.Errorf("RecordPayment: %w", err)
		}
		allocations = append(allocations, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RecordPayment: commit: %w", err)
	}

	log.Info("payment recorded",
		"payment_id", payment.ID,
		"workspace_id", req.WorkspaceID,
		"amount", req.Amount,
		"loans_touched", len(allocations),
	)

	return &RecordPaymentResult{Payment: payment, Allocations: allocations}, nil
}

// resolveAllocation locks the loans involved and produces the final
// allocation items. Manual splits lock only the referenced loans, in ID
// order; auto splits lock the whole open set of the workspace.
func (s *LedgerService) resolveAllocation(ctx context.Context, tx *sql.Tx, req RecordPaymentRequest) ([]allocation.Item, error) {
	if len(req.Manual) > 0 {
		if err := allocation.ValidateManual(req.Manual, req.Amount); err != nil {
			return nil, fmt.Errorf("resolveAllocation: %w", err)
		}
		if err := s.lockManualLoans(ctx, tx, req.Manual); err != nil {
			return nil, fmt.Errorf("resolveAllocation: %w", err)
		}
		return req.Manual, nil
	}

	loans, err := s.loans.ListOpenForUpdate(ctx, tx, req.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("resolveAllocation: %w", err)
	}

	items, err := allocation.AutoAllocate(loans, req.Amount, req.Method)
	if err != nil {
		return nil, fmt.Errorf("resolveAllocation: %w", err)
	}
	return items, nil
}

func (s *LedgerService) lockManualLoans(ctx context.Context, tx *sql.Tx, items []allocation.Item) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.LoanID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		if _, err := s.loans.GetForUpdate(ctx, tx, id); err != nil {
			return fmt.Errorf("lockManualLoans: loan %s: %w", id, err)
		}
	}
	return nil
}

// applyToLoan decrements the loan's cached balances, clamped at zero, and
// recomputes the status from the remaining principal.
func (s *LedgerService) applyToLoan(ctx context.Context, tx *sql.Tx, item allocation.Item) error {
	loan, err := s.loans.GetForUpdate(ctx, tx, item.LoanID)
	if err != nil {
		return fmt.Errorf("applyToLoan: %w", err)
	}

	remaining := clampZero(loan.RemainingPrincipal.Sub(item.PrincipalPaid))
	accrued := clampZero(loan.AccruedInterest.Sub(item.InterestPaid))
	status := domain.StatusForBalance(remaining)

	if err := s.loans.UpdateBalances(ctx, tx, loan.ID, remaining, accrued, status, loan.Version+1); err != nil {
		return fmt.Errorf("applyToLoan: %w", err)
	}
	return nil
}

// DeletePayment reverses every allocation of the payment, restoring loan
// balances, then removes the payment and its allocation rows. A loan closed
// by the deleted payment reopens: status is recomputed from the restored
// principal rather than left as is.
func (s *LedgerService) DeletePayment(ctx context.Context, paymentID uuid.UUID) error {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeletePayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	allocations, err := s.payments.GetAllocationsByPayment(ctx, tx, paymentID)
	if err != nil {
		return fmt.Errorf("DeletePayment: %w", err)
	}

	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].LoanID.String() < allocations[j].LoanID.String()
	})

	for _, a := range allocations {
		loan, err := s.loans.GetForUpdate(ctx, tx, a.LoanID)
		if err != nil {
			return fmt.Errorf("DeletePayment: %w", err)
		}

		remaining := loan.RemainingPrincipal.Add(a.PrincipalPaid)
		accrued := loan.AccruedInterest.Add(a.InterestPaid)
		status := domain.StatusForBalance(remaining)

		if err := s.loans.UpdateBalances(ctx, tx, loan.ID, remaining, accrued, status, loan.Version+1); err != nil {
			return fmt.Errorf("DeletePayment: %w", err)
		}
	}

	if err := s.payments.Delete(ctx, tx, paymentID); err != nil {
		return fmt.Errorf("DeletePayment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeletePayment: commit: %w", err)
	}

	log.Info("payment deleted", "payment_id", paymentID, "allocations_reversed", len(allocations))
	return nil
}

// RefreshAccrual recomputes a loan's accrued interest from its policy and
// payment history and persists the refreshed cache. This is the
// reconciliation path: the result is derivable state, independent of
// whatever the cache held before.
func (s *LedgerService) RefreshAccrual(ctx context.Context, loanID uuid.UUID) (*interest.Result, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("RefreshAccrual: %w", err)
	}

	var policy *domain.InterestPolicy
	if loan.PolicyID != nil {
		policy, err = s.policies.GetByID(ctx, *loan.PolicyID)
		if err != nil {
			return nil, fmt.Errorf("RefreshAccrual: %w", err)
		}
	}

	allocations, err := s.payments.GetAllocationsByLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("RefreshAccrual: %w", err)
	}

	res, err := s.calc.AccruedFromAllocations(*loan, policy, allocations)
	if err != nil {
		return nil, fmt.Errorf("RefreshAccrual: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RefreshAccrual: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.loans.GetForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, fmt.Errorf("RefreshAccrual: %w", err)
	}

	err = s.loans.UpdateBalances(ctx, tx, locked.ID, locked.RemainingPrincipal, res.Total, locked.Status, locked.Version+1)
	if err != nil {
		return nil, fmt.Errorf("RefreshAccrual: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RefreshAccrual: commit: %w", err)
	}

	return &res, nil
}

// GetPayment returns a payment with its allocations.
func (s *LedgerService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*RecordPaymentResult, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("GetPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	allocations, err := s.payments.GetAllocationsByPayment(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("GetPayment: commit: %w", err)
	}

	return &RecordPaymentResult{Payment: *p, Allocations: allocations}, nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
