package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
	"github.com/wisanuit/deptapp-sub002/internal/installment"
	"github.com/wisanuit/deptapp-sub002/internal/logging"
)

type installmentRepo interface {
	CreatePlan(ctx context.Context, tx *sql.Tx, p *domain.InstallmentPlan) error
	GetPlanByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentPlan, error)
	UpdatePlanStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.PlanStatus) error
	CreateInstallment(ctx context.Context, tx *sql.Tx, inst *domain.Installment) error
	GetInstallmentForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Installment, error)
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.Installment, error)
	UpdateInstallmentPayment(ctx context.Context, tx *sql.Tx, id uuid.UUID, paidAmount decimal.Decimal, status domain.InstallmentStatus) error
	CountUnpaidByPlan(ctx context.Context, tx *sql.Tx, planID uuid.UUID) (int, error)
}

// InstallmentService creates flat-rate plans and applies term payments. A
// plan completes automatically when its last unpaid term is settled.
type InstallmentService struct {
	plans installmentRepo
	db    *sql.DB
	clock clock.Clock
}

func NewInstallmentService(plans installmentRepo, db *sql.DB, clk clock.Clock) *InstallmentService {
	return &InstallmentService{plans: plans, db: db, clock: clk}
}

type CreatePlanRequest struct {
	WorkspaceID   uuid.UUID
	TotalAmount   decimal.Decimal
	DownPayment   decimal.Decimal
	NumberOfTerms int
	InterestRate  decimal.Decimal
	StartDate     time.Time
}

type PlanResult struct {
	Plan         domain.InstallmentPlan
	Installments []domain.Installment
}

// CreatePlan builds the amortization schedule and persists the plan with all
// of its installments in one transaction.
func (s *InstallmentService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanResult, error) {
	log := logging.FromContext(ctx)

	plan, installments, err := installment.BuildPlan(installment.PlanParams{
		TotalAmount:   req.TotalAmount,
		DownPayment:   req.DownPayment,
		NumberOfTerms: req.NumberOfTerms,
		InterestRate:  req.InterestRate,
		StartDate:     req.StartDate,
	})
	if err != nil {
		return nil, fmt.Errorf("CreatePlan: %w", err)
	}

	now := time.Now().UTC()
	plan.ID = uuid.New()
	plan.WorkspaceID = req.WorkspaceID
	plan.CreatedAt = now
	plan.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreatePlan: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.plans.CreatePlan(ctx, tx, &plan); err != nil {
		return nil, fmt.Errorf("CreatePlan: %w", err)
	}
	for i := range installments {
		installments[i].ID = uuid.New()
		installments[i].PlanID = plan.ID
		installments[i].CreatedAt = now
		installments[i].UpdatedAt = now
		if err := s.plans.CreateInstallment(ctx, tx, &installments[i]); err != nil {
			return nil, fmt.Errorf("CreatePlan: term %d: %w", installments[i].TermNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreatePlan: commit: %w", err)
	}

	log.Info("installment plan created",
		"plan_id", plan.ID,
		"workspace_id", req.WorkspaceID,
		"terms", req.NumberOfTerms,
		"term_amount", plan.TermAmount,
	)
	return &PlanResult{Plan: plan, Installments: installments}, nil
}

// PayInstallment adds a payment to a term. CorrectInstallment overwrites the
// recorded total instead; both settle the plan when nothing unpaid remains.
func (s *InstallmentService) PayInstallment(ctx context.Context, installmentID uuid.UUID, amount decimal.Decimal) (*domain.Installment, error) {
	return s.applyPayment(ctx, installmentID, amount, false)
}

// CorrectInstallment replaces a term's recorded paid amount, the recovery
// path for a mistyped payment. Setting the amount to zero returns the term
// to pending.
func (s *InstallmentService) CorrectInstallment(ctx context.Context, installmentID uuid.UUID, amount decimal.Decimal) (*domain.Installment, error) {
	return s.applyPayment(ctx, installmentID, amount, true)
}

func (s *InstallmentService) applyPayment(ctx context.Context, installmentID uuid.UUID, amount decimal.Decimal, replace bool) (*domain.Installment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("applyPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	inst, err := s.plans.GetInstallmentForUpdate(ctx, tx, installmentID)
	if err != nil {
		return nil, fmt.Errorf("applyPayment: %w", err)
	}

	plan, err := s.plans.GetPlanByID(ctx, inst.PlanID)
	if err != nil {
		return nil, fmt.Errorf("applyPayment: %w", err)
	}
	if plan.Status == domain.PlanStatusCompleted && !replace {
		return nil, fmt.Errorf("applyPayment: %w", domain.ErrPlanCompleted)
	}

	if err := installment.ApplyTermPayment(inst, amount, replace); err != nil {
		return nil, fmt.Errorf("applyPayment: %w", err)
	}
	if err := s.plans.UpdateInstallmentPayment(ctx, tx, inst.ID, inst.PaidAmount, inst.Status); err != nil {
		return nil, fmt.Errorf("applyPayment: %w", err)
	}

	if err := s.reconcilePlanStatus(ctx, tx, plan); err != nil {
		return nil, fmt.Errorf("applyPayment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("applyPayment: commit: %w", err)
	}
	return inst, nil
}

// reconcilePlanStatus flips the plan to completed when no unpaid terms
// remain, and back to active when a correction reopens one.
func (s *InstallmentService) reconcilePlanStatus(ctx context.Context, tx *sql.Tx, plan *domain.InstallmentPlan) error {
	unpaid, err := s.plans.CountUnpaidByPlan(ctx, tx, plan.ID)
	if err != nil {
		return fmt.Errorf("reconcilePlanStatus: %w", err)
	}

	want := domain.PlanStatusActive
	if unpaid == 0 {
		want = domain.PlanStatusCompleted
	}
	if want == plan.Status {
		return nil
	}
	if err := s.plans.UpdatePlanStatus(ctx, tx, plan.ID, want); err != nil {
		return fmt.Errorf("reconcilePlanStatus: %w", err)
	}
	plan.Status = want
	return nil
}

// GetPlan returns a plan with its installments in term order.
func (s *InstallmentService) GetPlan(ctx context.Context, planID uuid.UUID) (*PlanResult, error) {
	plan, err := s.plans.GetPlanByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("GetPlan: %w", err)
	}
	installments, err := s.plans.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("GetPlan: %w", err)
	}
	return &PlanResult{Plan: *plan, Installments: installments}, nil
}
