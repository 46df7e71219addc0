package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

const planColumns = `id, workspace_id, total_amount, down_payment, number_of_terms, term_amount,
	interest_rate, start_date, status, created_at, updated_at`

const installmentColumns = `id, plan_id, term_number, due_date, amount, principal_amount,
	interest_amount, paid_amount, status, created_at, updated_at`

type InstallmentRepository struct {
	db *sql.DB
}

func NewInstallmentRepository(db *sql.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) CreatePlan(ctx context.Context, tx *sql.Tx, p *domain.InstallmentPlan) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO installment_plans (
			id, workspace_id, total_amount, down_payment, number_of_terms, term_amount,
			interest_rate, start_date, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.WorkspaceID, p.TotalAmount, p.DownPayment, p.NumberOfTerms, p.TermAmount,
		p.InterestRate, p.StartDate, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreatePlan: %w", err)
	}
	return nil
}

func (r *InstallmentRepository) GetPlanByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM installment_plans WHERE id = $1`, id,
	)
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetPlanByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetPlanByID: %w", err)
	}
	return p, nil
}

func (r *InstallmentRepository) UpdatePlanStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.PlanStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE installment_plans SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdatePlanStatus: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdatePlanStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdatePlanStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *InstallmentRepository) CreateInstallment(ctx context.Context, tx *sql.Tx, inst *domain.Installment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO installments (
			id, plan_id, term_number, due_date, amount, principal_amount,
			interest_amount, paid_amount, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inst.ID, inst.PlanID, inst.TermNumber, inst.DueDate, inst.Amount, inst.PrincipalAmount,
		inst.InterestAmount, inst.PaidAmount, inst.Status, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateInstallment: %w", err)
	}
	return nil
}

func (r *InstallmentRepository) GetInstallmentForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Installment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE id = $1 FOR UPDATE`, id,
	)
	inst, err := scanInstallment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetInstallmentForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetInstallmentForUpdate: %w", err)
	}
	return inst, nil
}

func (r *InstallmentRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.Installment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE plan_id = $1 ORDER BY term_number`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByPlan: %w", err)
	}
	defer rows.Close()

	var installments []domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByPlan: scan: %w", err)
		}
		installments = append(installments, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByPlan: rows: %w", err)
	}
	return installments, nil
}

func (r *InstallmentRepository) UpdateInstallmentPayment(ctx context.Context, tx *sql.Tx, id uuid.UUID, paidAmount decimal.Decimal, status domain.InstallmentStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE installments SET paid_amount = $1, status = $2, updated_at = now() WHERE id = $3`,
		paidAmount, status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateInstallmentPayment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateInstallmentPayment: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateInstallmentPayment: %w", domain.ErrNotFound)
	}
	return nil
}

// CountUnpaidByPlan counts installments not yet fully paid; zero means the
// plan is complete.
func (r *InstallmentRepository) CountUnpaidByPlan(ctx context.Context, tx *sql.Tx, planID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM installments WHERE plan_id = $1 AND status != 'paid'`,
		planID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountUnpaidByPlan: %w", err)
	}
	return count, nil
}

// MarkOverdue relabels unpaid installments past their due date.
func (r *InstallmentRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE installments SET status = 'overdue', updated_at = now()
		WHERE status IN ('pending', 'partial') AND due_date < $1`,
		today,
	)
	if err != nil {
		return 0, fmt.Errorf("MarkOverdue: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("MarkOverdue: rows affected: %w", err)
	}
	return rows, nil
}

func scanPlan(s scanner) (*domain.InstallmentPlan, error) {
	var p domain.InstallmentPlan
	err := s.Scan(
		&p.ID, &p.WorkspaceID, &p.TotalAmount, &p.DownPayment, &p.NumberOfTerms, &p.TermAmount,
		&p.InterestRate, &p.StartDate, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanInstallment(s scanner) (*domain.Installment, error) {
	var inst domain.Installment
	err := s.Scan(
		&inst.ID, &inst.PlanID, &inst.TermNumber, &inst.DueDate, &inst.Amount, &inst.PrincipalAmount,
		&inst.InterestAmount, &inst.PaidAmount, &inst.Status, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}
