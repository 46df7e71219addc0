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

const loanColumns = `id, workspace_id, policy_id, loan_type, principal, remaining_principal,
	accrued_interest, start_date, due_date, status, version, created_at, updated_at`

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loans (
			id, workspace_id, policy_id, loan_type, principal, remaining_principal,
			accrued_interest, start_date, due_date, status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		loan.ID, loan.WorkspaceID, loan.PolicyID, loan.Type, loan.Principal, loan.RemainingPrincipal,
		loan.AccruedInterest, loan.StartDate, loan.DueDate, loan.Status, loan.Version, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id,
	)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return l, nil
}

func (r *LoanRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Loan, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id,
	)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return l, nil
}

// ListOpenForUpdate locks every open or overdue loan of a workspace, in ID
// order so concurrent payments acquire row locks deterministically.
func (r *LoanRepository) ListOpenForUpdate(ctx context.Context, tx *sql.Tx, workspaceID uuid.UUID) ([]domain.Loan, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans
		WHERE workspace_id = $1 AND status IN ('open', 'overdue')
		ORDER BY id FOR UPDATE`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListOpenForUpdate: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("ListOpenForUpdate: scan: %w", err)
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOpenForUpdate: rows: %w", err)
	}
	return loans, nil
}

// UpdateBalances writes the cached balances under optimistic versioning:
// zero rows means the loan moved underneath us.
func (r *LoanRepository) UpdateBalances(ctx context.Context, tx *sql.Tx, id uuid.UUID, remaining, accrued decimal.Decimal, status domain.LoanStatus, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loans
		SET remaining_principal = $1, accrued_interest = $2, status = $3, version = $4, updated_at = now()
		WHERE id = $5 AND version = $6`,
		remaining, accrued, status, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalances: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalances: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalances: %w", domain.ErrVersionConflict)
	}
	return nil
}

// MarkOverdue flips open loans past their due date to overdue; returns how
// many were touched.
func (r *LoanRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE loans SET status = 'overdue', updated_at = now()
		WHERE status = 'open' AND due_date IS NOT NULL AND due_date < $1`,
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

func scanLoan(s scanner) (*domain.Loan, error) {
	var l domain.Loan
	var policyID uuid.NullUUID
	var dueDate sql.NullTime

	err := s.Scan(
		&l.ID, &l.WorkspaceID, &policyID, &l.Type, &l.Principal, &l.RemainingPrincipal,
		&l.AccruedInterest, &l.StartDate, &dueDate, &l.Status, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if policyID.Valid {
		l.PolicyID = &policyID.UUID
	}
	if dueDate.Valid {
		l.DueDate = &dueDate.Time
	}
	return &l, nil
}
