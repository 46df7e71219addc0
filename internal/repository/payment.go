package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

const paymentColumns = `id, workspace_id, amount, payment_date, note, created_at`

const allocationColumns = `a.id, a.payment_id, a.loan_id, a.principal_paid, a.interest_paid,
	p.payment_date, a.created_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payments (id, workspace_id, amount, payment_date, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, payment.WorkspaceID, payment.Amount, payment.PaymentDate, payment.Note, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	)
	p, err := scanPaymentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PaymentRepository) CreateAllocation(ctx context.Context, tx *sql.Tx, a *domain.PaymentAllocation) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payment_allocations (id, payment_id, loan_id, principal_paid, interest_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.PaymentID, a.LoanID, a.PrincipalPaid, a.InterestPaid, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateAllocation: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetAllocationsByPayment(ctx context.Context, tx *sql.Tx, paymentID uuid.UUID) ([]domain.PaymentAllocation, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+allocationColumns+`
		FROM payment_allocations a
		JOIN payments p ON p.id = a.payment_id
		WHERE a.payment_id = $1 ORDER BY a.created_at`,
		paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAllocationsByPayment: %w", err)
	}
	defer rows.Close()

	allocations, err := collectAllocations(rows)
	if err != nil {
		return nil, fmt.Errorf("GetAllocationsByPayment: %w", err)
	}
	return allocations, nil
}

// GetAllocationsByLoan returns a loan's allocations newest-first, each
// carrying its payment's date for accrual-baseline derivation.
func (r *PaymentRepository) GetAllocationsByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.PaymentAllocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+allocationColumns+`
		FROM payment_allocations a
		JOIN payments p ON p.id = a.payment_id
		WHERE a.loan_id = $1 ORDER BY p.payment_date DESC`,
		loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAllocationsByLoan: %w", err)
	}
	defer rows.Close()

	allocations, err := collectAllocations(rows)
	if err != nil {
		return nil, fmt.Errorf("GetAllocationsByLoan: %w", err)
	}
	return allocations, nil
}

func collectAllocations(rows *sql.Rows) ([]domain.PaymentAllocation, error) {
	var allocations []domain.PaymentAllocation
	for rows.Next() {
		var a domain.PaymentAllocation
		err := rows.Scan(
			&a.ID, &a.PaymentID, &a.LoanID, &a.PrincipalPaid, &a.InterestPaid,
			&a.PaymentDate, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("collectAllocations: scan: %w", err)
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collectAllocations: rows: %w", err)
	}
	return allocations, nil
}

func scanPaymentRow(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(&p.ID, &p.WorkspaceID, &p.Amount, &p.PaymentDate, &p.Note, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
