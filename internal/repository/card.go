package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

const cardColumns = `id, workspace_id, name, credit_limit, current_balance, statement_cut_day,
	payment_due_days, min_payment_percent, min_payment_fixed, interest_rate, version, created_at, updated_at`

type CardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, c *domain.CreditCard) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_cards (
			id, workspace_id, name, credit_limit, current_balance, statement_cut_day,
			payment_due_days, min_payment_percent, min_payment_fixed, interest_rate, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.WorkspaceID, c.Name, c.CreditLimit, c.CurrentBalance, c.StatementCutDay,
		c.PaymentDueDays, c.MinPaymentPercent, c.MinPaymentFixed, c.InterestRate, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE id = $1`, id,
	)
	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

// GetForUpdate locks the card row. Statement generation and balance changes
// for one card serialize on this lock.
func (r *CardRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CreditCard, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CardRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE credit_cards SET current_balance = $1, version = $2, updated_at = now()
		WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

func scanCard(s scanner) (*domain.CreditCard, error) {
	var c domain.CreditCard
	var minFixed decimal.NullDecimal

	err := s.Scan(
		&c.ID, &c.WorkspaceID, &c.Name, &c.CreditLimit, &c.CurrentBalance, &c.StatementCutDay,
		&c.PaymentDueDays, &c.MinPaymentPercent, &minFixed, &c.InterestRate, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if minFixed.Valid {
		c.MinPaymentFixed = &minFixed.Decimal
	}
	return &c, nil
}
