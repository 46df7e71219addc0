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

const statementColumns = `id, card_id, statement_date, due_date, opening_balance, closing_balance,
	minimum_payment, interest_charged, total_paid, is_paid, created_at`

type StatementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

func (r *StatementRepository) Create(ctx context.Context, tx *sql.Tx, st *domain.CreditCardStatement) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_card_statements (
			id, card_id, statement_date, due_date, opening_balance, closing_balance,
			minimum_payment, interest_charged, total_paid, is_paid, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		st.ID, st.CardID, st.StatementDate, st.DueDate, st.OpeningBalance, st.ClosingBalance,
		st.MinimumPayment, st.InterestCharged, st.TotalPaid, st.IsPaid, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *StatementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCardStatement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM credit_card_statements WHERE id = $1`, id,
	)
	st, err := scanStatement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return st, nil
}

// GetLatestByCard returns the most recent statement, or nil when the card
// has none yet.
func (r *StatementRepository) GetLatestByCard(ctx context.Context, tx *sql.Tx, cardID uuid.UUID) (*domain.CreditCardStatement, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM credit_card_statements
		WHERE card_id = $1 ORDER BY statement_date DESC, created_at DESC LIMIT 1`,
		cardID,
	)
	st, err := scanStatement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetLatestByCard: %w", err)
	}
	return st, nil
}

func (r *StatementRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.CreditCardStatement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+statementColumns+` FROM credit_card_statements
		WHERE card_id = $1 ORDER BY statement_date`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByCard: %w", err)
	}
	defer rows.Close()

	var statements []domain.CreditCardStatement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByCard: scan: %w", err)
		}
		statements = append(statements, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByCard: rows: %w", err)
	}
	return statements, nil
}

func (r *StatementRepository) UpdatePayment(ctx context.Context, tx *sql.Tx, id uuid.UUID, totalPaid decimal.Decimal, isPaid bool) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE credit_card_statements SET total_paid = $1, is_paid = $2 WHERE id = $3`,
		totalPaid, isPaid, id,
	)
	if err != nil {
		return fmt.Errorf("UpdatePayment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdatePayment: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdatePayment: %w", domain.ErrNotFound)
	}
	return nil
}

func scanStatement(s scanner) (*domain.CreditCardStatement, error) {
	var st domain.CreditCardStatement
	err := s.Scan(
		&st.ID, &st.CardID, &st.StatementDate, &st.DueDate, &st.OpeningBalance, &st.ClosingBalance,
		&st.MinimumPayment, &st.InterestCharged, &st.TotalPaid, &st.IsPaid, &st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
