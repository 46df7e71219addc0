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

const creditColumns = `id, workspace_id, credit_limit, used_credit, available_credit,
	risk_level, version, created_at, updated_at`

const creditHistoryColumns = `id, credit_id, action, amount, used_before, used_after, note, created_at`

type CreditRepository struct {
	db *sql.DB
}

func NewCreditRepository(db *sql.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) Create(ctx context.Context, c *domain.CustomerCredit) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customer_credits (
			id, workspace_id, credit_limit, used_credit, available_credit,
			risk_level, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.WorkspaceID, c.CreditLimit, c.UsedCredit, c.AvailableCredit,
		c.RiskLevel, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CreditRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomerCredit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+creditColumns+` FROM customer_credits WHERE id = $1`, id,
	)
	c, err := scanCredit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CreditRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CustomerCredit, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+creditColumns+` FROM customer_credits WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCredit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CreditRepository) UpdateUsage(ctx context.Context, tx *sql.Tx, id uuid.UUID, used, available decimal.Decimal, risk domain.RiskLevel, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE customer_credits
		SET used_credit = $1, available_credit = $2, risk_level = $3, version = $4, updated_at = now()
		WHERE id = $5 AND version = $6`,
		used, available, risk, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateUsage: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateUsage: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateUsage: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *CreditRepository) CreateHistory(ctx context.Context, tx *sql.Tx, h *domain.CreditHistory) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_histories (id, credit_id, action, amount, used_before, used_after, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		h.ID, h.CreditID, h.Action, h.Amount, h.UsedBefore, h.UsedAfter, h.Note, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateHistory: %w", err)
	}
	return nil
}

func (r *CreditRepository) ListHistory(ctx context.Context, creditID uuid.UUID) ([]domain.CreditHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+creditHistoryColumns+` FROM credit_histories
		WHERE credit_id = $1 ORDER BY created_at DESC`,
		creditID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListHistory: %w", err)
	}
	defer rows.Close()

	var history []domain.CreditHistory
	for rows.Next() {
		var h domain.CreditHistory
		err := rows.Scan(&h.ID, &h.CreditID, &h.Action, &h.Amount, &h.UsedBefore, &h.UsedAfter, &h.Note, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ListHistory: scan: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListHistory: rows: %w", err)
	}
	return history, nil
}

func scanCredit(s scanner) (*domain.CustomerCredit, error) {
	var c domain.CustomerCredit
	err := s.Scan(
		&c.ID, &c.WorkspaceID, &c.CreditLimit, &c.UsedCredit, &c.AvailableCredit,
		&c.RiskLevel, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
