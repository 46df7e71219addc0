package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

const policyColumns = `id, workspace_id, name, mode, rate, anchor_day, grace_days, created_at, updated_at`

type PolicyRepository struct {
	db *sql.DB
}

func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) Create(ctx context.Context, p *domain.InterestPolicy) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interest_policies (id, workspace_id, name, mode, rate, anchor_day, grace_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.WorkspaceID, p.Name, p.Mode, p.Rate, p.AnchorDay, p.GraceDays, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.InterestPolicy, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM interest_policies WHERE id = $1`, id,
	)
	p, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// Delete removes a policy unless any loan still references it. Policies with
// loan history are immutable.
func (r *PolicyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var refs int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE policy_id = $1`, id,
	).Scan(&refs)
	if err != nil {
		return fmt.Errorf("Delete: count references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("Delete: %d loans: %w", refs, domain.ErrPolicyInUse)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM interest_policies WHERE id = $1`, id)
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

func scanPolicy(s scanner) (*domain.InterestPolicy, error) {
	var p domain.InterestPolicy
	err := s.Scan(
		&p.ID, &p.WorkspaceID, &p.Name, &p.Mode, &p.Rate,
		&p.AnchorDay, &p.GraceDays, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
