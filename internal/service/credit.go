package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
	"github.com/wisanuit/deptapp-sub002/internal/logging"
)

type creditRepo interface {
	Create(ctx context.Context, c *domain.CustomerCredit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomerCredit, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CustomerCredit, error)
	UpdateUsage(ctx context.Context, tx *sql.Tx, id uuid.UUID, used, available decimal.Decimal, risk domain.RiskLevel, newVersion int64) error
	CreateHistory(ctx context.Context, tx *sql.Tx, h *domain.CreditHistory) error
	ListHistory(ctx context.Context, creditID uuid.UUID) ([]domain.CreditHistory, error)
}

// CreditService maintains customer credit lines. Every mutation holds the
// credit row lock, re-derives available from the limit, grades the risk
// level, and appends a history entry in the same transaction.
type CreditService struct {
	credits creditRepo
	db      *sql.DB
}

func NewCreditService(credits creditRepo, db *sql.DB) *CreditService {
	return &CreditService{credits: credits, db: db}
}

func (s *CreditService) CreateCredit(ctx context.Context, workspaceID uuid.UUID, limit decimal.Decimal) (*domain.CustomerCredit, error) {
	if limit.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("CreateCredit: %w", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	credit := domain.CustomerCredit{
		ID:              uuid.New(),
		WorkspaceID:     workspaceID,
		CreditLimit:     limit,
		UsedCredit:      decimal.Zero,
		AvailableCredit: limit,
		RiskLevel:       domain.RiskLevelLow,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.credits.Create(ctx, &credit); err != nil {
		return nil, fmt.Errorf("CreateCredit: %w", err)
	}
	return &credit, nil
}

// ApplyCredit consumes part of the available line. The used amount may
// never exceed the limit.
func (s *CreditService) ApplyCredit(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal, note *string) (*domain.CustomerCredit, error) {
	return s.mutate(ctx, creditID, amount, note, domain.CreditActionApply)
}

// RestoreCredit returns previously used credit to the line. Restoring more
// than is used clamps at zero rather than going negative.
func (s *CreditService) RestoreCredit(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal, note *string) (*domain.CustomerCredit, error) {
	return s.mutate(ctx, creditID, amount, note, domain.CreditActionRestore)
}

func (s *CreditService) mutate(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal, note *string, action domain.CreditAction) (*domain.CustomerCredit, error) {
	log := logging.FromContext(ctx)

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("mutate: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mutate: begin tx: %w", err)
	}
	defer tx.Rollback()

	credit, err := s.credits.GetForUpdate(ctx, tx, creditID)
	if err != nil {
		return nil, fmt.Errorf("mutate: %w", err)
	}

	usedBefore := credit.UsedCredit
	var usedAfter decimal.Decimal
	switch action {
	case domain.CreditActionApply:
		if amount.GreaterThan(credit.AvailableCredit) {
			return nil, fmt.Errorf("mutate: %w", domain.ErrInsufficientCredit)
		}
		usedAfter = usedBefore.Add(amount)
	case domain.CreditActionRestore:
		usedAfter = clampZero(usedBefore.Sub(amount))
	default:
		return nil, fmt.Errorf("mutate: action %q: %w", action, domain.ErrInvalidRequest)
	}

	available := credit.CreditLimit.Sub(usedAfter)
	risk := domain.RiskLevelFor(usedAfter, credit.CreditLimit)

	if err := s.credits.UpdateUsage(ctx, tx, credit.ID, usedAfter, available, risk, credit.Version+1); err != nil {
		return nil, fmt.Errorf("mutate: %w", err)
	}

	history := domain.CreditHistory{
		ID:         uuid.New(),
		CreditID:   credit.ID,
		Action:     action,
		Amount:     amount,
		UsedBefore: usedBefore,
		UsedAfter:  usedAfter,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.credits.CreateHistory(ctx, tx, &history); err != nil {
		return nil, fmt.Errorf("mutate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("mutate: commit: %w", err)
	}

	log.Info("credit updated",
		"credit_id", credit.ID,
		"action", action,
		"amount", amount,
		"used_after", usedAfter,
		"risk_level", risk,
	)

	credit.UsedCredit = usedAfter
	credit.AvailableCredit = available
	credit.RiskLevel = risk
	credit.Version++
	return credit, nil
}

// GetCredit returns the credit line with its full history, newest first.
func (s *CreditService) GetCredit(ctx context.Context, creditID uuid.UUID) (*domain.CustomerCredit, []domain.CreditHistory, error) {
	credit, err := s.credits.GetByID(ctx, creditID)
	if err != nil {
		return nil, nil, fmt.Errorf("GetCredit: %w", err)
	}
	history, err := s.credits.ListHistory(ctx, creditID)
	if err != nil {
		return nil, nil, fmt.Errorf("GetCredit: %w", err)
	}
	return credit, history, nil
}
