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
	"github.com/wisanuit/deptapp-sub002/internal/logging"
	"github.com/wisanuit/deptapp-sub002/internal/statement"
)

type cardRepo interface {
	Create(ctx context.Context, c *domain.CreditCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCard, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CreditCard, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type statementRepo interface {
	Create(ctx context.Context, tx *sql.Tx, st *domain.CreditCardStatement) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditCardStatement, error)
	GetLatestByCard(ctx context.Context, tx *sql.Tx, cardID uuid.UUID) (*domain.CreditCardStatement, error)
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.CreditCardStatement, error)
	UpdatePayment(ctx context.Context, tx *sql.Tx, id uuid.UUID, totalPaid decimal.Decimal, isPaid bool) error
}

// CardService manages credit cards, their transaction balance and the
// monthly statement chain. Statement generation is serialized per card by
// locking the card row, so two concurrent cuts cannot both read the same
// previous statement.
type CardService struct {
	cards      cardRepo
	statements statementRepo
	db         *sql.DB
	clock      clock.Clock
}

func NewCardService(cards cardRepo, statements statementRepo, db *sql.DB, clk clock.Clock) *CardService {
	return &CardService{cards: cards, statements: statements, db: db, clock: clk}
}

type CreateCardRequest struct {
	WorkspaceID       uuid.UUID
	Name              string
	CreditLimit       decimal.Decimal
	InterestRate      decimal.Decimal
	StatementCutDay   int
	PaymentDueDays    int
	MinPaymentPercent decimal.Decimal
	MinPaymentFixed   *decimal.Decimal
}

func (s *CardService) CreateCard(ctx context.Context, req CreateCardRequest) (*domain.CreditCard, error) {
	if req.Name == "" || req.StatementCutDay < 1 || req.StatementCutDay > 31 || req.PaymentDueDays < 0 {
		return nil, fmt.Errorf("CreateCard: %w", domain.ErrInvalidRequest)
	}
	if req.CreditLimit.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("CreateCard: %w", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	card := domain.CreditCard{
		ID:                uuid.New(),
		WorkspaceID:       req.WorkspaceID,
		Name:              req.Name,
		CreditLimit:       req.CreditLimit,
		CurrentBalance:    decimal.Zero,
		InterestRate:      req.InterestRate,
		StatementCutDay:   req.StatementCutDay,
		PaymentDueDays:    req.PaymentDueDays,
		MinPaymentPercent: req.MinPaymentPercent,
		MinPaymentFixed:   req.MinPaymentFixed,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.cards.Create(ctx, &card); err != nil {
		return nil, fmt.Errorf("CreateCard: %w", err)
	}
	return &card, nil
}

// AddTransaction charges an amount to the card. The resulting balance may
// not exceed the credit limit.
func (s *CardService) AddTransaction(ctx context.Context, cardID uuid.UUID, amount decimal.Decimal) (*domain.CreditCard, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("AddTransaction: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("AddTransaction: begin tx: %w", err)
	}
	defer tx.Rollback()

	card, err := s.cards.GetForUpdate(ctx, tx, cardID)
	if err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	newBalance := card.CurrentBalance.Add(amount)
	if newBalance.GreaterThan(card.CreditLimit) {
		return nil, fmt.Errorf("AddTransaction: %w", domain.ErrOverCreditLimit)
	}

	if err := s.cards.UpdateBalance(ctx, tx, card.ID, newBalance, card.Version+1); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("AddTransaction: commit: %w", err)
	}

	card.CurrentBalance = newBalance
	card.Version++
	return card, nil
}

// GenerateStatement cuts a statement for the card as of statementDate,
// chaining carry interest from the latest unpaid statement.
func (s *CardService) GenerateStatement(ctx context.Context, cardID uuid.UUID, statementDate time.Time) (*domain.CreditCardStatement, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("GenerateStatement: begin tx: %w", err)
	}
	defer tx.Rollback()

	card, err := s.cards.GetForUpdate(ctx, tx, cardID)
	if err != nil {
		return nil, fmt.Errorf("GenerateStatement: %w", err)
	}

	prev, err := s.statements.GetLatestByCard(ctx, tx, cardID)
	if err != nil {
		return nil, fmt.Errorf("GenerateStatement: %w", err)
	}

	st := statement.Compute(*card, prev, statementDate)
	st.ID = uuid.New()
	st.CreatedAt = time.Now().UTC()

	if err := s.statements.Create(ctx, tx, &st); err != nil {
		return nil, fmt.Errorf("GenerateStatement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("GenerateStatement: commit: %w", err)
	}

	log.Info("statement generated",
		"card_id", cardID,
		"statement_id", st.ID,
		"closing_balance", st.ClosingBalance,
		"interest_charged", st.InterestCharged,
	)
	return &st, nil
}

// PayStatement applies a payment to a statement and decrements the card
// balance by the same amount, clamped at zero. The statement flips to paid
// once the cumulative total covers the closing balance.
func (s *CardService) PayStatement(ctx context.Context, statementID uuid.UUID, amount decimal.Decimal) (*domain.CreditCardStatement, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("PayStatement: %w", domain.ErrInvalidAmount)
	}

	st, err := s.statements.GetByID(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("PayStatement: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("PayStatement: begin tx: %w", err)
	}
	defer tx.Rollback()

	card, err := s.cards.GetForUpdate(ctx, tx, st.CardID)
	if err != nil {
		return nil, fmt.Errorf("PayStatement: %w", err)
	}

	statement.ApplyPayment(st, amount)
	if err := s.statements.UpdatePayment(ctx, tx, st.ID, st.TotalPaid, st.IsPaid); err != nil {
		return nil, fmt.Errorf("PayStatement: %w", err)
	}

	newBalance := clampZero(card.CurrentBalance.Sub(amount))
	if err := s.cards.UpdateBalance(ctx, tx, card.ID, newBalance, card.Version+1); err != nil {
		return nil, fmt.Errorf("PayStatement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("PayStatement: commit: %w", err)
	}
	return st, nil
}

// ListStatements returns the card's statements in cut-date order.
func (s *CardService) ListStatements(ctx context.Context, cardID uuid.UUID) ([]domain.CreditCardStatement, error) {
	sts, err := s.statements.ListByCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("ListStatements: %w", err)
	}
	return sts, nil
}
