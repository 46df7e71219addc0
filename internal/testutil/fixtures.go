package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

var TestWorkspaceID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func SeedPolicy(t *testing.T, db *sql.DB, mode domain.InterestMode, rate string, anchorDay int) *domain.InterestPolicy {
	t.Helper()

	p := &domain.InterestPolicy{
		ID:          uuid.New(),
		WorkspaceID: TestWorkspaceID,
		Name:        "test policy",
		Mode:        mode,
		Rate:        decimal.RequireFromString(rate),
		AnchorDay:   anchorDay,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO interest_policies (id, workspace_id, name, mode, rate, anchor_day, grace_days)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.WorkspaceID, p.Name, p.Mode, p.Rate, p.AnchorDay, p.GraceDays,
	)
	if err != nil {
		t.Fatalf("seed policy: %v", err)
	}
	return p
}

func SeedLoan(t *testing.T, db *sql.DB, policyID *uuid.UUID, principal, startDate string) *domain.Loan {
	t.Helper()

	start, err := time.ParseInLocation("2006-01-02", startDate, clock.Bangkok)
	if err != nil {
		t.Fatalf("parse start date %s: %v", startDate, err)
	}

	amount := decimal.RequireFromString(principal)
	l := &domain.Loan{
		ID:                 uuid.New(),
		WorkspaceID:        TestWorkspaceID,
		PolicyID:           policyID,
		Type:               domain.LoanTypeReceivable,
		Principal:          amount,
		RemainingPrincipal: amount,
		AccruedInterest:    decimal.Zero,
		StartDate:          start,
		Status:             domain.LoanStatusOpen,
		Version:            1,
	}

	_, err = db.Exec(
		`INSERT INTO loans (id, workspace_id, policy_id, loan_type, principal, remaining_principal,
		                    accrued_interest, start_date, status, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, l.WorkspaceID, l.PolicyID, l.Type, l.Principal, l.RemainingPrincipal,
		l.AccruedInterest, l.StartDate, l.Status, l.Version,
	)
	if err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}

func SeedLoanWithInterest(t *testing.T, db *sql.DB, principal, accrued, startDate string) *domain.Loan {
	t.Helper()

	l := SeedLoan(t, db, nil, principal, startDate)
	l.AccruedInterest = decimal.RequireFromString(accrued)

	_, err := db.Exec(`UPDATE loans SET accrued_interest = $1 WHERE id = $2`, l.AccruedInterest, l.ID)
	if err != nil {
		t.Fatalf("seed loan interest: %v", err)
	}
	return l
}

func SeedCard(t *testing.T, db *sql.DB, limit, balance, monthlyRate string, cutDay, dueDays int, minPct string) *domain.CreditCard {
	t.Helper()

	c := &domain.CreditCard{
		ID:                uuid.New(),
		WorkspaceID:       TestWorkspaceID,
		Name:              "test card",
		CreditLimit:       decimal.RequireFromString(limit),
		CurrentBalance:    decimal.RequireFromString(balance),
		StatementCutDay:   cutDay,
		PaymentDueDays:    dueDays,
		MinPaymentPercent: decimal.RequireFromString(minPct),
		InterestRate:      decimal.RequireFromString(monthlyRate),
		Version:           1,
	}

	_, err := db.Exec(
		`INSERT INTO credit_cards (id, workspace_id, name, credit_limit, current_balance,
		                           statement_cut_day, payment_due_days, min_payment_percent, interest_rate, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.WorkspaceID, c.Name, c.CreditLimit, c.CurrentBalance,
		c.StatementCutDay, c.PaymentDueDays, c.MinPaymentPercent, c.InterestRate, c.Version,
	)
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}
	return c
}

func SeedCredit(t *testing.T, db *sql.DB, limit string) *domain.CustomerCredit {
	t.Helper()

	l := decimal.RequireFromString(limit)
	c := &domain.CustomerCredit{
		ID:              uuid.New(),
		WorkspaceID:     TestWorkspaceID,
		CreditLimit:     l,
		UsedCredit:      decimal.Zero,
		AvailableCredit: l,
		RiskLevel:       domain.RiskLevelLow,
		Version:         1,
	}

	_, err := db.Exec(
		`INSERT INTO customer_credits (id, workspace_id, credit_limit, used_credit, available_credit, risk_level, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.WorkspaceID, c.CreditLimit, c.UsedCredit, c.AvailableCredit, c.RiskLevel, c.Version,
	)
	if err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	return c
}

func GetLoan(t *testing.T, db *sql.DB, loanID uuid.UUID) (remaining, accrued decimal.Decimal, status domain.LoanStatus) {
	t.Helper()

	err := db.QueryRow(
		`SELECT remaining_principal, accrued_interest, status FROM loans WHERE id = $1`,
		loanID,
	).Scan(&remaining, &accrued, &status)
	if err != nil {
		t.Fatalf("get loan %s: %v", loanID, err)
	}
	return remaining, accrued, status
}

func CountAllocations(t *testing.T, db *sql.DB, paymentID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM payment_allocations WHERE payment_id = $1`, paymentID).Scan(&count)
	if err != nil {
		t.Fatalf("count allocations for payment %s: %v", paymentID, err)
	}
	return count
}
