package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
	"github.com/wisanuit/deptapp-sub002/internal/repository"
	"github.com/wisanuit/deptapp-sub002/internal/service"
	"github.com/wisanuit/deptapp-sub002/internal/testutil"
)

func TestSweep_MarksOverdueLoansAndInstallments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	today := paymentDate(t, "2024-05-01")
	sweeper := service.NewSweeper(
		repository.NewLoanRepository(db),
		repository.NewInstallmentRepository(db),
		clock.Static{T: today},
	)

	pastDue := testutil.SeedLoan(t, db, nil, "1000", "2024-01-01")
	_, err := db.Exec(`UPDATE loans SET due_date = '2024-04-15' WHERE id = $1`, pastDue.ID)
	require.NoError(t, err)

	current := testutil.SeedLoan(t, db, nil, "1000", "2024-01-01")
	_, err = db.Exec(`UPDATE loans SET due_date = '2024-06-15' WHERE id = $1`, current.ID)
	require.NoError(t, err)

	noDueDate := testutil.SeedLoan(t, db, nil, "1000", "2024-01-01")

	planSvc := setupInstallmentService(t, db)
	plan, err := planSvc.CreatePlan(ctx, service.CreatePlanRequest{
		WorkspaceID:   testutil.TestWorkspaceID,
		TotalAmount:   decimal.RequireFromString("6000"),
		DownPayment:   decimal.RequireFromString("1000"),
		NumberOfTerms: 5,
		InterestRate:  decimal.Zero,
		StartDate:     paymentDate(t, "2024-01-10"),
	})
	require.NoError(t, err)

	require.NoError(t, sweeper.Sweep(ctx))

	_, _, status := testutil.GetLoan(t, db, pastDue.ID)
	assert.Equal(t, domain.LoanStatusOverdue, status)

	_, _, status = testutil.GetLoan(t, db, current.ID)
	assert.Equal(t, domain.LoanStatusOpen, status)

	_, _, status = testutil.GetLoan(t, db, noDueDate.ID)
	assert.Equal(t, domain.LoanStatusOpen, status)

	// Terms due Feb 10, Mar 10, Apr 10 are overdue by May 1; later ones not.
	stored, err := planSvc.GetPlan(ctx, plan.Plan.ID)
	require.NoError(t, err)
	var overdue int
	for _, inst := range stored.Installments {
		if inst.Status == domain.InstallmentStatusOverdue {
			overdue++
		}
	}
	assert.Equal(t, 3, overdue)

	// Second pass is a no-op.
	require.NoError(t, sweeper.Sweep(ctx))
	_, _, status = testutil.GetLoan(t, db, pastDue.ID)
	assert.Equal(t, domain.LoanStatusOverdue, status)
}
