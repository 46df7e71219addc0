package service_test

import (
	"context"
	"database/sql"
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

func setupInstallmentService(t *testing.T, db *sql.DB) *service.InstallmentService {
	t.Helper()
	return service.NewInstallmentService(repository.NewInstallmentRepository(db), db, clock.System())
}

func createTestPlan(t *testing.T, svc *service.InstallmentService) *service.PlanResult {
	t.Helper()
	res, err := svc.CreatePlan(context.Background(), service.CreatePlanRequest{
		WorkspaceID:   testutil.TestWorkspaceID,
		TotalAmount:   decimal.RequireFromString("12000"),
		DownPayment:   decimal.RequireFromString("2000"),
		NumberOfTerms: 5,
		InterestRate:  decimal.RequireFromString("12"),
		StartDate:     paymentDate(t, "2024-01-10"),
	})
	require.NoError(t, err)
	return res
}

func TestCreatePlan_PersistsSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInstallmentService(t, db)

	res := createTestPlan(t, svc)

	// 10000 financed + 500 simple interest over 5 terms = 2100 per term.
	assert.True(t, res.Plan.TermAmount.Equal(decimal.RequireFromString("2100")))
	assert.Equal(t, domain.PlanStatusActive, res.Plan.Status)
	require.Len(t, res.Installments, 5)
	assert.Equal(t, "2024-02-10", res.Installments[0].DueDate.Format("2006-01-02"))
	assert.Equal(t, "2024-06-10", res.Installments[4].DueDate.Format("2006-01-02"))

	stored, err := svc.GetPlan(context.Background(), res.Plan.ID)
	require.NoError(t, err)
	require.Len(t, stored.Installments, 5)
	for i, inst := range stored.Installments {
		assert.Equal(t, i+1, inst.TermNumber)
		assert.True(t, inst.Amount.Equal(decimal.RequireFromString("2100")))
		assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
	}
}

func TestPayInstallment_PartialThenFull(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInstallmentService(t, db)
	ctx := context.Background()

	res := createTestPlan(t, svc)
	first := res.Installments[0]

	inst, err := svc.PayInstallment(ctx, first.ID, decimal.RequireFromString("1000"))
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPartial, inst.Status)
	assert.True(t, inst.PaidAmount.Equal(decimal.RequireFromString("1000")))

	inst, err = svc.PayInstallment(ctx, first.ID, decimal.RequireFromString("1100"))
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPaid, inst.Status)
	assert.True(t, inst.PaidAmount.Equal(decimal.RequireFromString("2100")))
}

func TestPayInstallment_CompletesAndReopensPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInstallmentService(t, db)
	ctx := context.Background()

	res := createTestPlan(t, svc)
	for _, inst := range res.Installments {
		_, err := svc.PayInstallment(ctx, inst.ID, decimal.RequireFromString("2100"))
		require.NoError(t, err)
	}

	stored, err := svc.GetPlan(ctx, res.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusCompleted, stored.Plan.Status)

	// Correcting a term back below its amount reactivates the plan.
	inst, err := svc.CorrectInstallment(ctx, res.Installments[2].ID, decimal.RequireFromString("600"))
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPartial, inst.Status)

	stored, err = svc.GetPlan(ctx, res.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusActive, stored.Plan.Status)
}

func TestCorrectInstallment_OverwritesRecordedAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInstallmentService(t, db)
	ctx := context.Background()

	res := createTestPlan(t, svc)
	first := res.Installments[0]

	_, err := svc.PayInstallment(ctx, first.ID, decimal.RequireFromString("2100"))
	require.NoError(t, err)

	// Mistyped payment: correct the total down, not add to it.
	inst, err := svc.CorrectInstallment(ctx, first.ID, decimal.RequireFromString("1200"))
	require.NoError(t, err)
	assert.True(t, inst.PaidAmount.Equal(decimal.RequireFromString("1200")))
	assert.Equal(t, domain.InstallmentStatusPartial, inst.Status)

	inst, err = svc.CorrectInstallment(ctx, first.ID, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, inst.PaidAmount.Equal(decimal.Zero))
	assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
}

func TestPayInstallment_RejectsNonPositiveAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupInstallmentService(t, db)

	res := createTestPlan(t, svc)
	_, err := svc.PayInstallment(context.Background(), res.Installments[0].ID, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}
