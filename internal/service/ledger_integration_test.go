package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisanuit/deptapp-sub002/internal/allocation"
	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
	"github.com/wisanuit/deptapp-sub002/internal/repository"
	"github.com/wisanuit/deptapp-sub002/internal/service"
	"github.com/wisanuit/deptapp-sub002/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB, clk clock.Clock) *service.LedgerService {
	t.Helper()
	return service.NewLedgerService(
		repository.NewLoanRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewPolicyRepository(db),
		db,
		clk,
	)
}

func paymentDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, clock.Bangkok)
	require.NoError(t, err)
	return d
}

func TestRecordPayment_FifoAcrossLoans(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db, clock.System())
	ctx := context.Background()

	older := testutil.SeedLoanWithInterest(t, db, "1000", "50", "2024-01-01")
	newer := testutil.SeedLoanWithInterest(t, db, "2000", "30", "2024-02-01")

	res, err := svc.RecordPayment(ctx, service.RecordPaymentRequest{
		WorkspaceID: testutil.TestWorkspaceID,
		Amount:      decimal.RequireFromString("1200"),
		PaymentDate: paymentDate(t, "2024-03-01"),
		Method:      domain.MethodFifo,
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)

	// Oldest debt settles first: 50 interest + 1000 principal, then the
	// remaining 150 goes to the newer loan's interest and principal.
	remaining, accrued, status := testutil.GetLoan(t, db, older.ID)
	assert.True(t, remaining.Equal(decimal.Zero), "older remaining = %s", remaining)
	assert.True(t, accrued.Equal(decimal.Zero), "older accrued = %s", accrued)
	assert.Equal(t, domain.LoanStatusClosed, status)

	remaining, accrued, status = testutil.GetLoan(t, db, newer.ID)
	assert.True(t, remaining.Equal(decimal.RequireFromString("1880")), "newer remaining = %s", remaining)
	assert.True(t, accrued.Equal(decimal.Zero), "newer accrued = %s", accrued)
	assert.Equal(t, domain.LoanStatusOpen, status)

	var total decimal.Decimal
	for _, a := range res.Allocations {
		total = total.Add(a.PrincipalPaid).Add(a.InterestPaid)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("1200")), "allocated total = %s", total)
}

func TestRecordPayment_ManualAllocation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db, clock.System())
	ctx := context.Background()

	loan := testutil.SeedLoanWithInterest(t, db, "1000", "40", "2024-01-01")

	res, err := svc.RecordPayment(ctx, service.RecordPaymentRequest{
		WorkspaceID: testutil.TestWorkspaceID,
		Amount:      decimal.RequireFromString("300"),
		PaymentDate: paymentDate(t, "2024-02-15"),
		Manual: []allocation.Item{
			{
				LoanID:        loan.ID,
				PrincipalPaid: decimal.RequireFromString("260"),
				InterestPaid:  decimal.RequireFromString("40"),
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)

	remaining, accrued, status := testutil.GetLoan(t, db, loan.ID)
	assert.True(t, remaining.Equal(decimal.RequireFromString("740")))
	assert.True(t, accrued.Equal(decimal.Zero))
	assert.Equal(t, domain.LoanStatusOpen, status)
}

func TestRecordPayment_ManualAllocationExceedsPayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db, clock.System())
	ctx := context.Background()

	loan := testutil.SeedLoan(t, db, nil, "1000", "2024-01-01")

	_, err := svc.RecordPayment(ctx, service.RecordPaymentRequest{
		WorkspaceID: testutil.TestWorkspaceID,
		Amount:      decimal.RequireFromString("100"),
		PaymentDate: paymentDate(t, "2024-02-15"),
		Manual: []allocation.Item{
			{LoanID: loan.ID, PrincipalPaid: decimal.RequireFromString("150")},
		},
	})
	require.ErrorIs(t, err, domain.ErrAllocationExceedsPayment)

	remaining, _, _ := testutil.GetLoan(t, db, loan.ID)
	assert.True(t, remaining.Equal(decimal.RequireFromString("1000")), "loan untouched after rejected payment")

	var payments int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&payments))
	assert.Equal(t, 0, payments)
}

func TestDeletePayment_RestoresBalancesAndReopensLoan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db, clock.System())
	ctx := context.Background()

	loan := testutil.SeedLoanWithInterest(t, db, "500", "20", "2024-01-01")

	res, err := svc.RecordPayment(ctx, service.RecordPaymentRequest{
		WorkspaceID: testutil.TestWorkspaceID,
		Amount:      decimal.RequireFromString("520"),
		PaymentDate: paymentDate(t, "2024-02-01"),
		Method:      domain.MethodInterestFirst,
	})
	require.NoError(t, err)

	_, _, status := testutil.GetLoan(t, db, loan.ID)
	require.Equal(t, domain.LoanStatusClosed, status)

	require.NoError(t, svc.DeletePayment(ctx, res.Payment.ID))

	remaining, accrued, status := testutil.GetLoan(t, db, loan.ID)
	assert.True(t, remaining.Equal(decimal.RequireFromString("500")), "remaining = %s", remaining)
	assert.True(t, accrued.Equal(decimal.RequireFromString("20")), "accrued = %s", accrued)
	assert.Equal(t, domain.LoanStatusOpen, status, "closed loan reopens when the closing payment is deleted")

	assert.Equal(t, 0, testutil.CountAllocations(t, db, res.Payment.ID))
	var payments int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&payments))
	assert.Equal(t, 0, payments)
}

func TestDeletePayment_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db, clock.System())

	loan := testutil.SeedLoan(t, db, nil, "500", "2024-01-01")
	err := svc.DeletePayment(context.Background(), loan.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordPayment_ConcurrentPaymentsConserveTotal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db, clock.System())
	ctx := context.Background()

	loan := testutil.SeedLoan(t, db, nil, "10000", "2024-01-01")

	const workers = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordPayment(ctx, service.RecordPaymentRequest{
				WorkspaceID: testutil.TestWorkspaceID,
				Amount:      decimal.RequireFromString("100"),
				PaymentDate: paymentDate(t, "2024-02-01"),
				Method:      domain.MethodPrincipalFirst,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	remaining, _, _ := testutil.GetLoan(t, db, loan.ID)
	assert.True(t, remaining.Equal(decimal.RequireFromString("9500")), "remaining = %s", remaining)
}

func TestRefreshAccrual_DailyPolicy(t *testing.T) {
	db := testutil.SetupTestDB(t)

	today, err := time.ParseInLocation("2006-01-02", "2024-03-01", clock.Bangkok)
	require.NoError(t, err)
	svc := setupLedgerService(t, db, clock.Static{T: today})
	ctx := context.Background()

	policy := testutil.SeedPolicy(t, db, domain.InterestModeDaily, "0.001", 1)
	loan := testutil.SeedLoan(t, db, &policy.ID, "1000", "2024-01-01")

	// Payment on Feb 1 resets the accrual baseline.
	_, err = svc.RecordPayment(ctx, service.RecordPaymentRequest{
		WorkspaceID: testutil.TestWorkspaceID,
		Amount:      decimal.RequireFromString("100"),
		PaymentDate: paymentDate(t, "2024-02-01"),
		Method:      domain.MethodPrincipalFirst,
	})
	require.NoError(t, err)

	res, err := svc.RefreshAccrual(ctx, loan.ID)
	require.NoError(t, err)

	// 900 remaining x 0.001/day x 29 days (Feb 1 to Mar 1, leap year).
	assert.True(t, res.Total.Equal(decimal.RequireFromString("26.1")), "accrued = %s", res.Total)

	_, accrued, _ := testutil.GetLoan(t, db, loan.ID)
	assert.True(t, accrued.Equal(decimal.RequireFromString("26.1")), "persisted accrued = %s", accrued)
}

func TestRefreshAccrual_NoPolicyAccruesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db, clock.System())

	loan := testutil.SeedLoan(t, db, nil, "1000", "2024-01-01")

	res, err := svc.RefreshAccrual(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.True(t, res.Total.Equal(decimal.Zero))
}
