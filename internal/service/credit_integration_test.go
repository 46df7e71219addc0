package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
	"github.com/wisanuit/deptapp-sub002/internal/repository"
	"github.com/wisanuit/deptapp-sub002/internal/service"
	"github.com/wisanuit/deptapp-sub002/internal/testutil"
)

func TestApplyCredit_TracksUsageRiskAndHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(repository.NewCreditRepository(db), db)
	ctx := context.Background()

	seeded := testutil.SeedCredit(t, db, "10000")

	credit, err := svc.ApplyCredit(ctx, seeded.ID, decimal.RequireFromString("3000"), nil)
	require.NoError(t, err)
	assert.True(t, credit.UsedCredit.Equal(decimal.RequireFromString("3000")))
	assert.True(t, credit.AvailableCredit.Equal(decimal.RequireFromString("7000")))
	assert.Equal(t, domain.RiskLevelLow, credit.RiskLevel)

	credit, err = svc.ApplyCredit(ctx, seeded.ID, decimal.RequireFromString("5000"), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskLevelHigh, credit.RiskLevel, "utilization 0.8")

	credit, err = svc.ApplyCredit(ctx, seeded.ID, decimal.RequireFromString("1500"), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskLevelCritical, credit.RiskLevel, "utilization 0.95")

	_, history, err := svc.GetCredit(ctx, seeded.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Newest first; before/after amounts chain.
	assert.True(t, history[0].UsedBefore.Equal(decimal.RequireFromString("8000")))
	assert.True(t, history[0].UsedAfter.Equal(decimal.RequireFromString("9500")))
	assert.Equal(t, domain.CreditActionApply, history[0].Action)
}

func TestApplyCredit_RejectsOverAvailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(repository.NewCreditRepository(db), db)
	ctx := context.Background()

	seeded := testutil.SeedCredit(t, db, "1000")

	_, err := svc.ApplyCredit(ctx, seeded.ID, decimal.RequireFromString("1200"), nil)
	require.ErrorIs(t, err, domain.ErrInsufficientCredit)

	credit, history, err := svc.GetCredit(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, credit.UsedCredit.Equal(decimal.Zero), "nothing committed on rejection")
	assert.Empty(t, history)
}

func TestRestoreCredit_ClampsAtZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(repository.NewCreditRepository(db), db)
	ctx := context.Background()

	seeded := testutil.SeedCredit(t, db, "5000")

	_, err := svc.ApplyCredit(ctx, seeded.ID, decimal.RequireFromString("2000"), nil)
	require.NoError(t, err)

	credit, err := svc.RestoreCredit(ctx, seeded.ID, decimal.RequireFromString("3000"), nil)
	require.NoError(t, err)
	assert.True(t, credit.UsedCredit.Equal(decimal.Zero), "used = %s", credit.UsedCredit)
	assert.True(t, credit.AvailableCredit.Equal(decimal.RequireFromString("5000")))
	assert.Equal(t, domain.RiskLevelLow, credit.RiskLevel)
}

func TestCreditMutations_ConserveLimitUnderConcurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(repository.NewCreditRepository(db), db)
	ctx := context.Background()

	seeded := testutil.SeedCredit(t, db, "10000")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyCredit(ctx, seeded.ID, decimal.RequireFromString("1000"), nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	credit, history, err := svc.GetCredit(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, credit.UsedCredit.Equal(decimal.RequireFromString("8000")))
	assert.True(t, credit.UsedCredit.Add(credit.AvailableCredit).Equal(credit.CreditLimit),
		"used + available = limit after every operation")
	assert.Len(t, history, workers)
}
