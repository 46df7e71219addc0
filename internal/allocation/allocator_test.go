package allocation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

func testLoan(principal, interest string, startDate time.Time) domain.Loan {
	return domain.Loan{
		ID:                 uuid.New(),
		RemainingPrincipal: decimal.RequireFromString(principal),
		AccruedInterest:    decimal.RequireFromString(interest),
		StartDate:          startDate,
		Status:             domain.LoanStatusOpen,
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, clock.Bangkok)
}

func TestAutoAllocateInterestFirst(t *testing.T) {
	loans := []domain.Loan{
		testLoan("1000", "50", day(1)),
		testLoan("2000", "100", day(2)),
	}

	items, err := AutoAllocate(loans, decimal.NewFromInt(1200), domain.MethodInterestFirst)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// First loan fully settled: 50 interest then 1000 principal.
	assert.Equal(t, loans[0].ID, items[0].LoanID)
	assert.True(t, items[0].InterestPaid.Equal(decimal.NewFromInt(50)))
	assert.True(t, items[0].PrincipalPaid.Equal(decimal.NewFromInt(1000)))

	// Remaining 150 covers the second loan's interest, then 50 of principal.
	assert.Equal(t, loans[1].ID, items[1].LoanID)
	assert.True(t, items[1].InterestPaid.Equal(decimal.NewFromInt(100)))
	assert.True(t, items[1].PrincipalPaid.Equal(decimal.NewFromInt(50)))
}

func TestAutoAllocatePrincipalFirst(t *testing.T) {
	loans := []domain.Loan{
		testLoan("1000", "50", day(1)),
	}

	items, err := AutoAllocate(loans, decimal.NewFromInt(1020), domain.MethodPrincipalFirst)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.True(t, items[0].PrincipalPaid.Equal(decimal.NewFromInt(1000)))
	assert.True(t, items[0].InterestPaid.Equal(decimal.NewFromInt(20)))
}

func TestAutoAllocateFifoOrdersByStartDate(t *testing.T) {
	newer := testLoan("500", "0", day(20))
	older := testLoan("500", "0", day(5))
	oldest := testLoan("500", "0", day(1))

	items, err := AutoAllocate([]domain.Loan{newer, older, oldest}, decimal.NewFromInt(800), domain.MethodFifo)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, oldest.ID, items[0].LoanID)
	assert.True(t, items[0].PrincipalPaid.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, older.ID, items[1].LoanID)
	assert.True(t, items[1].PrincipalPaid.Equal(decimal.NewFromInt(300)))
}

func TestAutoAllocateSkipsZeroItems(t *testing.T) {
	settled := testLoan("0", "0", day(1))
	open := testLoan("400", "10", day(2))

	items, err := AutoAllocate([]domain.Loan{settled, open}, decimal.NewFromInt(100), domain.MethodInterestFirst)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, open.ID, items[0].LoanID)
}

func TestAutoAllocateStopsWhenExhausted(t *testing.T) {
	loans := []domain.Loan{
		testLoan("100", "0", day(1)),
		testLoan("100", "0", day(2)),
		testLoan("100", "0", day(3)),
	}

	items, err := AutoAllocate(loans, decimal.NewFromInt(150), domain.MethodInterestFirst)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[1].PrincipalPaid.Equal(decimal.NewFromInt(50)))
}

func TestAutoAllocateInvalidInput(t *testing.T) {
	loans := []domain.Loan{testLoan("100", "0", day(1))}

	_, err := AutoAllocate(loans, decimal.Zero, domain.MethodInterestFirst)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = AutoAllocate(loans, decimal.NewFromInt(100), domain.AllocationMethod("newest_first"))
	require.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

// Conservation: the allocated total never exceeds the payment, and no item
// exceeds its loan's balances.
func TestAutoAllocateConservation(t *testing.T) {
	loans := []domain.Loan{
		testLoan("1234.56", "78.90", day(3)),
		testLoan("0.01", "999.99", day(1)),
		testLoan("50000", "0", day(7)),
		testLoan("0", "0", day(2)),
	}
	byID := make(map[uuid.UUID]domain.Loan, len(loans))
	for _, l := range loans {
		byID[l.ID] = l
	}

	amounts := []string{"0.01", "100", "1078.89", "2313.46", "999999"}
	methods := []domain.AllocationMethod{domain.MethodInterestFirst, domain.MethodPrincipalFirst, domain.MethodFifo}

	for _, method := range methods {
		for _, amt := range amounts {
			amount := decimal.RequireFromString(amt)
			items, err := AutoAllocate(loans, amount, method)
			require.NoError(t, err)

			total := decimal.Zero
			for _, it := range items {
				loan := byID[it.LoanID]
				assert.False(t, it.PrincipalPaid.IsNegative())
				assert.False(t, it.InterestPaid.IsNegative())
				assert.True(t, it.PrincipalPaid.LessThanOrEqual(loan.RemainingPrincipal),
					"%s/%s: principal %s exceeds balance %s", method, amt, it.PrincipalPaid, loan.RemainingPrincipal)
				assert.True(t, it.InterestPaid.LessThanOrEqual(loan.AccruedInterest),
					"%s/%s: interest %s exceeds accrued %s", method, amt, it.InterestPaid, loan.AccruedInterest)
				total = total.Add(it.Total())
			}
			assert.True(t, total.LessThanOrEqual(amount),
				"%s/%s: allocated %s exceeds payment", method, amt, total)
		}
	}
}

func TestValidateManual(t *testing.T) {
	loanID := uuid.New()

	tests := []struct {
		name    string
		items   []Item
		amount  string
		wantErr error
	}{
		{
			name: "exact split",
			items: []Item{
				{LoanID: loanID, PrincipalPaid: decimal.NewFromInt(900), InterestPaid: decimal.NewFromInt(100)},
			},
			amount: "1000",
		},
		{
			name: "under-allocation is allowed",
			items: []Item{
				{LoanID: loanID, PrincipalPaid: decimal.NewFromInt(500)},
			},
			amount: "1000",
		},
		{
			name: "over-allocation rejected",
			items: []Item{
				{LoanID: loanID, PrincipalPaid: decimal.NewFromInt(900), InterestPaid: decimal.NewFromInt(200)},
			},
			amount:  "1000",
			wantErr: domain.ErrAllocationExceedsPayment,
		},
		{
			name: "negative component rejected",
			items: []Item{
				{LoanID: loanID, PrincipalPaid: decimal.NewFromInt(-10), InterestPaid: decimal.NewFromInt(20)},
			},
			amount:  "1000",
			wantErr: domain.ErrNegativeAllocation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateManual(tc.items, decimal.RequireFromString(tc.amount))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
