package statement

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

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, clock.Bangkok)
}

func testCard() domain.CreditCard {
	return domain.CreditCard{
		ID:                uuid.New(),
		CreditLimit:       decimal.NewFromInt(100000),
		CurrentBalance:    decimal.NewFromInt(20000),
		StatementCutDay:   15,
		PaymentDueDays:    20,
		MinPaymentPercent: decimal.RequireFromString("0.1"),
		InterestRate:      decimal.RequireFromString("0.015"),
	}
}

func TestComputeFirstStatement(t *testing.T) {
	card := testCard()

	st := Compute(card, nil, date(2024, time.March, 10))

	assert.True(t, st.StatementDate.Equal(date(2024, time.March, 15)))
	assert.True(t, st.DueDate.Equal(date(2024, time.April, 4)))
	assert.True(t, st.OpeningBalance.IsZero())
	assert.True(t, st.InterestCharged.IsZero())
	assert.True(t, st.ClosingBalance.Equal(decimal.NewFromInt(20000)), "got %s", st.ClosingBalance)
	assert.True(t, st.MinimumPayment.Equal(decimal.NewFromInt(2000)), "got %s", st.MinimumPayment)
	assert.False(t, st.IsPaid)
}

func TestComputeCutDayClampedInShortMonth(t *testing.T) {
	card := testCard()
	card.StatementCutDay = 31

	st := Compute(card, nil, date(2023, time.February, 5))

	assert.True(t, st.StatementDate.Equal(date(2023, time.February, 28)))
	assert.True(t, st.DueDate.Equal(date(2023, time.March, 20)))
}

func TestComputeChainsOpeningBalance(t *testing.T) {
	card := testCard()

	first := Compute(card, nil, date(2024, time.March, 1))
	first.TotalPaid = first.ClosingBalance
	first.IsPaid = true

	second := Compute(card, &first, date(2024, time.April, 1))
	assert.True(t, second.OpeningBalance.Equal(first.ClosingBalance))
	assert.True(t, second.InterestCharged.IsZero(), "paid statement must not accrue carry interest")

	third := Compute(card, &second, date(2024, time.May, 1))
	assert.True(t, third.OpeningBalance.Equal(second.ClosingBalance))
}

func TestComputeCarryInterest(t *testing.T) {
	card := testCard()

	prev := domain.CreditCardStatement{
		CardID:         card.ID,
		StatementDate:  date(2024, time.March, 15),
		DueDate:        date(2024, time.April, 4),
		ClosingBalance: decimal.NewFromInt(20000),
		TotalPaid:      decimal.NewFromInt(5000),
	}

	st := Compute(card, &prev, date(2024, time.April, 10))

	// 15000 unpaid, carried 11 days from the previous due date to the new
	// cut, prorated over March's 31 days.
	want := decimal.RequireFromString("79.84")
	assert.True(t, st.InterestCharged.Equal(want), "interest: got %s, want %s", st.InterestCharged, want)
	assert.True(t, st.ClosingBalance.Equal(card.CurrentBalance.Add(want)))
}

func TestComputeNoCarryInterestWhenDueAfterCut(t *testing.T) {
	card := testCard()
	card.PaymentDueDays = 45

	prev := Compute(card, nil, date(2024, time.March, 1))
	next := Compute(card, &prev, date(2024, time.April, 1))

	// The previous due date falls after the new cut; no carry window yet.
	assert.True(t, next.InterestCharged.IsZero())
}

func TestMinimumPayment(t *testing.T) {
	fixed := decimal.NewFromInt(500)

	tests := []struct {
		name    string
		balance string
		pct     string
		fixed   *decimal.Decimal
		want    string
	}{
		{name: "percentage wins", balance: "20000", pct: "0.1", fixed: &fixed, want: "2000"},
		{name: "fixed floor wins", balance: "3000", pct: "0.1", fixed: &fixed, want: "500"},
		{name: "no fixed floor", balance: "3000", pct: "0.1", want: "300"},
		{name: "capped at closing balance", balance: "200", pct: "0.1", fixed: &fixed, want: "200"},
		{name: "zero balance", balance: "0", pct: "0.1", fixed: &fixed, want: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			card := testCard()
			card.CurrentBalance = decimal.RequireFromString(tc.balance)
			card.MinPaymentPercent = decimal.RequireFromString(tc.pct)
			card.MinPaymentFixed = tc.fixed

			st := Compute(card, nil, date(2024, time.June, 1))
			want := decimal.RequireFromString(tc.want)
			assert.True(t, st.MinimumPayment.Equal(want), "got %s, want %s", st.MinimumPayment, want)
		})
	}
}

func TestApplyPayment(t *testing.T) {
	st := domain.CreditCardStatement{
		ClosingBalance: decimal.NewFromInt(1000),
		TotalPaid:      decimal.Zero,
	}

	ApplyPayment(&st, decimal.NewFromInt(400))
	require.False(t, st.IsPaid)
	assert.True(t, st.TotalPaid.Equal(decimal.NewFromInt(400)))

	ApplyPayment(&st, decimal.NewFromInt(600))
	assert.True(t, st.IsPaid)
	assert.True(t, st.TotalPaid.Equal(decimal.NewFromInt(1000)))
}
