// Package statement generates periodic credit-card statements: prorated
// interest on unpaid carry, minimum payment, closing balance. Pure
// computation; the service layer owns persistence and per-card serialization.
package statement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

// Compute builds the next statement for a card as of statementDate. The cut
// day is clamped to the month length; the opening balance chains from the
// previous statement's closing balance.
func Compute(card domain.CreditCard, prev *domain.CreditCardStatement, statementDate time.Time) domain.CreditCardStatement {
	cutDate := cutDateFor(card, statementDate)
	dueDate := cutDate.AddDate(0, 0, card.PaymentDueDays)

	opening := decimal.Zero
	interest := decimal.Zero
	if prev != nil {
		opening = prev.ClosingBalance
		interest = carryInterest(card, prev, cutDate)
	}

	closing := card.CurrentBalance.Add(interest)

	return domain.CreditCardStatement{
		CardID:          card.ID,
		StatementDate:   cutDate,
		DueDate:         dueDate,
		OpeningBalance:  opening,
		ClosingBalance:  closing,
		MinimumPayment:  minimumPayment(card, closing),
		InterestCharged: interest,
		TotalPaid:       decimal.Zero,
		IsPaid:          false,
	}
}

func cutDateFor(card domain.CreditCard, statementDate time.Time) time.Time {
	statementDate = clock.DateOnly(statementDate)
	day := card.StatementCutDay
	if dim := clock.DaysInMonth(statementDate); day > dim {
		day = dim
	}
	return time.Date(statementDate.Year(), statementDate.Month(), day, 0, 0, 0, 0, clock.Bangkok)
}

// carryInterest prorates the card's monthly rate over the days the previous
// statement's unpaid balance was carried, from its due date to the new cut.
func carryInterest(card domain.CreditCard, prev *domain.CreditCardStatement, newCutDate time.Time) decimal.Decimal {
	unpaid := prev.UnpaidCarry()
	if unpaid.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	days := clock.DaysBetween(prev.DueDate, newCutDate)
	if days <= 0 {
		return decimal.Zero
	}

	daysInMonth := decimal.NewFromInt(int64(clock.DaysInMonth(prev.StatementDate)))
	return unpaid.Mul(card.InterestRate).Div(daysInMonth).Mul(decimal.NewFromInt(int64(days))).Round(2)
}

// minimumPayment is the larger of the percentage minimum and the fixed
// minimum when one is set, never more than the closing balance itself.
func minimumPayment(card domain.CreditCard, closing decimal.Decimal) decimal.Decimal {
	if closing.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	minimum := closing.Mul(card.MinPaymentPercent).Round(2)
	if card.MinPaymentFixed != nil && card.MinPaymentFixed.GreaterThan(minimum) {
		minimum = *card.MinPaymentFixed
	}
	if minimum.GreaterThan(closing) {
		minimum = closing
	}
	return minimum
}

// ApplyPayment records a payment against the statement. The caller also
// decrements the card's revolving balance; which statement the payment is
// attributed to does not change that.
func ApplyPayment(st *domain.CreditCardStatement, amount decimal.Decimal) {
	st.TotalPaid = st.TotalPaid.Add(amount)
	st.IsPaid = st.TotalPaid.GreaterThanOrEqual(st.ClosingBalance)
}
