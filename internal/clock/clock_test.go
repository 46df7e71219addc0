package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
)

func TestDateOnly_ConvertsBeforeTruncating(t *testing.T) {
	// 23:30 UTC on Jan 1 is already Jan 2 in Bangkok.
	utc := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)

	got := clock.DateOnly(utc)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, clock.Bangkok), got)
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			name: "same day",
			from: time.Date(2024, 1, 15, 9, 0, 0, 0, clock.Bangkok),
			to:   time.Date(2024, 1, 15, 21, 0, 0, 0, clock.Bangkok),
			want: 0,
		},
		{
			name: "across leap February",
			from: time.Date(2024, 2, 1, 0, 0, 0, 0, clock.Bangkok),
			to:   time.Date(2024, 3, 1, 0, 0, 0, 0, clock.Bangkok),
			want: 29,
		},
		{
			name: "reversed arguments are negative",
			from: time.Date(2024, 3, 10, 0, 0, 0, 0, clock.Bangkok),
			to:   time.Date(2024, 3, 8, 0, 0, 0, 0, clock.Bangkok),
			want: -2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.DaysBetween(tt.from, tt.to))
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, clock.DaysInMonth(time.Date(2024, 2, 10, 0, 0, 0, 0, clock.Bangkok)))
	assert.Equal(t, 28, clock.DaysInMonth(time.Date(2023, 2, 10, 0, 0, 0, 0, clock.Bangkok)))
	assert.Equal(t, 31, clock.DaysInMonth(time.Date(2024, 1, 31, 0, 0, 0, 0, clock.Bangkok)))
}

func TestToday_UsesStaticClock(t *testing.T) {
	c := clock.Static{T: time.Date(2024, 5, 1, 18, 45, 0, 0, time.UTC)}

	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, clock.Bangkok), clock.Today(c))
}
