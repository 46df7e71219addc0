package interest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
)

func TestCheckRateLegality(t *testing.T) {
	tests := []struct {
		name           string
		rate           string
		mode           domain.InterestMode
		wantLegal      bool
		wantAnnualized string
	}{
		{
			name:           "5 percent monthly is 60 percent a year",
			rate:           "0.05",
			mode:           domain.InterestModeMonthly,
			wantLegal:      false,
			wantAnnualized: "0.6",
		},
		{
			name:           "1 percent monthly is 12 percent a year",
			rate:           "0.01",
			mode:           domain.InterestModeMonthly,
			wantLegal:      true,
			wantAnnualized: "0.12",
		},
		{
			name:           "exactly at the ceiling is legal",
			rate:           "0.0125",
			mode:           domain.InterestModeMonthly,
			wantLegal:      true,
			wantAnnualized: "0.15",
		},
		{
			name:           "daily rate annualized over 365 days",
			rate:           "0.001",
			mode:           domain.InterestModeDaily,
			wantLegal:      false,
			wantAnnualized: "0.365",
		},
		{
			name:           "small daily rate is legal",
			rate:           "0.0004",
			mode:           domain.InterestModeDaily,
			wantLegal:      true,
			wantAnnualized: "0.146",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := CheckRateLegality(decimal.RequireFromString(tc.rate), tc.mode)
			require.NoError(t, err)

			assert.Equal(t, tc.wantLegal, res.IsLegal)
			want := decimal.RequireFromString(tc.wantAnnualized)
			assert.True(t, res.Annualized.Equal(want), "annualized: got %s, want %s", res.Annualized, want)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestCheckRateLegalityUnknownMode(t *testing.T) {
	_, err := CheckRateLegality(decimal.NewFromFloat(0.01), "weekly")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}
