package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierMultiplier(t *testing.T) {
	tests := []struct {
		country string
		want    string
	}{
		{"US", "1"},
		{"GB", "1"},
		{"DE", "1"},
		{"JP", "0.7"},
		{"ES", "0.7"},
		{"IN", "0.4"},
		{"BR", "0.4"},
		{"XX", "0.2"},
		{UnknownCountry, "0.2"},
		{"", "0.2"},
		// tiers are case-exact ISO codes
		{"us", "0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			want := decimal.RequireFromString(tt.want)
			assert.True(t, want.Equal(TierMultiplier(tt.country)),
				"country %q: want %s got %s", tt.country, want, TierMultiplier(tt.country))
		})
	}
}

func TestCalculateEarnings_PerClickAmounts(t *testing.T) {
	cpm := decimal.RequireFromString("2.5")

	tests := []struct {
		country string
		want    string
	}{
		{"US", "0.0025"},
		{"JP", "0.00175"},
		{"IN", "0.001"},
		{UnknownCountry, "0.0005"},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			got := CalculateEarnings(tt.country, cpm)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"country %q: want %s got %s", tt.country, tt.want, got)
		})
	}
}

func TestCalculateEarnings_LinearInRate(t *testing.T) {
	base := CalculateEarnings("US", decimal.RequireFromString("2.5"))
	doubled := CalculateEarnings("US", decimal.RequireFromString("5"))

	assert.True(t, base.Mul(decimal.NewFromInt(2)).Equal(doubled))
}

func TestCalculateEarnings_TierOrdering(t *testing.T) {
	cpm := decimal.RequireFromString("3.1")

	tier1 := CalculateEarnings("US", cpm)
	tier2 := CalculateEarnings("JP", cpm)
	tier3 := CalculateEarnings("IN", cpm)
	fallback := CalculateEarnings("XX", cpm)

	require.True(t, tier1.GreaterThan(tier2))
	require.True(t, tier2.GreaterThan(tier3))
	require.True(t, tier3.GreaterThan(fallback))
	require.True(t, fallback.IsPositive())
}

func TestCalculateEarnings_ZeroRate(t *testing.T) {
	assert.True(t, CalculateEarnings("US", decimal.Zero).IsZero())
}

func TestNoCountryInMultipleTiers(t *testing.T) {
	seen := make(map[string]int)
	for _, c := range tier1Countries {
		seen[c]++
	}
	for _, c := range tier2Countries {
		seen[c]++
	}
	for _, c := range tier3Countries {
		seen[c]++
	}
	for country, n := range seen {
		assert.Equal(t, 1, n, "country %s listed in %d tiers", country, n)
	}
}
