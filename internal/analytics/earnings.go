package analytics

import "github.com/shopspring/decimal"

// Country tiers scale CPM payout by market value. The sets are a versioned
// static table; membership is checked tier1 -> tier2 -> tier3 -> default and
// no code appears in more than one tier.
var (
	// Tier 1: major Western markets, full CPM
	tier1Countries = []string{"US", "GB", "CA", "AU", "DE", "FR", "NL", "SE", "NO", "DK", "CH", "AT", "BE", "IE", "NZ"}
	// Tier 2: secondary developed markets, 70% CPM
	tier2Countries = []string{"IT", "ES", "PT", "PL", "CZ", "GR", "JP", "KR", "SG", "HK", "TW", "IL", "AE", "SA"}
	// Tier 3: large emerging markets, 40% CPM
	tier3Countries = []string{"BR", "MX", "AR", "CL", "CO", "IN", "PH", "TH", "MY", "ID", "VN", "TR", "RU", "UA", "ZA"}
)

var (
	tier1Multiplier   = decimal.NewFromInt(1)
	tier2Multiplier   = decimal.RequireFromString("0.7")
	tier3Multiplier   = decimal.RequireFromString("0.4")
	defaultMultiplier = decimal.RequireFromString("0.2")

	perThousand = decimal.NewFromInt(1000)
)

var (
	tier1Set = toSet(tier1Countries)
	tier2Set = toSet(tier2Countries)
	tier3Set = toSet(tier3Countries)
)

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

// TierMultiplier returns the CPM multiplier for a resolved country code.
// Unknown or unlisted countries get the default 20% multiplier.
func TierMultiplier(country string) decimal.Decimal {
	if _, ok := tier1Set[country]; ok {
		return tier1Multiplier
	}
	if _, ok := tier2Set[country]; ok {
		return tier2Multiplier
	}
	if _, ok := tier3Set[country]; ok {
		return tier3Multiplier
	}
	return defaultMultiplier
}

// CalculateEarnings returns the payout for exactly one click:
// cpmRate * multiplier / 1000, since CPM is a per-thousand-impressions rate.
func CalculateEarnings(country string, cpmRate decimal.Decimal) decimal.Decimal {
	return cpmRate.Mul(TierMultiplier(country)).Div(perThousand)
}
