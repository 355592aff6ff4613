package aggregate

// Tier is a coarse visibility bucket keyed on average rank.
type Tier string

const (
	TierDominant Tier = "dominant" // avg rank <= 3
	TierStrong   Tier = "strong"   // avg rank <= 10
	TierModerate Tier = "moderate" // avg rank <= 20
	TierWeak     Tier = "weak"
)

// TierFor maps an average rank onto its visibility tier. Ranks of zero
// (never observed) are weak.
func TierFor(avgRank float64) Tier {
	switch {
	case avgRank > 0 && avgRank <= 3:
		return TierDominant
	case avgRank > 0 && avgRank <= 10:
		return TierStrong
	case avgRank > 0 && avgRank <= 20:
		return TierModerate
	default:
		return TierWeak
	}
}

// GroupByTier buckets competitor rows by visibility tier.
func GroupByTier(stats []CompetitorStats) map[Tier][]CompetitorStats {
	groups := make(map[Tier][]CompetitorStats)
	for _, s := range stats {
		t := TierFor(s.AvgRank)
		groups[t] = append(groups[t], s)
	}
	return groups
}

// TopCompetitors returns the first n rows of the (already rank-sorted)
// competitor list.
func TopCompetitors(stats []CompetitorStats, n int) []CompetitorStats {
	if n <= 0 || n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// MarketShare computes each business's percentage of all top-3 appearances
// in the scan, keyed by display name. Unlike share of voice (which is
// attempt-based), market share always sums to 100 across observed
// businesses when any top-3 appearance exists.
func MarketShare(stats []CompetitorStats) map[string]float64 {
	total := 0
	for _, s := range stats {
		total += s.TimesInTop3
	}

	shares := make(map[string]float64, len(stats))
	for _, s := range stats {
		if total == 0 {
			shares[s.BusinessName] = 0
			continue
		}
		shares[s.BusinessName] = 100 * float64(s.TimesInTop3) / float64(total)
	}
	return shares
}
