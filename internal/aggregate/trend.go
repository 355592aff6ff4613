package aggregate

import (
	"github.com/localvantage/gridscan/internal/identity"
)

// PreviousRanks builds the previous-scan lookup consumed by ApplyRankChanges,
// keyed by normalized business name. Zero target ranks (the synthesized
// never-observed row) are excluded; there is no trend against "absent".
func PreviousRanks(prev *Result) map[string]float64 {
	if prev == nil {
		return nil
	}
	ranks := make(map[string]float64, len(prev.CompetitorStats)+1)
	if prev.TargetStats.AvgRank > 0 {
		ranks[identity.Normalize(prev.TargetStats.BusinessName)] = prev.TargetStats.AvgRank
	}
	for _, c := range prev.CompetitorStats {
		if c.AvgRank > 0 {
			ranks[identity.Normalize(c.BusinessName)] = c.AvgRank
		}
	}
	return ranks
}

// ApplyRankChanges annotates the result's rows with previous-scan ranks and
// deltas. RankChange is previous minus current: a positive value is an
// improvement, because lower rank numbers are better. Businesses without a
// previous observation keep nil trend fields.
func ApplyRankChanges(current *Result, previous map[string]float64) {
	if current == nil || len(previous) == 0 {
		return
	}
	applyChange(&current.TargetStats, previous)
	for i := range current.CompetitorStats {
		applyChange(&current.CompetitorStats[i], previous)
	}
}

func applyChange(s *CompetitorStats, previous map[string]float64) {
	prev, ok := previous[identity.Normalize(s.BusinessName)]
	if !ok || s.AvgRank == 0 {
		return
	}
	change := prev - s.AvgRank
	s.PrevAvgRank = &prev
	s.RankChange = &change
}
