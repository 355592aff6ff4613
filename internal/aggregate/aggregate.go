// Package aggregate reduces the per-point observations of a completed scan
// into per-competitor and per-target statistics, trends, and a qualitative
// competitive summary.
package aggregate

import (
	"sort"

	"github.com/localvantage/gridscan/internal/identity"
	"github.com/localvantage/gridscan/internal/scan"
)

// CompetitorStats is one row per distinct business identity across an entire
// scan (all keywords, all points).
type CompetitorStats struct {
	BusinessName string   `json:"business_name"`
	GMBCid       string   `json:"gmb_cid,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int     `json:"review_count,omitempty"`
	AvgRank      float64  `json:"avg_rank"`
	TimesInTop3  int      `json:"times_in_top3"`
	TimesInTop10 int      `json:"times_in_top10"`
	TimesInTop20 int      `json:"times_in_top20"`
	// ShareOfVoice is the percentage of all successful scan attempts in
	// which this business appeared in the top 3. The denominator is the
	// scan-wide attempt count, not this business's own appearance count,
	// so rarely-seen businesses score low rather than artificially high.
	ShareOfVoice float64  `json:"share_of_voice"`
	PrevAvgRank  *float64 `json:"prev_avg_rank,omitempty"`
	RankChange   *float64 `json:"rank_change,omitempty"`
}

// OverallMetrics condenses the target's position in one struct.
type OverallMetrics struct {
	AvgRank               float64 `json:"avg_rank"`
	ShareOfVoice          float64 `json:"share_of_voice"`
	TopCompetitor         string  `json:"top_competitor,omitempty"`
	TotalCompetitorsFound int     `json:"total_competitors_found"`
}

// Result is the aggregation of one completed scan. Immutable once built.
type Result struct {
	ScanID          string            `json:"scan_id"`
	TargetStats     CompetitorStats   `json:"target_stats"`
	CompetitorStats []CompetitorStats `json:"competitor_stats"`
	Overall         OverallMetrics    `json:"overall"`
}

type accumulator struct {
	name        string
	cid         string
	rating      *float64
	reviewCount *int
	rankSum     int
	count       int
	top3        int
	top10       int
	top20       int
}

// Aggregate folds every listing from every successful point of every keyword
// into per-business statistics, keyed by normalized business name. Tier
// counters increment on the listing's rank at that point, not on any
// aggregate rank. The target always gets a stats row: if it was never
// observed, a zero-value row is synthesized so downstream consumers can rely
// on its presence.
func Aggregate(scanID string, keywordResults []scan.KeywordResult, targetName string, totalGridPoints int) *Result {
	byName := make(map[string]*accumulator)
	order := make([]string, 0) // first-seen order, for deterministic ties

	totalAttempts := 0
	for _, kr := range keywordResults {
		totalAttempts += kr.SuccessfulScans

		for _, pr := range kr.Points {
			if !pr.Success {
				continue
			}
			for _, listing := range pr.TopRankings {
				key := identity.Normalize(listing.Name)
				if key == "" {
					continue
				}
				acc, ok := byName[key]
				if !ok {
					acc = &accumulator{name: listing.Name}
					byName[key] = acc
					order = append(order, key)
				}
				if acc.cid == "" {
					acc.cid = listing.CID
				}
				if acc.rating == nil {
					acc.rating = listing.Rating
				}
				if acc.reviewCount == nil {
					acc.reviewCount = listing.ReviewCount
				}

				acc.rankSum += listing.Rank
				acc.count++
				if listing.Rank <= 3 {
					acc.top3++
				}
				if listing.Rank <= 10 {
					acc.top10++
				}
				if listing.Rank <= 20 {
					acc.top20++
				}
			}
		}
	}

	var target *CompetitorStats
	var targetCount int
	competitors := make([]CompetitorStats, 0, len(byName))

	for _, key := range order {
		acc := byName[key]
		stats := acc.stats(totalAttempts)

		if identity.IsMatch(targetName, acc.name) {
			// Duplicate target variants collapse onto the best-observed
			// row instead of polluting the competitor list.
			if target == nil || acc.count > targetCount {
				target = &stats
				targetCount = acc.count
			}
			continue
		}
		competitors = append(competitors, stats)
	}

	if target == nil {
		target = &CompetitorStats{BusinessName: targetName}
	}

	// Lower rank number = better visibility = sorts first.
	sort.SliceStable(competitors, func(i, j int) bool {
		return competitors[i].AvgRank < competitors[j].AvgRank
	})

	overall := OverallMetrics{
		AvgRank:               target.AvgRank,
		ShareOfVoice:          target.ShareOfVoice,
		TotalCompetitorsFound: len(competitors),
	}
	if len(competitors) > 0 {
		overall.TopCompetitor = competitors[0].BusinessName
	}

	return &Result{
		ScanID:          scanID,
		TargetStats:     *target,
		CompetitorStats: competitors,
		Overall:         overall,
	}
}

func (a *accumulator) stats(totalAttempts int) CompetitorStats {
	s := CompetitorStats{
		BusinessName: a.name,
		GMBCid:       a.cid,
		Rating:       a.rating,
		ReviewCount:  a.reviewCount,
		TimesInTop3:  a.top3,
		TimesInTop10: a.top10,
		TimesInTop20: a.top20,
	}
	if a.count > 0 {
		s.AvgRank = float64(a.rankSum) / float64(a.count)
	}
	if totalAttempts > 0 {
		s.ShareOfVoice = 100 * float64(a.top3) / float64(totalAttempts)
	}
	return s
}
