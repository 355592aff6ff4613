package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localvantage/gridscan/internal/scan"
)

func successPoint(listings ...scan.CompetitorRanking) scan.GridPointResult {
	return scan.GridPointResult{Success: true, TopRankings: listings, TotalResults: len(listings)}
}

func failedPoint() scan.GridPointResult {
	return scan.GridPointResult{Success: false, Error: "timeout"}
}

func ranking(name string, rank int) scan.CompetitorRanking {
	return scan.CompetitorRanking{Name: name, Rank: rank}
}

func TestAggregateBasicStats(t *testing.T) {
	t.Parallel()

	// ABC Dental seen at ranks 1 and 2 over two successful attempts.
	keywordResults := []scan.KeywordResult{
		{
			Keyword:         "dentist",
			SuccessfulScans: 2,
			Points: []scan.GridPointResult{
				successPoint(ranking("ABC Dental", 1), ranking("Fielder Park Dental", 4)),
				successPoint(ranking("ABC Dental", 2), ranking("Fielder Park Dental", 5)),
			},
		},
	}

	result := Aggregate("scan-1", keywordResults, "Fielder Park Dental", 2)

	require.Len(t, result.CompetitorStats, 1)
	abc := result.CompetitorStats[0]
	assert.Equal(t, "ABC Dental", abc.BusinessName)
	assert.InDelta(t, 1.5, abc.AvgRank, 1e-9)
	assert.Equal(t, 2, abc.TimesInTop3)
	assert.Equal(t, 2, abc.TimesInTop10)
	assert.Equal(t, 2, abc.TimesInTop20)
	assert.InDelta(t, 100.0, abc.ShareOfVoice, 1e-9)

	target := result.TargetStats
	assert.InDelta(t, 4.5, target.AvgRank, 1e-9)
	assert.Equal(t, 0, target.TimesInTop3)
	assert.Equal(t, 2, target.TimesInTop10)
	assert.InDelta(t, 0.0, target.ShareOfVoice, 1e-9)
}

func TestAggregateMergesNameVariants(t *testing.T) {
	t.Parallel()

	keywordResults := []scan.KeywordResult{
		{
			SuccessfulScans: 2,
			Points: []scan.GridPointResult{
				successPoint(ranking("ABC Dental LLC", 1)),
				successPoint(ranking("ABC Dental", 3)),
			},
		},
	}

	result := Aggregate("scan-1", keywordResults, "Fielder Park Dental", 2)

	require.Len(t, result.CompetitorStats, 1, "name variants collapse onto one row")
	abc := result.CompetitorStats[0]
	assert.Equal(t, "ABC Dental LLC", abc.BusinessName, "display name is the first-seen raw name")
	assert.InDelta(t, 2.0, abc.AvgRank, 1e-9)
	assert.Equal(t, 2, abc.TimesInTop3)
}

func TestAggregateShareOfVoiceDenominator(t *testing.T) {
	t.Parallel()

	// Four successful attempts scan-wide; ABC in the top 3 at one of them.
	// Share of voice is 25%, not 100%, even though ABC was only seen once.
	keywordResults := []scan.KeywordResult{
		{
			SuccessfulScans: 2,
			Points: []scan.GridPointResult{
				successPoint(ranking("ABC Dental", 2)),
				successPoint(ranking("Other Dental", 1)),
			},
		},
		{
			SuccessfulScans: 2,
			Points: []scan.GridPointResult{
				successPoint(ranking("Other Dental", 1)),
				successPoint(ranking("Other Dental", 2)),
			},
		},
	}

	result := Aggregate("scan-1", keywordResults, "Fielder Park Dental", 2)

	byName := make(map[string]CompetitorStats)
	for _, c := range result.CompetitorStats {
		byName[c.BusinessName] = c
	}
	assert.InDelta(t, 25.0, byName["ABC Dental"].ShareOfVoice, 1e-9)
	assert.InDelta(t, 75.0, byName["Other Dental"].ShareOfVoice, 1e-9)
}

func TestAggregateFailedPointsExcluded(t *testing.T) {
	t.Parallel()

	keywordResults := []scan.KeywordResult{
		{
			SuccessfulScans: 1,
			FailedScans:     1,
			Points: []scan.GridPointResult{
				successPoint(ranking("ABC Dental", 1)),
				failedPoint(),
			},
		},
	}

	result := Aggregate("scan-1", keywordResults, "Target Dental Co", 2)

	require.Len(t, result.CompetitorStats, 1)
	// Denominator counts successful attempts only.
	assert.InDelta(t, 100.0, result.CompetitorStats[0].ShareOfVoice, 1e-9)
}

func TestAggregateSynthesizesTargetRow(t *testing.T) {
	t.Parallel()

	keywordResults := []scan.KeywordResult{
		{
			SuccessfulScans: 1,
			Points: []scan.GridPointResult{
				successPoint(ranking("ABC Dental", 1)),
			},
		},
	}

	result := Aggregate("scan-1", keywordResults, "Fielder Park Dental", 1)

	assert.Equal(t, "Fielder Park Dental", result.TargetStats.BusinessName)
	assert.Zero(t, result.TargetStats.AvgRank)
	assert.Zero(t, result.TargetStats.TimesInTop20)
	assert.Zero(t, result.TargetStats.ShareOfVoice)
}

func TestAggregateTargetExcludedFromCompetitors(t *testing.T) {
	t.Parallel()

	keywordResults := []scan.KeywordResult{
		{
			SuccessfulScans: 2,
			Points: []scan.GridPointResult{
				successPoint(
					ranking("Fielder Park Dental", 1),
					ranking("ABC Dental", 2),
				),
				successPoint(
					ranking("Fielder Park Dental - Dr. Smith, DDS", 1),
					ranking("ABC Dental", 2),
				),
			},
		},
	}

	result := Aggregate("scan-1", keywordResults, "Fielder Park Dental", 2)

	require.Len(t, result.CompetitorStats, 1)
	assert.Equal(t, "ABC Dental", result.CompetitorStats[0].BusinessName)
	// Equally observed target variants tie; the first-seen one carries the stats.
	assert.Equal(t, "Fielder Park Dental", result.TargetStats.BusinessName)
	assert.InDelta(t, 1.0, result.TargetStats.AvgRank, 1e-9)
}

func TestAggregateSortedByAvgRank(t *testing.T) {
	t.Parallel()

	keywordResults := []scan.KeywordResult{
		{
			SuccessfulScans: 1,
			Points: []scan.GridPointResult{
				successPoint(
					ranking("Worst Dental", 9),
					ranking("Best Dental", 1),
					ranking("Middle Dental", 4),
				),
			},
		},
	}

	result := Aggregate("scan-1", keywordResults, "Target Dental Group", 1)

	require.Len(t, result.CompetitorStats, 3)
	assert.Equal(t, "Best Dental", result.CompetitorStats[0].BusinessName)
	assert.Equal(t, "Middle Dental", result.CompetitorStats[1].BusinessName)
	assert.Equal(t, "Worst Dental", result.CompetitorStats[2].BusinessName)
	assert.Equal(t, "Best Dental", result.Overall.TopCompetitor)
	assert.Equal(t, 3, result.Overall.TotalCompetitorsFound)
}

func TestAggregateCapturesListingMetadata(t *testing.T) {
	t.Parallel()

	rating := 4.8
	reviews := 120
	keywordResults := []scan.KeywordResult{
		{
			SuccessfulScans: 1,
			Points: []scan.GridPointResult{
				successPoint(scan.CompetitorRanking{
					Name: "ABC Dental", Rank: 1, CID: "cid-123",
					Rating: &rating, ReviewCount: &reviews,
				}),
			},
		},
	}

	result := Aggregate("scan-1", keywordResults, "Target Dental Group", 1)

	require.Len(t, result.CompetitorStats, 1)
	abc := result.CompetitorStats[0]
	assert.Equal(t, "cid-123", abc.GMBCid)
	require.NotNil(t, abc.Rating)
	assert.InDelta(t, 4.8, *abc.Rating, 1e-9)
	require.NotNil(t, abc.ReviewCount)
	assert.Equal(t, 120, *abc.ReviewCount)
}

func TestAggregateEmptyScan(t *testing.T) {
	t.Parallel()

	result := Aggregate("scan-1", nil, "Fielder Park Dental", 0)

	assert.Empty(t, result.CompetitorStats)
	assert.Equal(t, "Fielder Park Dental", result.TargetStats.BusinessName)
	assert.Zero(t, result.Overall.AvgRank)
	assert.Empty(t, result.Overall.TopCompetitor)
}
