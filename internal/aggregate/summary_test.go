package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func summaryResult(target CompetitorStats, competitors ...CompetitorStats) *Result {
	return &Result{
		ScanID:          "scan-1",
		TargetStats:     target,
		CompetitorStats: competitors,
	}
}

func TestSummarizePosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target CompetitorStats
		want   Position
	}{
		{"dominant", CompetitorStats{AvgRank: 2.1, TimesInTop20: 40}, PositionDominant},
		{"dominant boundary", CompetitorStats{AvgRank: 3.0, TimesInTop20: 10}, PositionDominant},
		{"strong", CompetitorStats{AvgRank: 7.5, TimesInTop20: 30}, PositionStrong},
		{"moderate", CompetitorStats{AvgRank: 15.0, TimesInTop20: 12}, PositionModerate},
		{"weak", CompetitorStats{AvgRank: 25.0, TimesInTop20: 3}, PositionWeak},
		{"not ranking via zero avg", CompetitorStats{AvgRank: 0, TimesInTop20: 0}, PositionNotRanking},
		{"not ranking via zero top20", CompetitorStats{AvgRank: 22.0, TimesInTop20: 0}, PositionNotRanking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := Summarize(summaryResult(tt.target))
			assert.Equal(t, tt.want, s.TargetPosition)
			assert.NotEmpty(t, s.Recommendation)
			assert.Equal(t, recommendations[tt.want], s.Recommendation)
		})
	}
}

func TestSummarizeCompetitorsAhead(t *testing.T) {
	t.Parallel()

	s := Summarize(summaryResult(
		CompetitorStats{AvgRank: 5.0, TimesInTop20: 10},
		CompetitorStats{BusinessName: "Better", AvgRank: 2.0},
		CompetitorStats{BusinessName: "Tied", AvgRank: 5.0},
		CompetitorStats{BusinessName: "Worse", AvgRank: 8.0},
		CompetitorStats{BusinessName: "Unranked", AvgRank: 0},
	))

	assert.Equal(t, 1, s.CompetitorsAhead)
}

func TestSummarizeCompetitorsAheadWhenNotRanking(t *testing.T) {
	t.Parallel()

	// Every ranked competitor is ahead of a target that does not appear.
	s := Summarize(summaryResult(
		CompetitorStats{AvgRank: 0, TimesInTop20: 0},
		CompetitorStats{BusinessName: "A", AvgRank: 1.0},
		CompetitorStats{BusinessName: "B", AvgRank: 19.0},
		CompetitorStats{BusinessName: "C", AvgRank: 0},
	))

	assert.Equal(t, 2, s.CompetitorsAhead)
	assert.Equal(t, PositionNotRanking, s.TargetPosition)
}

func TestSummarizeMainThreats(t *testing.T) {
	t.Parallel()

	s := Summarize(summaryResult(
		CompetitorStats{AvgRank: 6.0, TimesInTop20: 10, ShareOfVoice: 20.0},
		CompetitorStats{BusinessName: "Threat A", AvgRank: 1.0, ShareOfVoice: 80.0},
		CompetitorStats{BusinessName: "Threat B", AvgRank: 2.0, ShareOfVoice: 55.0},
		CompetitorStats{BusinessName: "Harmless", AvgRank: 3.0, ShareOfVoice: 10.0},
		CompetitorStats{BusinessName: "Threat C", AvgRank: 4.0, ShareOfVoice: 30.0},
		CompetitorStats{BusinessName: "Threat D", AvgRank: 5.0, ShareOfVoice: 25.0},
	))

	// Capped at three, in competitor-list order, only those with more voice.
	assert.Equal(t, []string{"Threat A", "Threat B", "Threat C"}, s.MainThreats)
}

func TestSummarizeNoThreats(t *testing.T) {
	t.Parallel()

	s := Summarize(summaryResult(
		CompetitorStats{AvgRank: 1.5, TimesInTop20: 40, ShareOfVoice: 90.0},
		CompetitorStats{BusinessName: "Runner Up", AvgRank: 3.0, ShareOfVoice: 40.0},
	))

	assert.Empty(t, s.MainThreats)
	assert.Equal(t, PositionDominant, s.TargetPosition)
}
