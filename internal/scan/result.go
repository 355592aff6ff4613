package scan

import (
	"time"

	"github.com/localvantage/gridscan/internal/geogrid"
)

// CompetitorRanking is one listing observed at one grid point for one
// keyword. It only lives inside a GridPointResult.
type CompetitorRanking struct {
	Name        string   `json:"name"`
	Rank        int      `json:"rank"`
	CID         string   `json:"cid,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Address     string   `json:"address,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// GridPointResult is the outcome of one ranked query at one grid point.
// TargetRank is nil both when the target was absent from the top-N and when
// the provider call failed; check Success before reading it.
type GridPointResult struct {
	Point        geogrid.Point       `json:"point"`
	Keyword      string              `json:"keyword"`
	TargetRank   *int                `json:"target_rank,omitempty"`
	TopRankings  []CompetitorRanking `json:"top_rankings"`
	TotalResults int                 `json:"total_results"`
	Success      bool                `json:"success"`
	Error        string              `json:"error,omitempty"`
	ScannedAt    time.Time           `json:"scanned_at"`
}

// KeywordResult aggregates every grid point result for one keyword.
// AvgRank is nil iff the target ranked at zero points; that is not the same
// thing as a poor rank.
type KeywordResult struct {
	Keyword         string            `json:"keyword"`
	Points          []GridPointResult `json:"points"`
	SuccessfulScans int               `json:"successful_scans"`
	FailedScans     int               `json:"failed_scans"`
	AvgRank         *float64          `json:"avg_rank,omitempty"`
	TimesInTop3     int               `json:"times_in_top3"`
	TimesInTop10    int               `json:"times_in_top10"`
	TimesRanked     int               `json:"times_ranked"`
}

// Stats summarizes provider usage for a full scan.
type Stats struct {
	TotalPoints     int     `json:"total_points"`
	TotalScans      int     `json:"total_scans"`
	SuccessfulScans int     `json:"successful_scans"`
	FailedScans     int     `json:"failed_scans"`
	APICallsUsed    int     `json:"api_calls_used"`
	EstimatedCost   float64 `json:"estimated_cost"`
}

// FullResult is the complete output of one scan across all keywords. It is
// what gets persisted and fed to aggregation.
type FullResult struct {
	ScanID             string          `json:"scan_id"`
	CampaignID         string          `json:"campaign_id"`
	TargetBusinessName string          `json:"target_business_name"`
	KeywordResults     []KeywordResult `json:"keyword_results"`
	Stats              Stats           `json:"stats"`
	StartedAt          time.Time       `json:"started_at"`
	CompletedAt        time.Time       `json:"completed_at"`
}
