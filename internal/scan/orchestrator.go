// Package scan executes geo-grid ranking scans against the ranking provider,
// one point at a time, tolerating per-point failure.
package scan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/localvantage/gridscan/internal/geogrid"
	"github.com/localvantage/gridscan/internal/identity"
	"github.com/localvantage/gridscan/pkg/serp"
)

// PointProgress is called synchronously after each grid point of one keyword.
// Callbacks run on the scan loop and delay the next query, so keep them cheap.
type PointProgress func(completed, total int)

// KeywordProgress adds the keyword position to point-level progress, enabling
// a two-level progress display.
type KeywordProgress func(keywordIndex, keywordTotal, completed, total int)

// Orchestrator runs ranking scans. Grid points are scanned strictly
// sequentially within a scan: the provider enforces a rate limit and
// sequential execution throttles to it without a scheduler in this layer.
// The provider client owns retries; the orchestrator makes one attempt per
// point and records the outcome. Construct one per scan invocation;
// independent scans may run concurrently sharing the same client.
type Orchestrator struct {
	provider serp.Client
	zoom     int
	depth    int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithZoom overrides the coordinate zoom level.
func WithZoom(zoom int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.zoom = zoom
	}
}

// WithDepth overrides how many listings are requested per point.
func WithDepth(depth int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.depth = depth
	}
}

// NewOrchestrator creates an Orchestrator backed by the given provider client.
func NewOrchestrator(provider serp.Client, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		zoom:     geogrid.DefaultZoom,
		depth:    serp.DefaultDepth,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ScanGridPoint issues one ranked query for (keyword, point) and records
// every listing. The first listing matching targetName sets TargetRank;
// providers return results rank-ordered, so a duplicate later in the list
// must not re-rank the target. Provider errors are captured in the result,
// never propagated.
func (o *Orchestrator) ScanGridPoint(ctx context.Context, point geogrid.Point, keyword, targetName string) GridPointResult {
	result := GridPointResult{
		Point:     point,
		Keyword:   keyword,
		ScannedAt: time.Now().UTC(),
	}

	coordinate := geogrid.FormatCoordinate(point.Lat, point.Lng, o.zoom)
	listings, err := o.provider.RankedSearch(ctx, keyword, coordinate, o.depth)
	if err != nil {
		result.Error = err.Error()
		zap.L().Warn("grid point scan failed",
			zap.String("keyword", keyword),
			zap.Int("row", point.Row),
			zap.Int("col", point.Col),
			zap.Error(err),
		)
		return result
	}

	result.Success = true
	result.TotalResults = len(listings)
	result.TopRankings = make([]CompetitorRanking, 0, len(listings))

	for _, l := range listings {
		result.TopRankings = append(result.TopRankings, CompetitorRanking{
			Name:        l.Title,
			Rank:        l.RankAbsolute,
			CID:         l.CID,
			Rating:      l.Rating,
			ReviewCount: l.ReviewsCount,
			Address:     l.Address,
			Phone:       l.Phone,
			Category:    l.Category,
		})
		if result.TargetRank == nil && identity.IsMatch(targetName, l.Title) {
			rank := l.RankAbsolute
			result.TargetRank = &rank
		}
	}

	return result
}

// ScanGridForKeyword scans every point for one keyword, sequentially, and
// accumulates tier counters as it goes. A cancelled context stops the loop
// between points and returns a partial result covering only the completed
// ones; gathered data is never discarded.
func (o *Orchestrator) ScanGridForKeyword(ctx context.Context, points []geogrid.Point, keyword, targetName string, onProgress PointProgress) KeywordResult {
	result := KeywordResult{
		Keyword: keyword,
		Points:  make([]GridPointResult, 0, len(points)),
	}

	var rankSum int
	total := len(points)

	for _, point := range points {
		if ctx.Err() != nil {
			zap.L().Info("scan cancelled mid-keyword",
				zap.String("keyword", keyword),
				zap.Int("completed", len(result.Points)),
				zap.Int("total", total),
			)
			break
		}

		pr := o.ScanGridPoint(ctx, point, keyword, targetName)
		result.Points = append(result.Points, pr)

		if pr.Success {
			result.SuccessfulScans++
			if pr.TargetRank != nil {
				rank := *pr.TargetRank
				rankSum += rank
				result.TimesRanked++
				if rank <= 3 {
					result.TimesInTop3++
				}
				if rank <= 10 {
					result.TimesInTop10++
				}
			}
		} else {
			result.FailedScans++
		}

		if onProgress != nil {
			onProgress(len(result.Points), total)
		}
	}

	if result.TimesRanked > 0 {
		avg := float64(rankSum) / float64(result.TimesRanked)
		result.AvgRank = &avg
	}

	return result
}

// ScanAllKeywords runs ScanGridForKeyword for each keyword in order. The
// same cancellation contract applies: remaining keywords are skipped and the
// partial result is returned.
func (o *Orchestrator) ScanAllKeywords(ctx context.Context, points []geogrid.Point, keywords []string, targetName string, onProgress KeywordProgress) []KeywordResult {
	results := make([]KeywordResult, 0, len(keywords))

	for i, keyword := range keywords {
		if ctx.Err() != nil {
			break
		}

		var pp PointProgress
		if onProgress != nil {
			idx, kwTotal := i, len(keywords)
			pp = func(completed, total int) {
				onProgress(idx, kwTotal, completed, total)
			}
		}

		kr := o.ScanGridForKeyword(ctx, points, keyword, targetName, pp)
		results = append(results, kr)

		zap.L().Info("keyword scan complete",
			zap.String("keyword", keyword),
			zap.Int("successful", kr.SuccessfulScans),
			zap.Int("failed", kr.FailedScans),
			zap.Int("times_ranked", kr.TimesRanked),
		)
	}

	return results
}

// BuildStats derives provider usage stats from keyword results. costPerCall
// prices each attempted provider call.
func BuildStats(keywordResults []KeywordResult, totalPoints int, costPerCall float64) Stats {
	s := Stats{TotalPoints: totalPoints}
	for _, kr := range keywordResults {
		s.TotalScans += len(kr.Points)
		s.SuccessfulScans += kr.SuccessfulScans
		s.FailedScans += kr.FailedScans
	}
	s.APICallsUsed = s.TotalScans
	s.EstimatedCost = float64(s.APICallsUsed) * costPerCall
	return s
}
