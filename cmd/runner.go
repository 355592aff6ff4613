package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/localvantage/gridscan/internal/aggregate"
	"github.com/localvantage/gridscan/internal/config"
	"github.com/localvantage/gridscan/internal/geogrid"
	"github.com/localvantage/gridscan/internal/model"
	"github.com/localvantage/gridscan/internal/resilience"
	"github.com/localvantage/gridscan/internal/scan"
	"github.com/localvantage/gridscan/internal/store"
	"github.com/localvantage/gridscan/pkg/serp"
)

// initSERPClient builds the ranking provider client from config.
func initSERPClient(cfg config.SERPConfig) (serp.Client, error) {
	if cfg.Key == "" {
		return nil, eris.New("cmd: serp.key is not configured")
	}

	opts := []serp.Option{}
	if cfg.BaseURL != "" {
		opts = append(opts, serp.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, serp.WithRateLimit(cfg.RateLimit))
	}
	if cfg.Retries > 0 {
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Retries
		retry.OnRetry = resilience.RetryLogger("serp", "ranked_search")
		opts = append(opts, serp.WithRetry(retry))
	}

	return serp.NewClient(cfg.Key, opts...), nil
}

// runScan executes one full scan of one campaign: grid generation, optional
// boundary clipping, the point-by-point provider queries, aggregation, trend
// comparison against the campaign's previous scan, and persistence. A
// cancelled context persists the partial result rather than discarding it.
func runScan(ctx context.Context, st store.Store, provider serp.Client, cfg *config.Config, campaign *model.Campaign, onProgress scan.KeywordProgress) (*aggregate.Result, error) {
	log := zap.L().With(
		zap.String("component", "runner"),
		zap.String("campaign_id", campaign.ID),
	)

	points, err := geogrid.GeneratePoints(campaign.GridConfig())
	if err != nil {
		return nil, err
	}

	if campaign.BoundaryPath != "" {
		boundary, err := geogrid.LoadBoundary(campaign.BoundaryPath)
		if err != nil {
			return nil, err
		}
		before := len(points)
		points = boundary.FilterPoints(points)
		log.Info("grid clipped to boundary",
			zap.Int("before", before),
			zap.Int("after", len(points)),
		)
		if len(points) == 0 {
			return nil, eris.New("cmd: boundary excludes every grid point")
		}
	}

	record, err := st.CreateScan(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}

	log.Info("scan started",
		zap.String("scan_id", record.ID),
		zap.Int("grid_points", len(points)),
		zap.Int("keywords", len(campaign.Keywords)),
	)

	orch := scan.NewOrchestrator(provider,
		scan.WithZoom(cfg.Scan.Zoom),
		scan.WithDepth(cfg.Scan.Depth),
	)

	startedAt := time.Now().UTC()
	keywordResults := orch.ScanAllKeywords(ctx, points, campaign.Keywords, campaign.BusinessName, onProgress)

	full := &scan.FullResult{
		ScanID:             record.ID,
		CampaignID:         campaign.ID,
		TargetBusinessName: campaign.BusinessName,
		KeywordResults:     keywordResults,
		Stats:              scan.BuildStats(keywordResults, len(points), cfg.Pricing.SERP.PerQuery),
		StartedAt:          startedAt,
		CompletedAt:        time.Now().UTC(),
	}

	agg := aggregate.Aggregate(record.ID, keywordResults, campaign.BusinessName, len(points))

	// Persist even when cancelled mid-scan. Partial data is still data, so
	// the writes below run on an uncancellable context.
	saveCtx := context.WithoutCancel(ctx)

	// Trend comparison is persistence-time work: the previous aggregation
	// is loaded here and handed to the pure comparison function.
	prev, err := st.LatestAggregation(saveCtx, campaign.ID, record.ID)
	if err != nil {
		log.Warn("previous aggregation lookup failed, skipping trend", zap.Error(err))
	} else if prev != nil {
		aggregate.ApplyRankChanges(agg, aggregate.PreviousRanks(prev))
	}

	if err := st.CompleteScan(saveCtx, record.ID, full, agg); err != nil {
		if failErr := st.FailScan(saveCtx, record.ID, err.Error()); failErr != nil {
			log.Error("fail-scan marker write failed", zap.Error(failErr))
		}
		return nil, err
	}

	log.Info("scan complete",
		zap.String("scan_id", record.ID),
		zap.Int("successful_scans", full.Stats.SuccessfulScans),
		zap.Int("failed_scans", full.Stats.FailedScans),
		zap.Float64("estimated_cost", full.Stats.EstimatedCost),
		zap.Int("competitors_found", len(agg.CompetitorStats)),
	)

	return agg, nil
}
