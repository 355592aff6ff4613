// Package store persists campaigns, scan records, and aggregation results.
package store

import (
	"context"

	"github.com/localvantage/gridscan/internal/aggregate"
	"github.com/localvantage/gridscan/internal/model"
	"github.com/localvantage/gridscan/internal/scan"
)

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	CampaignID string           `json:"campaign_id,omitempty"`
	Status     model.ScanStatus `json:"status,omitempty"`
	Limit      int              `json:"limit,omitempty"`
	Offset     int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the scan engine. The engine
// itself never reaches into storage; commands load what a scan needs (for
// example the previous aggregation for trend comparison) and pass it in.
type Store interface {
	// Campaigns
	CreateCampaign(ctx context.Context, c *model.Campaign) error
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context) ([]model.Campaign, error)

	// Scans
	CreateScan(ctx context.Context, campaignID string) (*model.ScanRecord, error)
	CompleteScan(ctx context.Context, scanID string, result *scan.FullResult, agg *aggregate.Result) error
	FailScan(ctx context.Context, scanID string, errMsg string) error
	GetScan(ctx context.Context, scanID string) (*model.ScanRecord, error)
	ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error)

	// Results
	GetScanResult(ctx context.Context, scanID string) (*scan.FullResult, error)
	GetAggregation(ctx context.Context, scanID string) (*aggregate.Result, error)
	// LatestAggregation returns the most recent completed aggregation for a
	// campaign, excluding the given scan ID. Returns nil, nil when there is
	// no earlier scan.
	LatestAggregation(ctx context.Context, campaignID, excludeScanID string) (*aggregate.Result, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
