// Package model holds the persisted entities shared across commands and the
// store.
package model

import (
	"time"

	"github.com/localvantage/gridscan/internal/geogrid"
)

// Campaign is one tracked business: who we scan for, where, and with which
// keywords.
type Campaign struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BusinessName string    `json:"business_name"`
	CenterLat    float64   `json:"center_lat"`
	CenterLng    float64   `json:"center_lng"`
	GridSize     int       `json:"grid_size"`
	RadiusMiles  float64   `json:"radius_miles"`
	Keywords     []string  `json:"keywords"`
	BoundaryPath string    `json:"boundary_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// GridConfig derives the lattice config for this campaign.
func (c Campaign) GridConfig() geogrid.Config {
	return geogrid.Config{
		CenterLat:   c.CenterLat,
		CenterLng:   c.CenterLng,
		GridSize:    c.GridSize,
		RadiusMiles: c.RadiusMiles,
	}
}

// ScanStatus represents the lifecycle state of a scan.
type ScanStatus string

const (
	ScanStatusQueued   ScanStatus = "queued"
	ScanStatusRunning  ScanStatus = "running"
	ScanStatusComplete ScanStatus = "complete"
	ScanStatusFailed   ScanStatus = "failed"
)

// ScanRecord is the persisted envelope around one scan of one campaign. The
// raw result and its aggregation are stored as documents; partial results
// from a cancelled scan are stored the same way completed ones are.
type ScanRecord struct {
	ID          string     `json:"id"`
	CampaignID  string     `json:"campaign_id"`
	Status      ScanStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
