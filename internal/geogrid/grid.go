// Package geogrid generates geodetically accurate sampling lattices around a
// business location and exposes the great-circle primitives they are built on.
package geogrid

import (
	"github.com/rotisserie/eris"
)

const (
	// MaxGridSize bounds the lattice to 15x15 (225 points per keyword).
	MaxGridSize = 15
	// MaxRadiusMiles bounds the scan radius.
	MaxRadiusMiles = 50.0
)

// Config describes one scan lattice.
type Config struct {
	CenterLat   float64 `json:"center_lat"`
	CenterLng   float64 `json:"center_lng"`
	GridSize    int     `json:"grid_size"`
	RadiusMiles float64 `json:"radius_miles"`
}

// Validate checks the config bounds. It fails fast before any grid point is
// constructed.
func (c Config) Validate() error {
	if c.GridSize < 1 || c.GridSize > MaxGridSize {
		return eris.Errorf("geogrid: grid size %d out of range [1,%d]", c.GridSize, MaxGridSize)
	}
	if c.RadiusMiles <= 0 || c.RadiusMiles > MaxRadiusMiles {
		return eris.Errorf("geogrid: radius %.2f miles out of range (0,%.0f]", c.RadiusMiles, MaxRadiusMiles)
	}
	return nil
}

// Point is one sampled coordinate in the lattice. Immutable once generated.
type Point struct {
	Row int     `json:"row"`
	Col int     `json:"col"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeneratePoints builds a square lattice of gridSize x gridSize points
// centered on the config's coordinate, with a total diameter of twice the
// radius. The top-left corner is found by moving north then west from the
// center along great-circle bearings; rows then step south and columns east,
// which keeps the grid geometrically symmetric at any latitude.
func GeneratePoints(cfg Config) ([]Point, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Degenerate single-point grid: spacing is undefined, return the center.
	if cfg.GridSize == 1 {
		return []Point{{Row: 0, Col: 0, Lat: round7(cfg.CenterLat), Lng: round7(cfg.CenterLng)}}, nil
	}

	spacing := (2 * cfg.RadiusMiles) / float64(cfg.GridSize-1)

	northLat, northLng := Destination(cfg.CenterLat, cfg.CenterLng, 0, cfg.RadiusMiles)
	cornerLat, cornerLng := Destination(northLat, northLng, 270, cfg.RadiusMiles)

	points := make([]Point, 0, cfg.GridSize*cfg.GridSize)
	for row := 0; row < cfg.GridSize; row++ {
		rowLat, rowLng := cornerLat, cornerLng
		if row > 0 {
			rowLat, rowLng = Destination(cornerLat, cornerLng, 180, float64(row)*spacing)
		}
		for col := 0; col < cfg.GridSize; col++ {
			lat, lng := rowLat, rowLng
			if col > 0 {
				lat, lng = Destination(rowLat, rowLng, 90, float64(col)*spacing)
			}
			points = append(points, Point{Row: row, Col: col, Lat: lat, Lng: lng})
		}
	}

	return points, nil
}
