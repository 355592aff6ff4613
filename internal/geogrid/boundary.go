package geogrid

import (
	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// Boundary is a service-area polygon used to clip grid points. When a
// campaign has a boundary, points outside of it are skipped instead of
// scanned, so API calls are not spent on territory the business cannot serve.
type Boundary struct {
	rings [][]float64 // flat XY coords, one slice per outer ring
}

// NewBoundary builds a Boundary from polygon rings given as flat
// {x0, y0, x1, y1, ...} coordinate slices (x = longitude, y = latitude).
func NewBoundary(rings [][]float64) (*Boundary, error) {
	if len(rings) == 0 {
		return nil, eris.New("geogrid: boundary requires at least one ring")
	}
	for i, r := range rings {
		if len(r) < 8 || len(r)%2 != 0 {
			return nil, eris.Errorf("geogrid: boundary ring %d is not a closed polygon", i)
		}
	}
	return &Boundary{rings: rings}, nil
}

// LoadBoundary reads the first polygon shape from an ESRI shapefile.
// Coordinates are assumed to be lon/lat (EPSG:4326), which is what Census
// TIGER and most service-area exports use.
func LoadBoundary(path string) (*Boundary, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geogrid: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if ok {
			return polygonBoundary(poly)
		}
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "geogrid: read shapefile %s", path)
	}
	return nil, eris.Errorf("geogrid: no polygon shapes in %s", path)
}

func polygonBoundary(poly *shp.Polygon) (*Boundary, error) {
	if poly.NumParts == 0 || len(poly.Points) == 0 {
		return nil, eris.New("geogrid: empty polygon shape")
	}

	rings := make([][]float64, 0, poly.NumParts)
	for i := int32(0); i < poly.NumParts; i++ {
		start := poly.Parts[i]
		end := int32(len(poly.Points))
		if i+1 < poly.NumParts {
			end = poly.Parts[i+1]
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, poly.Points[j].X, poly.Points[j].Y)
		}
		rings = append(rings, flat)
	}

	return NewBoundary(rings)
}

// Contains reports whether the coordinate falls inside any of the boundary's
// rings.
func (b *Boundary) Contains(lat, lng float64) bool {
	p := geom.Coord{lng, lat}
	for _, ring := range b.rings {
		if xy.IsPointInRing(geom.XY, p, ring) {
			return true
		}
	}
	return false
}

// FilterPoints returns the subset of points inside the boundary. Row/col
// indices are preserved so results still map onto the original lattice.
func (b *Boundary) FilterPoints(points []Point) []Point {
	kept := make([]Point, 0, len(points))
	for _, p := range points {
		if b.Contains(p.Lat, p.Lng) {
			kept = append(kept, p)
		}
	}
	if dropped := len(points) - len(kept); dropped > 0 {
		zap.L().Debug("geogrid: clipped grid points outside boundary",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(kept)),
		)
	}
	return kept
}
