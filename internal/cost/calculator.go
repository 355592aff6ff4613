// Package cost prices scans before and after they run.
package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	SERP   SERPRate   `yaml:"serp" mapstructure:"serp"`
	Notion NotionRate `yaml:"notion" mapstructure:"notion"`
}

// SERPRate holds ranking-provider pricing.
type SERPRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// NotionRate holds Notion publishing pricing. Zero for standard plans; kept
// configurable for metered workspace integrations.
type NotionRate struct {
	PerPage float64 `yaml:"per_page" mapstructure:"per_page"`
}

// Estimate is the projected cost of one scan.
type Estimate struct {
	TotalPoints   int     `json:"total_points"`
	TotalCalls    int     `json:"total_calls"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Calculator computes costs for provider usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// PerQuery returns the flat cost per ranked search.
func (c *Calculator) PerQuery() float64 {
	return c.rates.SERP.PerQuery
}

// Scan projects the cost of a full scan: one ranked search per grid point
// per keyword.
func (c *Calculator) Scan(gridSize, keywordCount int) Estimate {
	return EstimateScan(gridSize, keywordCount, c.rates.SERP.PerQuery)
}

// Spent prices calls already made.
func (c *Calculator) Spent(apiCalls int) float64 {
	return float64(apiCalls) * c.rates.SERP.PerQuery
}

// EstimateScan is the pure arithmetic behind scan pricing:
// totalCalls = gridSize² x keywordCount.
func EstimateScan(gridSize, keywordCount int, costPerCall float64) Estimate {
	points := gridSize * gridSize
	calls := points * keywordCount
	return Estimate{
		TotalPoints:   points,
		TotalCalls:    calls,
		EstimatedCost: float64(calls) * costPerCall,
	}
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		SERP: SERPRate{PerQuery: 0.005},
	}
}
