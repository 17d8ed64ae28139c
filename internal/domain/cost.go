package domain

import "math"

// Currency of all cost figures.
const Currency = "USD"

// CostInfo is the per-project generation ledger. Counters only grow; EstimatedCost is
// always derived from them.
type CostInfo struct {
	TotalImages      int     `yaml:"total_images"`
	StyleGenerations int     `yaml:"style_generations"`
	SlideGenerations int     `yaml:"slide_generations"`
	EstimatedCost    float64 `yaml:"estimated_cost"`
}

// Pricing holds unit prices.
type Pricing struct {
	PerStyleImage float64
	PerSlideImage float64
}

// CostBreakdown splits the estimate by generation kind.
type CostBreakdown struct {
	StyleCost  float64 `json:"style_cost"`
	SlidesCost float64 `json:"slides_cost"`
}

// Breakdown returns counters × unit price per kind.
func (p Pricing) Breakdown(c CostInfo) CostBreakdown {
	return CostBreakdown{
		StyleCost:  roundCents(float64(c.StyleGenerations) * p.PerStyleImage),
		SlidesCost: roundCents(float64(c.SlideGenerations) * p.PerSlideImage),
	}
}

// Estimate returns the total estimated cost for c.
func (p Pricing) Estimate(c CostInfo) float64 {
	b := p.Breakdown(c)
	return roundCents(b.StyleCost + b.SlidesCost)
}

// RecordStyle counts n style images and refreshes the estimate.
func (c *CostInfo) RecordStyle(n int, p Pricing) {
	if n <= 0 {
		return
	}
	c.StyleGenerations += n
	c.TotalImages += n
	c.EstimatedCost = p.Estimate(*c)
}

// RecordSlide counts one slide image and refreshes the estimate.
func (c *CostInfo) RecordSlide(p Pricing) {
	c.SlideGenerations++
	c.TotalImages++
	c.EstimatedCost = p.Estimate(*c)
}

// Normalize clamps negative counters read from disk and recomputes the estimate.
func (c *CostInfo) Normalize(p Pricing) {
	c.TotalImages = max(c.TotalImages, 0)
	c.StyleGenerations = max(c.StyleGenerations, 0)
	c.SlideGenerations = max(c.SlideGenerations, 0)
	c.EstimatedCost = p.Estimate(*c)
}

// roundCents trims float noise to 4 decimal places; unit prices are fractions of a cent.
func roundCents(v float64) float64 {
	return math.Round(v*10000) / 10000
}
