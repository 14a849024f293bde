package debt

import "anteater/internal/config"

// CostCalculator prices debt items per spec.md §8's testable property:
// Cost = baseCost(type) x severityMultiplier(severity).
type CostCalculator struct {
	cfg config.DebtConfig
}

// NewCostCalculator builds a CostCalculator off the configured base costs
// and severity multipliers (spec.md §6's `debt.costs`/`debt.multipliers`).
func NewCostCalculator(cfg config.DebtConfig) *CostCalculator {
	return &CostCalculator{cfg: cfg}
}

// Price sets item.Cost in place and returns the priced item.
func (c *CostCalculator) Price(item Item) Item {
	item.Cost = c.baseCost(item.Type) * c.multiplier(item.Severity)
	return item
}

// PriceAll prices a slice of items. Sums over the result commute with item
// ordering since each item's cost depends only on its own type and severity.
func (c *CostCalculator) PriceAll(items []Item) []Item {
	priced := make([]Item, len(items))
	for i, item := range items {
		priced[i] = c.Price(item)
	}
	return priced
}

func (c *CostCalculator) baseCost(t Type) float64 {
	if cost, ok := c.cfg.Costs[string(t)]; ok {
		return cost
	}
	return 1
}

// multiplier reads the configured severity multiplier as-is, including a
// user-set 0 (a legitimate way to zero out a severity's cost entirely).
// config.DefaultConfig() is the only place spec.md §6's default multipliers
// (critical=4, high=2, medium=1, low=0.5) are encoded; a CostCalculator
// built from a config that skipped DefaultConfig gets zero multipliers, not
// a second, independently-drifting copy of those defaults here.
func (c *CostCalculator) multiplier(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return c.cfg.Multipliers.Critical
	case SeverityHigh:
		return c.cfg.Multipliers.High
	case SeverityMedium:
		return c.cfg.Multipliers.Medium
	default:
		return c.cfg.Multipliers.Low
	}
}

// TotalCost sums a set of priced items.
func TotalCost(items []Item) float64 {
	var total float64
	for _, item := range items {
		total += item.Cost
	}
	return total
}
