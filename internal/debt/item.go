// Package debt detects, costs, and reports technical-debt items per
// spec.md §2/§6/§8's debt subsystem.
package debt

// Severity is a debt item's priority band; multipliers for each are
// configured under `debt.multipliers` (spec.md §6).
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Type names the debt category; each maps to a base cost under
// `debt.costs` (spec.md §6).
type Type string

const (
	TypeTodo               Type = "todo"
	TypeFixme              Type = "fixme"
	TypeIgnore             Type = "ignore"
	TypeIgnoreForFile      Type = "ignore-for-file"
	TypeAsDynamic          Type = "as-dynamic"
	TypeDeprecated         Type = "deprecated"
	TypeLowMaintainability Type = "low-maintainability"
	TypeHighComplexity     Type = "high-complexity"
	TypeLongMethod         Type = "long-method"
	TypeDuplicateCode      Type = "duplicate-code"
)

// Item is one detected unit of technical debt.
type Item struct {
	Type     Type     `json:"type"`
	Severity Severity `json:"severity"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
	Cost     float64  `json:"cost"`
}
