package debt

import "sort"

// Summary is the aggregated view of a set of priced items: totals plus the
// breakdowns spec.md §6's markdown report renders as separate sections.
type Summary struct {
	TotalItems      int
	TotalCost       float64
	ByType          map[Type]TypeBreakdown
	BySeverity      map[Severity]SeverityBreakdown
	Hotspots        []Hotspot
	CriticalItems   []Item
	HighItems       []Item
}

// TypeBreakdown is one Type's contribution to the total.
type TypeBreakdown struct {
	Type  Type
	Count int
	Cost  float64
}

// SeverityBreakdown is one Severity's contribution to the total.
type SeverityBreakdown struct {
	Severity Severity
	Count    int
	Cost     float64
}

// Hotspot is one file's aggregated debt, ranked by cost for the top-10 list.
type Hotspot struct {
	File  string
	Count int
	Cost  float64
}

// Aggregate builds a Summary from a (already priced) set of items. Item
// order does not affect any aggregate: every sum and count here is
// order-independent by construction.
func Aggregate(items []Item) Summary {
	s := Summary{
		ByType:     make(map[Type]TypeBreakdown),
		BySeverity: make(map[Severity]SeverityBreakdown),
	}

	fileCost := make(map[string]float64)
	fileCount := make(map[string]int)

	for _, item := range items {
		s.TotalItems++
		s.TotalCost += item.Cost

		tb := s.ByType[item.Type]
		tb.Type = item.Type
		tb.Count++
		tb.Cost += item.Cost
		s.ByType[item.Type] = tb

		sb := s.BySeverity[item.Severity]
		sb.Severity = item.Severity
		sb.Count++
		sb.Cost += item.Cost
		s.BySeverity[item.Severity] = sb

		fileCost[item.File] += item.Cost
		fileCount[item.File]++

		switch item.Severity {
		case SeverityCritical:
			s.CriticalItems = append(s.CriticalItems, item)
		case SeverityHigh:
			s.HighItems = append(s.HighItems, item)
		}
	}

	for file, cost := range fileCost {
		s.Hotspots = append(s.Hotspots, Hotspot{File: file, Count: fileCount[file], Cost: cost})
	}
	sort.Slice(s.Hotspots, func(i, j int) bool {
		if s.Hotspots[i].Cost != s.Hotspots[j].Cost {
			return s.Hotspots[i].Cost > s.Hotspots[j].Cost
		}
		return s.Hotspots[i].File < s.Hotspots[j].File
	})
	if len(s.Hotspots) > 10 {
		s.Hotspots = s.Hotspots[:10]
	}

	sort.Slice(s.CriticalItems, func(i, j int) bool { return s.CriticalItems[i].Cost > s.CriticalItems[j].Cost })
	sort.Slice(s.HighItems, func(i, j int) bool { return s.HighItems[i].Cost > s.HighItems[j].Cost })

	return s
}

// ExceedsThreshold reports whether the summary's total cost breaches the
// configured unit threshold (spec.md §6's `debt.threshold`).
func (s Summary) ExceedsThreshold(threshold float64) bool {
	return s.TotalCost > threshold
}
