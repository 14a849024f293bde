package debt

import (
	"fmt"

	"anteater/internal/config"
	"anteater/internal/metrics"
)

// DetectMetrics turns per-function metric gate breaches into debt items
// (spec.md §2's low-maintainability/high-complexity/long-method categories).
// gates come from config.DebtConfig.Metrics, a separate (usually looser) set
// of thresholds from the ones `metrics.Calculator` enforces as plain
// violations — a function can fail a metrics threshold without yet being
// expensive enough to count as debt.
func DetectMetrics(fm metrics.FunctionMetrics, gates config.DebtMetricGates) []Item {
	if fm.Skipped {
		return nil
	}
	var items []Item

	if fm.MaintainabilityIndex < gates.MaintainabilityIndex {
		items = append(items, Item{
			Type:     TypeLowMaintainability,
			Severity: severityForMaintainability(fm.MaintainabilityIndex, gates.MaintainabilityIndex),
			File:     fm.File,
			Line:     fm.StartLine,
			Message:  fmt.Sprintf("%s has maintainability index %.1f, below %.1f", fm.Name, fm.MaintainabilityIndex, gates.MaintainabilityIndex),
		})
	}

	if fm.Cyclomatic > gates.CyclomaticComplexity || fm.Cognitive > gates.CognitiveComplexity {
		items = append(items, Item{
			Type:     TypeHighComplexity,
			Severity: severityForComplexity(fm.Cyclomatic, fm.Cognitive, gates),
			File:     fm.File,
			Line:     fm.StartLine,
			Message:  fmt.Sprintf("%s has cyclomatic complexity %d, cognitive complexity %d", fm.Name, fm.Cyclomatic, fm.Cognitive),
		})
	}

	if fm.LinesOfCode > gates.LinesOfCode {
		items = append(items, Item{
			Type:     TypeLongMethod,
			Severity: severityForLength(fm.LinesOfCode, gates.LinesOfCode),
			File:     fm.File,
			Line:     fm.StartLine,
			Message:  fmt.Sprintf("%s is %d lines, over %d", fm.Name, fm.LinesOfCode, gates.LinesOfCode),
		})
	}

	return items
}

// severityForMaintainability escalates the further the index falls below
// the configured gate.
func severityForMaintainability(index, gate float64) Severity {
	deficit := gate - index
	switch {
	case deficit >= 30:
		return SeverityCritical
	case deficit >= 15:
		return SeverityHigh
	case deficit >= 5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func severityForComplexity(cyclomatic, cognitive int, gates config.DebtMetricGates) Severity {
	ccOver := ratioOver(cyclomatic, gates.CyclomaticComplexity)
	cogOver := ratioOver(cognitive, gates.CognitiveComplexity)
	return severityForRatio(maxFloat(ccOver, cogOver))
}

func severityForLength(loc, gate int) Severity {
	return severityForRatio(ratioOver(loc, gate))
}

func ratioOver(value, gate int) float64 {
	if gate <= 0 {
		return 1
	}
	return float64(value) / float64(gate)
}

func severityForRatio(ratio float64) Severity {
	switch {
	case ratio >= 3:
		return SeverityCritical
	case ratio >= 2:
		return SeverityHigh
	case ratio >= 1.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
