package debt

import (
	"encoding/json"
	"fmt"
	"strings"
)

var typeOrder = []Type{
	TypeTodo, TypeFixme, TypeIgnore, TypeIgnoreForFile, TypeAsDynamic,
	TypeDeprecated, TypeLowMaintainability, TypeHighComplexity, TypeLongMethod, TypeDuplicateCode,
}

var severityOrder = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Report bundles a priced item list with its aggregate for rendering.
type Report struct {
	Items   []Item  `json:"items"`
	Summary Summary `json:"-"`
}

// RenderJSON marshals the full item list, one object per item — a
// consumer wanting aggregates can recompute them with Aggregate.
func RenderJSON(items []Item) ([]byte, error) {
	return json.MarshalIndent(items, "", "  ")
}

// RenderText renders a flat, greppable one-line-per-item report followed by
// a plain-text summary.
func RenderText(items []Item) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s:%d [%s/%s] %s (cost %.1f)\n", item.File, item.Line, item.Type, item.Severity, item.Message, item.Cost)
	}
	s := Aggregate(items)
	fmt.Fprintf(&b, "\n%d items, total cost %.1f\n", s.TotalItems, s.TotalCost)
	return b.String()
}

// RenderMarkdown renders the fixed-header markdown report (spec.md §6): a
// Summary, breakdowns by type and by severity, the top 10 cost hotspots,
// and the critical/high item listings in full.
func RenderMarkdown(items []Item) string {
	s := Aggregate(items)
	var b strings.Builder

	b.WriteString("# Technical Debt Report\n\n")

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total items: %d\n", s.TotalItems)
	fmt.Fprintf(&b, "- Total cost: %.1f\n\n", s.TotalCost)

	b.WriteString("## Breakdown by Type\n\n")
	b.WriteString("| Type | Count | Cost |\n|---|---|---|\n")
	for _, t := range typeOrder {
		tb, ok := s.ByType[t]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %.1f |\n", tb.Type, tb.Count, tb.Cost)
	}
	b.WriteString("\n")

	b.WriteString("## Breakdown by Severity\n\n")
	b.WriteString("| Severity | Count | Cost |\n|---|---|---|\n")
	for _, sev := range severityOrder {
		sb, ok := s.BySeverity[sev]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %.1f |\n", sb.Severity, sb.Count, sb.Cost)
	}
	b.WriteString("\n")

	b.WriteString("## Hotspots (Top 10 Files)\n\n")
	if len(s.Hotspots) == 0 {
		b.WriteString("None.\n\n")
	} else {
		b.WriteString("| File | Count | Cost |\n|---|---|---|\n")
		for _, h := range s.Hotspots {
			fmt.Fprintf(&b, "| %s | %d | %.1f |\n", h.File, h.Count, h.Cost)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Critical Items\n\n")
	writeItemList(&b, s.CriticalItems)

	b.WriteString("## High Priority Items\n\n")
	writeItemList(&b, s.HighItems)

	return b.String()
}

func writeItemList(b *strings.Builder, items []Item) {
	if len(items) == 0 {
		b.WriteString("None.\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- `%s:%d` **%s** — %s (cost %.1f)\n", item.File, item.Line, item.Type, item.Message, item.Cost)
	}
	b.WriteString("\n")
}
