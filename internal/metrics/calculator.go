// Package metrics computes the per-function and per-file software-quality
// metrics of spec.md §2 (cyclomatic/cognitive complexity, Halstead volume,
// maintainability index) directly off the lowered IR, plus the raw
// line-classification counts (code/comment/blank) the teacher's own metrics
// pass derives from source text since those have no IR representation.
package metrics

import (
	"strings"

	"anteater/internal/config"
	"anteater/internal/ir"
	"anteater/internal/logging"
)

// FunctionMetrics is one function/method/constructor's measured set.
type FunctionMetrics struct {
	Name                  string
	File                  string
	StartLine             int
	EndLine               int
	LinesOfCode           int
	Parameters            int
	Cyclomatic            int
	Cognitive             int
	MaxNesting            int
	Halstead              HalsteadReport
	MaintainabilityIndex  float64
	Skipped               bool // empty body, spec.md §9: nothing to analyze
}

// FileMetrics aggregates one file's function metrics plus raw line counts.
type FileMetrics struct {
	Path          string
	Functions     []FunctionMetrics
	TotalLines    int
	CodeLines     int
	CommentLines  int
	BlankLines    int
	MethodCount   int
}

// ProjectMetrics aggregates every analyzed file.
type ProjectMetrics struct {
	Files                  []FileMetrics
	FunctionCount          int
	CyclomaticAvg          float64
	CyclomaticMax          int
	CognitiveAvg           float64
	CognitiveMax           int
	MaintainabilityAvg     float64
}

// Calculator computes metrics against a configured set of thresholds
// (spec.md §6's `metrics.*` keys).
type Calculator struct {
	Thresholds config.MetricsThresholds
}

// NewCalculator returns a Calculator bound to the given thresholds.
func NewCalculator(thresholds config.MetricsThresholds) *Calculator {
	return &Calculator{Thresholds: thresholds}
}

// CalculateFunction measures one FunctionIr. source is the file's full
// content, used only for the line-offset based LinesOfCode count — every
// other measure comes directly off the CFG. A skipped (empty-body)
// function returns a metrics record with every structural measure at its
// trivial value and Skipped set, never a nil CFG panic.
func (c *Calculator) CalculateFunction(fn *ir.FunctionIr, source []byte) FunctionMetrics {
	startLine := lineAt(source, fn.StartOffset)
	endLine := lineAt(source, fn.EndOffset)

	fm := FunctionMetrics{
		Name:        fn.QualifiedName,
		File:        fn.SourceFile,
		StartLine:   startLine,
		EndLine:     endLine,
		LinesOfCode: endLine - startLine + 1,
		Parameters:  len(fn.Parameters),
		Skipped:     fn.Skipped,
	}

	if fn.Skipped || fn.CFG == nil {
		fm.Cyclomatic = 1
		fm.MaintainabilityIndex = MaintainabilityIndex(1, 1, fm.LinesOfCode)
		return fm
	}

	fm.Cyclomatic = CyclomaticComplexity(fn.CFG)
	fm.Cognitive = CognitiveComplexity(fn.CFG)
	fm.MaxNesting = MaxNesting(fn.CFG)
	fm.Halstead = ComputeHalstead(fn.CFG)
	fm.MaintainabilityIndex = MaintainabilityIndex(fm.Halstead.Volume, fm.Cyclomatic, fm.LinesOfCode)
	return fm
}

// CalculateFile measures every function in file and the file's raw line
// counts.
func (c *Calculator) CalculateFile(file *ir.FileIr, source []byte) FileMetrics {
	log := logging.Get(logging.CategoryMetrics)
	fm := FileMetrics{Path: file.Path}

	for _, fn := range file.AllFunctions() {
		fm.Functions = append(fm.Functions, c.CalculateFunction(fn, source))
	}
	fm.MethodCount = len(fm.Functions)

	total, code, comment, blank := classifyLines(source)
	fm.TotalLines, fm.CodeLines, fm.CommentLines, fm.BlankLines = total, code, comment, blank

	log.Debug("metrics: %s — %d functions, %d total lines", file.Path, fm.MethodCount, fm.TotalLines)
	return fm
}

// CalculateProject aggregates a set of already-computed FileMetrics.
func (c *Calculator) CalculateProject(files []FileMetrics) ProjectMetrics {
	pm := ProjectMetrics{Files: files}

	var ccSum, cogSum, miSum float64
	var n int
	for _, f := range files {
		for _, fn := range f.Functions {
			if fn.Skipped {
				continue
			}
			n++
			ccSum += float64(fn.Cyclomatic)
			cogSum += float64(fn.Cognitive)
			miSum += fn.MaintainabilityIndex
			if fn.Cyclomatic > pm.CyclomaticMax {
				pm.CyclomaticMax = fn.Cyclomatic
			}
			if fn.Cognitive > pm.CognitiveMax {
				pm.CognitiveMax = fn.Cognitive
			}
		}
		pm.FunctionCount += f.MethodCount
	}
	if n > 0 {
		pm.CyclomaticAvg = ccSum / float64(n)
		pm.CognitiveAvg = cogSum / float64(n)
		pm.MaintainabilityAvg = miSum / float64(n)
	}
	return pm
}

// Violations reports which of fm's measures exceed the configured
// thresholds, by threshold name (spec.md §6's key names, for report/debt
// consumers that key off them).
func (c *Calculator) Violations(fm FunctionMetrics) []string {
	if fm.Skipped {
		return nil
	}
	var out []string
	t := c.Thresholds
	if fm.Cyclomatic > t.CyclomaticComplexity {
		out = append(out, "cyclomatic-complexity")
	}
	if fm.Cognitive > t.CognitiveComplexity {
		out = append(out, "cognitive-complexity")
	}
	if int(fm.MaintainabilityIndex) < t.MaintainabilityIndex {
		out = append(out, "maintainability-index")
	}
	if fm.LinesOfCode > t.SourceLinesOfCode {
		out = append(out, "source-lines-of-code")
	}
	if fm.MaxNesting > t.MaximumNesting {
		out = append(out, "maximum-nesting")
	}
	if fm.Parameters > t.NumberOfParameters {
		out = append(out, "number-of-parameters")
	}
	if int(fm.Halstead.Volume) > t.HalsteadVolume {
		out = append(out, "halstead-volume")
	}
	return out
}

// lineAt returns the 1-based line number containing byte offset in source.
func lineAt(source []byte, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(source) {
		offset = len(source)
	}
	return 1 + strings.Count(string(source[:offset]), "\n")
}

// classifyLines counts total/code/comment/blank lines using //-line and
// /* */-block comment conventions (spec.md targets one C-family-flavored
// language; the teacher's multi-dialect detection doesn't apply here since
// there is exactly one source language, not many).
func classifyLines(source []byte) (total, code, comment, blank int) {
	lines := strings.Split(string(source), "\n")
	total = len(lines)
	inBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			blank++
		case inBlock:
			comment++
			if strings.Contains(trimmed, "*/") {
				inBlock = false
			}
		case strings.HasPrefix(trimmed, "//"):
			comment++
		case strings.HasPrefix(trimmed, "/*"):
			comment++
			if !strings.Contains(trimmed, "*/") {
				inBlock = true
			}
		default:
			code++
		}
	}
	return total, code, comment, blank
}
