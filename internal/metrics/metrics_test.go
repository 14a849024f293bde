package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"anteater/internal/config"
	"anteater/internal/ir"
)

func constInt(n int64) ir.Value { return ir.Constant{Literal: ir.Literal{Kind: ir.LiteralInt, Int: n}} }
func ref(name string) ir.Value { return ir.VariableRef{Var: ir.Variable{Name: name, Version: 0}} }
func v(name string) ir.Variable { return ir.Variable{Name: name, Version: 0} }

func straightLineCFG() *ir.ControlFlowGraph {
	cfg := ir.NewControlFlowGraph("f")
	entry := cfg.Block(cfg.Entry)
	entry.Append(ir.NewAssign(0, v("x"), constInt(1)))
	entry.Append(ir.NewReturn(1, ref("x")))
	return cfg
}

func diamondCFG() *ir.ControlFlowGraph {
	cfg := ir.NewControlFlowGraph("f")
	then := cfg.NewBlock()
	els := cfg.NewBlock()
	merge := cfg.NewBlock()
	cfg.AddEdge(cfg.Entry, then)
	cfg.AddEdge(cfg.Entry, els)
	cfg.AddEdge(then, merge)
	cfg.AddEdge(els, merge)

	cfg.Block(cfg.Entry).Append(ir.NewBranch(0, ref("cond"), then, els))
	cfg.Block(then).Append(ir.NewJump(1, merge))
	cfg.Block(els).Append(ir.NewJump(2, merge))
	cfg.Block(merge).Append(ir.NewReturn(3, nil))
	return cfg
}

func TestCyclomaticComplexityStraightLine(t *testing.T) {
	require.Equal(t, 1, CyclomaticComplexity(straightLineCFG()))
}

func TestCyclomaticComplexityDiamond(t *testing.T) {
	// 4 blocks, 4 edges: E - N + 2 = 4 - 4 + 2 = 2.
	require.Equal(t, 2, CyclomaticComplexity(diamondCFG()))
}

func TestCyclomaticComplexityNilCFGIsOne(t *testing.T) {
	require.Equal(t, 1, CyclomaticComplexity(nil))
}

func TestCognitiveComplexitySingleBranch(t *testing.T) {
	require.Equal(t, 1, CognitiveComplexity(diamondCFG()))
}

func TestCognitiveComplexityNestedBranchCostsMore(t *testing.T) {
	cfg := ir.NewControlFlowGraph("f")
	outerThen := cfg.NewBlock()
	outerElse := cfg.NewBlock()
	innerThen := cfg.NewBlock()
	innerElse := cfg.NewBlock()
	innerMerge := cfg.NewBlock()
	exit := cfg.NewBlock()

	cfg.AddEdge(cfg.Entry, outerThen)
	cfg.AddEdge(cfg.Entry, outerElse)
	cfg.AddEdge(outerThen, innerThen)
	cfg.AddEdge(outerThen, innerElse)
	cfg.AddEdge(innerThen, innerMerge)
	cfg.AddEdge(innerElse, innerMerge)
	cfg.AddEdge(innerMerge, exit)
	cfg.AddEdge(outerElse, exit)

	cfg.Block(cfg.Entry).Append(ir.NewBranch(0, ref("a"), outerThen, outerElse))
	cfg.Block(outerThen).Append(ir.NewBranch(1, ref("b"), innerThen, innerElse))
	cfg.Block(outerElse).Append(ir.NewJump(2, exit))
	cfg.Block(innerThen).Append(ir.NewJump(3, innerMerge))
	cfg.Block(innerElse).Append(ir.NewJump(4, innerMerge))
	cfg.Block(innerMerge).Append(ir.NewJump(5, exit))
	cfg.Block(exit).Append(ir.NewReturn(6, nil))

	// Outer branch costs 1 (depth 0); inner branch is nested one level
	// inside the outer branch's then-arm, costing 1 + 1 = 2. Total 3.
	require.Equal(t, 3, CognitiveComplexity(cfg))
	require.Equal(t, 2, MaxNesting(cfg))
}

func TestHalsteadCountsOperatorsAndOperands(t *testing.T) {
	cfg := ir.NewControlFlowGraph("f")
	entry := cfg.Block(cfg.Entry)
	entry.Append(ir.NewAssign(0, v("x"), constInt(5)))
	entry.Append(ir.NewAssign(1, v("y"), constInt(3)))
	entry.Append(ir.NewAssign(2, v("z"), ir.BinaryOp{Op: "+", Left: ref("x"), Right: ref("y")}))
	entry.Append(ir.NewReturn(3, ref("z")))

	report := ComputeHalstead(cfg)
	// Operators: "=" (x3 assigns), "+", "return" => 3 distinct, 5 total.
	require.Equal(t, 3, report.DistinctOperators)
	require.Equal(t, 5, report.TotalOperators)
	// Operands: var:x, var:y, var:z, lit:int => 4 distinct.
	// Occurrences: x (target+use)=2, y(target+use)=2, z(target+use)=2, lit:int=2 => 8.
	require.Equal(t, 4, report.DistinctOperands)
	require.Equal(t, 8, report.TotalOperands)
	require.Greater(t, report.Volume, 0.0)
}

func TestHalsteadNilCFGIsZero(t *testing.T) {
	report := ComputeHalstead(nil)
	require.Equal(t, 0, report.DistinctOperators)
	require.Equal(t, 0.0, report.Volume)
}

func TestMaintainabilityIndexClampedToRange(t *testing.T) {
	require.InDelta(t, 100, MaintainabilityIndex(1, 1, 1), 0.5)
	require.GreaterOrEqual(t, MaintainabilityIndex(100000, 500, 100000), 0.0)
}

func TestCalculateFunctionSkippedFunctionHasTrivialMeasures(t *testing.T) {
	fn := &ir.FunctionIr{
		QualifiedName: "Empty.ctor",
		SourceFile:    "a.dart",
		StartOffset:   0,
		EndOffset:     10,
		Skipped:       true,
		CFG:           nil,
	}
	calc := NewCalculator(config.DefaultConfig().Metrics)
	fm := calc.CalculateFunction(fn, []byte("class Empty {\n  Empty();\n}\n"))
	require.True(t, fm.Skipped)
	require.Equal(t, 1, fm.Cyclomatic)
	require.Empty(t, calc.Violations(fm))
}

func TestCalculateFunctionMeasuresCyclomaticAndLOC(t *testing.T) {
	source := []byte("line0\nline1\nline2\nline3\n")
	fn := &ir.FunctionIr{
		QualifiedName: "f",
		SourceFile:    "a.dart",
		StartOffset:   0, // start of "line0", 1-based line 1
		EndOffset:     17, // newline ending "line2", 1-based line 3
		Parameters:    []ir.Variable{{Name: "a"}, {Name: "b"}},
		CFG:           diamondCFG(),
	}
	calc := NewCalculator(config.DefaultConfig().Metrics)
	fm := calc.CalculateFunction(fn, source)
	require.Equal(t, 2, fm.Cyclomatic)
	require.Equal(t, 2, fm.Parameters)
	require.Equal(t, 1, fm.StartLine)
	require.True(t, fm.EndLine >= fm.StartLine)
}

func TestViolationsFlagsExceededThresholds(t *testing.T) {
	thresholds := config.MetricsThresholds{
		CyclomaticComplexity: 1,
		CognitiveComplexity:  20,
		MaintainabilityIndex: 0,
		SourceLinesOfCode:    1000,
		MaximumNesting:       10,
		NumberOfParameters:   10,
		HalsteadVolume:       100000,
	}
	calc := NewCalculator(thresholds)
	fm := FunctionMetrics{Cyclomatic: 5, MaintainabilityIndex: 80}
	require.Contains(t, calc.Violations(fm), "cyclomatic-complexity")
}

func TestClassifyLinesCountsCodeCommentBlank(t *testing.T) {
	source := []byte("// a comment\nint x = 1;\n\n/* block\n still block */\nint y = 2;\n")
	total, code, comment, blank := classifyLines(source)
	require.Equal(t, 7, total) // trailing split produces an empty final element
	require.Equal(t, 2, code)
	require.Equal(t, 3, comment)
	require.Equal(t, 2, blank)
}

func TestCalculateFileAggregatesFunctionsAndLineCounts(t *testing.T) {
	source := []byte("// header\nclass C {\n  void f() {}\n}\n")
	file := &ir.FileIr{
		Path: "a.dart",
		Classes: []*ir.ClassIr{
			{
				Name: "C",
				Methods: []*ir.FunctionIr{
					{QualifiedName: "C.f", SourceFile: "a.dart", Skipped: true, StartOffset: 0, EndOffset: 5},
				},
			},
		},
	}
	calc := NewCalculator(config.DefaultConfig().Metrics)
	fm := calc.CalculateFile(file, source)
	require.Equal(t, 1, fm.MethodCount)
	require.Equal(t, 1, fm.CommentLines)
}

func TestCalculateProjectAveragesAcrossFiles(t *testing.T) {
	calc := NewCalculator(config.DefaultConfig().Metrics)
	files := []FileMetrics{
		{Functions: []FunctionMetrics{{Cyclomatic: 2, Cognitive: 1, MaintainabilityIndex: 90}}},
		{Functions: []FunctionMetrics{{Cyclomatic: 4, Cognitive: 3, MaintainabilityIndex: 70}}},
	}
	pm := calc.CalculateProject(files)
	require.Equal(t, 4, pm.CyclomaticMax)
	require.InDelta(t, 3.0, pm.CyclomaticAvg, 0.001)
	require.InDelta(t, 80.0, pm.MaintainabilityAvg, 0.001)
}
