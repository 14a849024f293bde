package facts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"anteater/internal/datalog"
	"anteater/internal/ir"
)

func hasTuple(tuples []datalog.Tuple, relation string, args ...any) bool {
	for _, t := range tuples {
		if t.Relation != relation || len(t.Args) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if t.Args[i] != args[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func countRelation(tuples []datalog.Tuple, relation string) int {
	n := 0
	for _, t := range tuples {
		if t.Relation == relation {
			n++
		}
	}
	return n
}

func simpleFn(name string, build func(cfg *ir.ControlFlowGraph)) *ir.FunctionIr {
	cfg := ir.NewControlFlowGraph(name)
	build(cfg)
	return &ir.FunctionIr{QualifiedName: name, CFG: cfg}
}

func TestExtractSkipsSkippedAndEmptyFunctions(t *testing.T) {
	e := NewExtractor()
	require.Nil(t, e.ExtractFunction(nil))
	require.Nil(t, e.ExtractFunction(&ir.FunctionIr{Skipped: true}))
	require.Nil(t, e.ExtractFunction(&ir.FunctionIr{}))
}

func TestExtractFlowAndReachable(t *testing.T) {
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		b2 := cfg.NewBlock()
		cfg.AddEdge(cfg.Entry, b2)
		cfg.Block(cfg.Entry).Append(ir.NewJump(0, b2))
	})
	tuples := NewExtractor().ExtractFunction(fn)
	require.True(t, hasTuple(tuples, "Reachable", int(fn.CFG.Entry)))
	require.True(t, hasTuple(tuples, "Flow", int(fn.CFG.Entry), 1))
}

func TestExtractAssignCopy(t *testing.T) {
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewAssign(0,
			ir.Variable{Name: "y", Version: 1},
			ir.VariableRef{Var: ir.Variable{Name: "x", Version: 0}}))
	})
	e := NewExtractor()
	tuples := e.ExtractFunction(fn)
	yID := e.varID("f", ir.Variable{Name: "y", Version: 1})
	xID := e.varID("f", ir.Variable{Name: "x", Version: 0})
	require.True(t, hasTuple(tuples, "Assign", yID, xID))
}

func TestExtractNewObjectEmitsAssignAndAlloc(t *testing.T) {
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewAssign(42,
			ir.Variable{Name: "obj", Version: 1},
			ir.NewObject{Type: "Widget"}))
	})
	e := NewExtractor()
	tuples := e.ExtractFunction(fn)
	objID := e.varID("f", ir.Variable{Name: "obj", Version: 1})
	siteID := -43 // -(offset 42 + 1)
	require.True(t, hasTuple(tuples, "Assign", objID, siteID))
	require.True(t, hasTuple(tuples, "Alloc", siteID, "Widget#1"))
}

func TestExtractNewObjectCounterIncrementsPerType(t *testing.T) {
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewAssign(1, ir.Variable{Name: "a", Version: 1}, ir.NewObject{Type: "Widget"}))
		cfg.Block(cfg.Entry).Append(ir.NewAssign(2, ir.Variable{Name: "b", Version: 1}, ir.NewObject{Type: "Widget"}))
	})
	tuples := NewExtractor().ExtractFunction(fn)
	require.True(t, hasTuple(tuples, "Alloc", -2, "Widget#1"))
	require.True(t, hasTuple(tuples, "Alloc", -3, "Widget#2"))
}

func TestExtractCallFacts(t *testing.T) {
	result := ir.Variable{Name: "r", Version: 1}
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewCallInstr(5,
			ir.VariableRef{Var: ir.Variable{Name: "recv", Version: 0}}, "doThing", nil, &result))
	})
	e := NewExtractor()
	tuples := e.ExtractFunction(fn)
	recvID := e.varID("f", ir.Variable{Name: "recv", Version: 0})
	resultID := e.varID("f", result)
	require.True(t, hasTuple(tuples, "Call", 5, recvID, "doThing", resultID))
}

func TestExtractStaticCallHasNegativeOneReceiver(t *testing.T) {
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewCallInstr(5, nil, "staticFn", nil, nil))
	})
	tuples := NewExtractor().ExtractFunction(fn)
	require.True(t, hasTuple(tuples, "Call", 5, -1, "staticFn", -1))
}

func TestExtractLoadStoreFieldFacts(t *testing.T) {
	base := ir.Variable{Name: "base", Version: 0}
	result := ir.Variable{Name: "r", Version: 1}
	val := ir.Variable{Name: "v", Version: 0}
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewLoadField(1, ir.VariableRef{Var: base}, "name", result))
		cfg.Block(cfg.Entry).Append(ir.NewStoreField(2, ir.VariableRef{Var: base}, "name", ir.VariableRef{Var: val}))
	})
	e := NewExtractor()
	tuples := e.ExtractFunction(fn)
	baseID := e.varID("f", base)
	resultID := e.varID("f", result)
	valID := e.varID("f", val)
	require.True(t, hasTuple(tuples, "LoadField", baseID, "name", resultID))
	require.True(t, hasTuple(tuples, "StoreField", baseID, "name", valID))
}

func TestExtractIndexOpsReuseBracketField(t *testing.T) {
	base := ir.Variable{Name: "arr", Version: 0}
	idx := ir.Variable{Name: "i", Version: 0}
	result := ir.Variable{Name: "r", Version: 1}
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewLoadIndex(1, ir.VariableRef{Var: base}, ir.VariableRef{Var: idx}, result))
	})
	e := NewExtractor()
	tuples := e.ExtractFunction(fn)
	baseID := e.varID("f", base)
	resultID := e.varID("f", result)
	require.True(t, hasTuple(tuples, "LoadField", baseID, "[]", resultID))
}

func TestExtractPhiEmitsAssignPerOperand(t *testing.T) {
	target := ir.Variable{Name: "x", Version: 3}
	op1 := ir.Variable{Name: "x", Version: 1}
	op2 := ir.Variable{Name: "x", Version: 2}
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		phi := ir.NewPhiInstr(0, target)
		phi.Operands[0] = ir.VariableRef{Var: op1}
		phi.Operands[1] = ir.VariableRef{Var: op2}
		cfg.Block(cfg.Entry).Append(phi)
	})
	e := NewExtractor()
	tuples := e.ExtractFunction(fn)
	require.Equal(t, 2, countRelation(tuples, "Assign"))
	require.True(t, hasTuple(tuples, "Assign", e.varID("f", target), e.varID("f", op1)))
	require.True(t, hasTuple(tuples, "Assign", e.varID("f", target), e.varID("f", op2)))
}

func TestExtractAwaitIsModeledAsCopy(t *testing.T) {
	future := ir.Variable{Name: "fut", Version: 0}
	result := ir.Variable{Name: "r", Version: 1}
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewAwait(0, ir.VariableRef{Var: future}, result))
	})
	e := NewExtractor()
	tuples := e.ExtractFunction(fn)
	require.True(t, hasTuple(tuples, "Assign", e.varID("f", result), e.varID("f", future)))
}

func TestExtractControlFlowOnlyInstructionsProduceNoFacts(t *testing.T) {
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewReturn(0, nil))
	})
	tuples := NewExtractor().ExtractFunction(fn)
	// only the base Reachable fact, nothing from the Return itself
	require.Len(t, tuples, 1)
	require.Equal(t, "Reachable", tuples[0].Relation)
}

func TestExtractPrimitiveBinaryOpProducesNoFacts(t *testing.T) {
	fn := simpleFn("f", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewAssign(0, ir.Variable{Name: "z", Version: 1},
			ir.BinaryOp{Op: "+", Left: ir.VariableRef{Var: ir.Variable{Name: "a"}}, Right: ir.VariableRef{Var: ir.Variable{Name: "b"}}}))
	})
	tuples := NewExtractor().ExtractFunction(fn)
	require.Equal(t, 0, countRelation(tuples, "Assign"))
}

func TestVariablesCanonicalizeAcrossFunctionsWithoutCollision(t *testing.T) {
	e := NewExtractor()
	fn1 := simpleFn("f1", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewAssign(0, ir.Variable{Name: "x", Version: 1}, ir.Constant{}))
	})
	fn2 := simpleFn("f2", func(cfg *ir.ControlFlowGraph) {
		cfg.Block(cfg.Entry).Append(ir.NewAssign(0, ir.Variable{Name: "x", Version: 1}, ir.Constant{}))
	})
	e.ExtractFunction(fn1)
	e.ExtractFunction(fn2)
	id1 := e.varID("f1", ir.Variable{Name: "x", Version: 1})
	id2 := e.varID("f2", ir.Variable{Name: "x", Version: 1})
	require.NotEqual(t, id1, id2)
}
