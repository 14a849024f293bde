package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"anteater/internal/ir"
)

func v(name string) ir.Value { return ir.VariableRef{Var: ir.Variable{Name: name, Version: ir.NoVersion}} }
func constInt(n int64) ir.Value {
	return ir.Constant{Literal: ir.Literal{Kind: ir.LiteralInt, Int: n}}
}

// every (name,version) pair should have exactly one defining instruction
// across the whole function (spec.md I4).
func assertSingleAssignment(t *testing.T, cfg *ir.ControlFlowGraph) {
	t.Helper()
	defs := map[ir.Variable]int{}
	record := func(target ir.Variable) { defs[target]++ }
	for _, blk := range cfg.Blocks() {
		for _, instr := range blk.Instructions {
			switch in := instr.(type) {
			case ir.Assign:
				record(in.Target)
			case ir.CallInstr:
				if in.Result != nil {
					record(*in.Result)
				}
			case ir.LoadField:
				record(in.Result)
			case ir.LoadIndex:
				record(in.Result)
			case ir.NullCheck:
				record(in.Result)
			case ir.Cast:
				record(in.Result)
			case ir.TypeCheck:
				record(in.Result)
			case ir.Await:
				record(in.Result)
			case ir.PhiInstr:
				record(in.Target)
			}
		}
	}
	for target, count := range defs {
		require.Equalf(t, 1, count, "variable %+v defined %d times, want 1", target, count)
	}
}

func assertNoTrivialPhi(t *testing.T, cfg *ir.ControlFlowGraph) {
	t.Helper()
	for _, blk := range cfg.Blocks() {
		for _, phi := range blk.Phis() {
			var unique ir.Value
			for _, op := range phi.Operands {
				if vr, ok := op.(ir.VariableRef); ok && vr.Var == phi.Target {
					continue
				}
				if unique == nil {
					unique = op
					continue
				}
				require.NotEqualf(t, unique, op, "trivial phi %+v survived construction", phi.Target)
			}
		}
	}
}

func TestStraightLineSingleAssignment(t *testing.T) {
	cfg := ir.NewControlFlowGraph("f")
	entry := cfg.Block(cfg.Entry)
	entry.Append(ir.NewAssign(0, ir.Variable{Name: "x", Version: ir.NoVersion}, constInt(1)))
	entry.Append(ir.NewAssign(1, ir.Variable{Name: "y", Version: ir.NoVersion}, ir.BinaryOp{Op: "+", Left: v("x"), Right: constInt(1)}))

	warnings := Construct(cfg, nil)
	require.Empty(t, warnings)
	assertSingleAssignment(t, cfg)
	assertNoTrivialPhi(t, cfg)

	assign0 := entry.Instructions[0].(ir.Assign)
	assign1 := entry.Instructions[1].(ir.Assign)
	require.Equal(t, "x", assign0.Target.Name)
	require.Equal(t, 1, assign0.Target.Version)
	require.Equal(t, "y", assign1.Target.Name)

	rhs := assign1.Value.(ir.BinaryOp)
	ref := rhs.Left.(ir.VariableRef)
	require.Equal(t, assign0.Target, ref.Var, "read of x must resolve to the version defined just above it")
}

func TestDiamondMergeInsertsRealPhiWhenValuesDiffer(t *testing.T) {
	cfg := ir.NewControlFlowGraph("f")
	then := cfg.NewBlock()
	els := cfg.NewBlock()
	merge := cfg.NewBlock()
	cfg.AddEdge(cfg.Entry, then)
	cfg.AddEdge(cfg.Entry, els)
	cfg.AddEdge(then, merge)
	cfg.AddEdge(els, merge)

	cfg.Block(cfg.Entry).Append(ir.NewBranch(0, v("cond"), then, els))
	cfg.Block(then).Append(ir.NewAssign(1, ir.Variable{Name: "x", Version: ir.NoVersion}, constInt(1)))
	cfg.Block(then).Append(ir.NewJump(2, merge))
	cfg.Block(els).Append(ir.NewAssign(3, ir.Variable{Name: "x", Version: ir.NoVersion}, constInt(2)))
	cfg.Block(els).Append(ir.NewJump(4, merge))
	cfg.Block(merge).Append(ir.NewReturn(5, v("x")))

	warnings := Construct(cfg, nil)
	require.Empty(t, warnings)
	assertSingleAssignment(t, cfg)
	assertNoTrivialPhi(t, cfg)

	phis := cfg.Block(merge).Phis()
	require.Len(t, phis, 1)
	require.Equal(t, "x", phis[0].Target.Name)
	require.Len(t, phis[0].Operands, 2)

	ret := lastInstr(cfg.Block(merge)).(ir.Return)
	ref := ret.Value.(ir.VariableRef)
	require.Equal(t, phis[0].Target, ref.Var)
}

func TestDiamondMergeEliminatesTrivialPhi(t *testing.T) {
	cfg := ir.NewControlFlowGraph("f")
	then := cfg.NewBlock()
	els := cfg.NewBlock()
	merge := cfg.NewBlock()
	cfg.AddEdge(cfg.Entry, then)
	cfg.AddEdge(cfg.Entry, els)
	cfg.AddEdge(then, merge)
	cfg.AddEdge(els, merge)

	// both branches leave x unchanged: the merge phi is trivial.
	cfg.Block(cfg.Entry).Append(ir.NewAssign(0, ir.Variable{Name: "x", Version: ir.NoVersion}, constInt(7)))
	cfg.Block(cfg.Entry).Append(ir.NewBranch(1, v("cond"), then, els))
	cfg.Block(then).Append(ir.NewJump(2, merge))
	cfg.Block(els).Append(ir.NewJump(3, merge))
	cfg.Block(merge).Append(ir.NewReturn(4, v("x")))

	warnings := Construct(cfg, nil)
	require.Empty(t, warnings)
	assertSingleAssignment(t, cfg)
	assertNoTrivialPhi(t, cfg)

	require.Empty(t, cfg.Block(merge).Phis(), "merge phi for an unchanged variable must be eliminated")

	ret := lastInstr(cfg.Block(merge)).(ir.Return)
	ref := ret.Value.(ir.VariableRef)
	def := cfg.Block(cfg.Entry).Instructions[0].(ir.Assign)
	require.Equal(t, def.Target, ref.Var, "trivial phi elimination must resolve back to the single defining version")
}

func TestLoopCarriesPhiAtHeader(t *testing.T) {
	cfg := ir.NewControlFlowGraph("f")
	header := cfg.NewBlock()
	body := cfg.NewBlock()
	exit := cfg.NewBlock()
	cfg.AddEdge(cfg.Entry, header)
	cfg.AddEdge(header, body)
	cfg.AddEdge(header, exit)
	cfg.AddEdge(body, header)

	cfg.Block(cfg.Entry).Append(ir.NewAssign(0, ir.Variable{Name: "i", Version: ir.NoVersion}, constInt(0)))
	cfg.Block(cfg.Entry).Append(ir.NewJump(1, header))
	cfg.Block(header).Append(ir.NewBranch(2, v("cond"), body, exit))
	cfg.Block(body).Append(ir.NewAssign(3, ir.Variable{Name: "i", Version: ir.NoVersion}, ir.BinaryOp{Op: "+", Left: v("i"), Right: constInt(1)}))
	cfg.Block(body).Append(ir.NewJump(4, header))
	cfg.Block(exit).Append(ir.NewReturn(5, v("i")))

	warnings := Construct(cfg, nil)
	require.Empty(t, warnings)
	assertSingleAssignment(t, cfg)
	assertNoTrivialPhi(t, cfg)

	phis := cfg.Block(header).Phis()
	require.Len(t, phis, 1)
	require.Equal(t, "i", phis[0].Target.Name)
	require.Len(t, phis[0].Operands, 2)
}

func TestParametersSeedVersionZero(t *testing.T) {
	cfg := ir.NewControlFlowGraph("f")
	cfg.Block(cfg.Entry).Append(ir.NewReturn(0, v("n")))

	warnings := Construct(cfg, []ir.Variable{{Name: "n", Version: ir.NoVersion}})
	require.Empty(t, warnings)

	ret := cfg.Block(cfg.Entry).Instructions[0].(ir.Return)
	ref := ret.Value.(ir.VariableRef)
	require.Equal(t, ir.Variable{Name: "n", Version: 0}, ref.Var)
}

func lastInstr(b *ir.BasicBlock) ir.Instruction {
	return b.Instructions[len(b.Instructions)-1]
}
