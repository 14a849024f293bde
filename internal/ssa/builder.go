// Package ssa lowers an internal/ir.ControlFlowGraph in place to pruned SSA
// form using the Braun et al. on-the-fly construction algorithm (spec.md
// §4.2): lazy φ-insertion without a precomputed dominator tree, trivial-φ
// elimination via substitution chains.
//
// The CFG is fully built before Construct runs (internal/cfgbuild has
// already produced every block and edge), so sealing collapses to a single
// step: every block becomes sealed once, after the on-the-fly rewrite pass
// that discovers incomplete phis, rather than incrementally as Braun's
// original streaming construction seals blocks one at a time.
package ssa

import (
	"fmt"

	"anteater/internal/ir"
	"anteater/internal/logging"
)

type builder struct {
	cfg            *ir.ControlFlowGraph
	currentDef     map[ir.BlockID]map[string]ir.Value
	incompletePhis map[ir.BlockID][]*phiNode
	blockPhis      map[ir.BlockID][]*phiNode
	substitutions  map[ir.Variable]ir.Value
	versionCounter map[string]int
	sealed         map[ir.BlockID]bool
	warnings       []ir.Warning
}

// Construct lowers cfg to SSA in place and returns any non-fatal warnings
// (spec.md §7). params are the function's formal parameters, seeded as
// version 0 and live-in to the entry block; spec.md §4.1 excludes them from
// the instruction stream, so they're threaded in separately here too.
func Construct(cfg *ir.ControlFlowGraph, params []ir.Variable) []ir.Warning {
	log := logging.Get(logging.CategorySSA)
	log.Debug("constructing SSA for %s (%d blocks, %d params)", cfg.FunctionName, cfg.Len(), len(params))

	b := &builder{
		cfg:            cfg,
		currentDef:     make(map[ir.BlockID]map[string]ir.Value),
		incompletePhis: make(map[ir.BlockID][]*phiNode),
		blockPhis:      make(map[ir.BlockID][]*phiNode),
		substitutions:  make(map[ir.Variable]ir.Value),
		versionCounter: make(map[string]int),
		sealed:         make(map[ir.BlockID]bool),
	}

	// Step 1: seed parameters at version 0, live-in to entry.
	for _, p := range params {
		b.versionCounter[p.Name] = 0
		b.writeVariable(p.Name, cfg.Entry, ir.VariableRef{Var: ir.Variable{Name: p.Name, Version: 0}})
	}

	// Step 2: rewrite every instruction in reverse postorder. No block is
	// sealed yet, so every miss in currentDef creates an incomplete phi.
	for _, id := range cfg.ReversePostOrder() {
		b.rewriteBlock(id)
	}

	// Step 5: seal every block, then fill incomplete phis. Sealing first
	// means the readVariable calls filling operands take the zero/one/
	// multi-predecessor branches rather than creating more incomplete phis.
	for _, id := range cfg.ReversePostOrder() {
		b.sealed[id] = true
	}
	for _, id := range cfg.ReversePostOrder() {
		for _, phi := range b.incompletePhis[id] {
			b.fillPhiOperands(phi)
		}
	}

	// Step 7: insert surviving (non-eliminated) phis at block heads,
	// deduped by target, with operands resolved through substitutions.
	b.insertPhis()

	// Final pass: resolve substitutions in every remaining instruction
	// operand. Necessary because phase 2 resolved VariableRefs against
	// whatever substitutions existed *at read time*; phis discovered later
	// (filled in step 5) may eliminate targets that earlier instructions
	// already captured by reference.
	b.finalizeSubstitutions()

	return b.warnings
}

func (b *builder) nextVersion(name string) int {
	b.versionCounter[name]++
	return b.versionCounter[name]
}

func (b *builder) writeVariable(name string, block ir.BlockID, val ir.Value) {
	m, ok := b.currentDef[block]
	if !ok {
		m = make(map[string]ir.Value)
		b.currentDef[block] = m
	}
	m[name] = val
}

// readVariable implements spec.md §4.2 step 4.
func (b *builder) readVariable(name string, block ir.BlockID) ir.Value {
	if val, ok := b.currentDef[block][name]; ok {
		return b.resolveSubstitution(val)
	}

	if !b.sealed[block] {
		version := b.nextVersion(name)
		target := ir.Variable{Name: name, Version: version}
		phi := &phiNode{target: target, block: block, operands: make(map[ir.BlockID]ir.Value)}
		b.incompletePhis[block] = append(b.incompletePhis[block], phi)
		b.blockPhis[block] = append(b.blockPhis[block], phi)
		val := ir.VariableRef{Var: target}
		b.writeVariable(name, block, val)
		return val
	}

	preds := b.cfg.Predecessors(block)
	switch len(preds) {
	case 0:
		val := ir.VariableRef{Var: ir.Variable{Name: name, Version: ir.NoVersion}}
		b.writeVariable(name, block, val)
		return val
	case 1:
		val := b.readVariable(name, preds[0])
		b.writeVariable(name, block, val)
		return val
	default:
		version := b.nextVersion(name)
		target := ir.Variable{Name: name, Version: version}
		phi := &phiNode{target: target, block: block, operands: make(map[ir.BlockID]ir.Value)}
		b.blockPhis[block] = append(b.blockPhis[block], phi)
		val := ir.VariableRef{Var: target}
		b.writeVariable(name, block, val) // write first to break cycles
		for _, pred := range preds {
			phi.operands[pred] = b.readVariable(name, pred)
		}
		return b.tryRemoveTrivialPhi(phi)
	}
}

func (b *builder) fillPhiOperands(phi *phiNode) {
	preds := b.cfg.Predecessors(phi.block)
	if len(preds) == 0 {
		// An incomplete phi created for a block with no predecessors (only
		// possible for the entry block) stands for a read of an
		// uninitialized variable, not a real join; there's nothing to
		// merge (spec.md §4.2 step 4's zero-predecessor case).
		b.substitutions[phi.target] = ir.VariableRef{Var: ir.Variable{Name: phi.target.Name, Version: ir.NoVersion}}
		phi.eliminated = true
		return
	}
	for _, pred := range preds {
		phi.operands[pred] = b.readVariable(phi.target.Name, pred)
	}
	b.tryRemoveTrivialPhi(phi)
}

func (b *builder) rewriteBlock(id ir.BlockID) {
	block := b.cfg.Block(id)
	leaf := func(vr ir.VariableRef) ir.Value { return b.readVariable(vr.Var.Name, id) }

	for i, instr := range block.Instructions {
		block.Instructions[i] = b.rewriteInstr(instr, id, leaf)
	}
}

func (b *builder) define(name string, block ir.BlockID) ir.Variable {
	v := ir.Variable{Name: name, Version: b.nextVersion(name)}
	b.writeVariable(name, block, ir.VariableRef{Var: v})
	return v
}

// rewriteInstr rewrites one instruction's Value operands through leaf and,
// for instructions that define a variable, mints a fresh SSA version for
// the target/result and records it in currentDef (spec.md §4.2 step 2-3).
func (b *builder) rewriteInstr(instr ir.Instruction, block ir.BlockID, leaf func(ir.VariableRef) ir.Value) ir.Instruction {
	switch in := instr.(type) {
	case ir.Assign:
		val := mapValue(in.Value, leaf)
		target := b.define(in.Target.Name, block)
		return ir.NewAssign(in.Offset(), target, val)

	case ir.Branch:
		return ir.NewBranch(in.Offset(), mapValue(in.Cond, leaf), in.Then, in.Else)

	case ir.Jump:
		return in

	case ir.Return:
		return ir.NewReturn(in.Offset(), mapValue(in.Value, leaf))

	case ir.CallInstr:
		receiver := mapValue(in.Receiver, leaf)
		args := make([]ir.Value, len(in.Args))
		for i, a := range in.Args {
			args[i] = mapValue(a, leaf)
		}
		var result *ir.Variable
		if in.Result != nil {
			v := b.define(in.Result.Name, block)
			result = &v
		}
		return ir.NewCallInstr(in.Offset(), receiver, in.Method, args, result)

	case ir.LoadField:
		base := mapValue(in.Base, leaf)
		result := b.define(in.Result.Name, block)
		return ir.NewLoadField(in.Offset(), base, in.Field, result)

	case ir.StoreField:
		return ir.NewStoreField(in.Offset(), mapValue(in.Base, leaf), in.Field, mapValue(in.Value, leaf))

	case ir.LoadIndex:
		base := mapValue(in.Base, leaf)
		index := mapValue(in.Index, leaf)
		result := b.define(in.Result.Name, block)
		return ir.NewLoadIndex(in.Offset(), base, index, result)

	case ir.StoreIndex:
		return ir.NewStoreIndex(in.Offset(), mapValue(in.Base, leaf), mapValue(in.Index, leaf), mapValue(in.Value, leaf))

	case ir.NullCheck:
		operand := mapValue(in.Operand, leaf)
		result := b.define(in.Result.Name, block)
		return ir.NewNullCheck(in.Offset(), operand, result)

	case ir.Cast:
		operand := mapValue(in.Operand, leaf)
		result := b.define(in.Result.Name, block)
		return ir.NewCast(in.Offset(), operand, in.TargetType, result, in.Nullable)

	case ir.TypeCheck:
		operand := mapValue(in.Operand, leaf)
		result := b.define(in.Result.Name, block)
		return ir.NewTypeCheck(in.Offset(), operand, in.TargetType, result, in.Negated)

	case ir.Throw:
		return ir.NewThrow(in.Offset(), mapValue(in.Exception, leaf))

	case ir.Await:
		future := mapValue(in.Future, leaf)
		result := b.define(in.Result.Name, block)
		return ir.NewAwait(in.Offset(), future, result)

	case ir.PhiInstr:
		return in // not produced by cfgbuild; pass through unchanged if present

	default:
		panic(fmt.Sprintf("ssa: unhandled instruction type %T", instr))
	}
}

// insertPhis implements spec.md §4.2 step 7: at each block, prepend the
// surviving (non-eliminated) phis, deduped by target, as real PhiInstrs.
func (b *builder) insertPhis() {
	for _, id := range b.cfg.ReversePostOrder() {
		phis := b.blockPhis[id]
		if len(phis) == 0 {
			continue
		}
		seen := make(map[ir.Variable]bool, len(phis))
		var instrs []ir.Instruction
		for _, phi := range phis {
			if phi.eliminated || seen[phi.target] {
				continue
			}
			seen[phi.target] = true
			real := ir.NewPhiInstr(0, phi.target)
			for pred, val := range phi.operands {
				real.Operands[pred] = val
			}
			instrs = append(instrs, real)
		}
		if len(instrs) == 0 {
			continue
		}
		block := b.cfg.Block(id)
		block.Instructions = append(instrs, block.Instructions...)
	}
}

func (b *builder) finalizeSubstitutions() {
	leaf := func(vr ir.VariableRef) ir.Value { return b.resolveVar(vr.Var) }
	for _, blk := range b.cfg.Blocks() {
		for i, instr := range blk.Instructions {
			blk.Instructions[i] = b.substituteInstr(instr, leaf)
		}
	}
}

func (b *builder) substituteInstr(instr ir.Instruction, leaf func(ir.VariableRef) ir.Value) ir.Instruction {
	switch in := instr.(type) {
	case ir.Assign:
		return ir.NewAssign(in.Offset(), in.Target, mapValue(in.Value, leaf))
	case ir.Branch:
		return ir.NewBranch(in.Offset(), mapValue(in.Cond, leaf), in.Then, in.Else)
	case ir.Jump:
		return in
	case ir.Return:
		return ir.NewReturn(in.Offset(), mapValue(in.Value, leaf))
	case ir.CallInstr:
		args := make([]ir.Value, len(in.Args))
		for i, a := range in.Args {
			args[i] = mapValue(a, leaf)
		}
		return ir.NewCallInstr(in.Offset(), mapValue(in.Receiver, leaf), in.Method, args, in.Result)
	case ir.LoadField:
		return ir.NewLoadField(in.Offset(), mapValue(in.Base, leaf), in.Field, in.Result)
	case ir.StoreField:
		return ir.NewStoreField(in.Offset(), mapValue(in.Base, leaf), in.Field, mapValue(in.Value, leaf))
	case ir.LoadIndex:
		return ir.NewLoadIndex(in.Offset(), mapValue(in.Base, leaf), mapValue(in.Index, leaf), in.Result)
	case ir.StoreIndex:
		return ir.NewStoreIndex(in.Offset(), mapValue(in.Base, leaf), mapValue(in.Index, leaf), mapValue(in.Value, leaf))
	case ir.NullCheck:
		return ir.NewNullCheck(in.Offset(), mapValue(in.Operand, leaf), in.Result)
	case ir.Cast:
		return ir.NewCast(in.Offset(), mapValue(in.Operand, leaf), in.TargetType, in.Result, in.Nullable)
	case ir.TypeCheck:
		return ir.NewTypeCheck(in.Offset(), mapValue(in.Operand, leaf), in.TargetType, in.Result, in.Negated)
	case ir.Throw:
		return ir.NewThrow(in.Offset(), mapValue(in.Exception, leaf))
	case ir.Await:
		return ir.NewAwait(in.Offset(), mapValue(in.Future, leaf), in.Result)
	case ir.PhiInstr:
		rewritten := ir.NewPhiInstr(in.Offset(), in.Target)
		for pred, val := range in.Operands {
			rewritten.Operands[pred] = mapValue(val, leaf)
		}
		return rewritten
	default:
		panic(fmt.Sprintf("ssa: unhandled instruction type %T", instr))
	}
}
