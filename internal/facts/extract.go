// Package facts implements the pure SSA-CFG → datalog.Tuple extractor of
// spec.md §4.3. Stateful only for the fresh integer ids it must hand out
// (variable ids, allocation-site heap ids); extraction itself never mutates
// the CFGs it reads.
package facts

import (
	"fmt"

	"anteater/internal/datalog"
	"anteater/internal/ir"
	"anteater/internal/logging"
)

// indexField is the literal field name index operations are lowered under
// (spec.md §4.3: "index operations use the literal field name []").
const indexField = "[]"

type varKey struct {
	function string
	name     string
	version  int
}

// Extractor canonicalizes variables to dense integer ids across every
// function it processes in one run, so VarPointsTo facts from different
// functions never collide over a reused local variable name.
type Extractor struct {
	varIDs      map[varKey]int
	nextVarID   int
	heapCounter map[string]int
}

// NewExtractor returns an Extractor with fresh id namespaces.
func NewExtractor() *Extractor {
	return &Extractor{
		varIDs:      make(map[varKey]int),
		heapCounter: make(map[string]int),
	}
}

// ExtractFunction produces every fact spec.md §4.3 names for one function's
// SSA CFG. A nil or skipped FunctionIr yields no facts.
func (e *Extractor) ExtractFunction(fn *ir.FunctionIr) []datalog.Tuple {
	if fn == nil || fn.Skipped || fn.CFG == nil {
		return nil
	}
	log := logging.Get(logging.CategoryFacts)
	log.Debug("extracting facts for %s (%d blocks)", fn.QualifiedName, fn.CFG.Len())

	var out []datalog.Tuple
	cfg := fn.CFG

	out = append(out, datalog.NewTuple("Reachable", int(cfg.Entry)))

	for _, blk := range cfg.Blocks() {
		for _, succ := range cfg.Successors(blk.ID) {
			out = append(out, datalog.NewTuple("Flow", int(blk.ID), int(succ)))
		}
		for _, instr := range blk.Instructions {
			out = append(out, e.extractInstr(fn.QualifiedName, instr)...)
		}
	}
	return out
}

func (e *Extractor) varID(function string, v ir.Variable) int {
	k := varKey{function: function, name: v.Name, version: v.Version}
	if id, ok := e.varIDs[k]; ok {
		return id
	}
	id := e.nextVarID
	e.nextVarID++
	e.varIDs[k] = id
	return id
}

// refID returns (varID, true) if val is a plain variable reference; facts
// are only emitted for operands that resolve to a named variable, per
// spec.md §4.3's silence on any other operand shape.
func (e *Extractor) refID(function string, val ir.Value) (int, bool) {
	vr, ok := val.(ir.VariableRef)
	if !ok {
		return 0, false
	}
	return e.varID(function, vr.Var), true
}

func (e *Extractor) extractInstr(function string, instr ir.Instruction) []datalog.Tuple {
	switch in := instr.(type) {
	case ir.Assign:
		return e.extractAssign(function, in)

	case ir.PhiInstr:
		var out []datalog.Tuple
		target := e.varID(function, in.Target)
		for _, operand := range in.Operands {
			if srcID, ok := e.refID(function, operand); ok {
				out = append(out, datalog.NewTuple("Assign", target, srcID))
			}
		}
		return out

	case ir.Await:
		if srcID, ok := e.refID(function, in.Future); ok {
			return []datalog.Tuple{datalog.NewTuple("Assign", e.varID(function, in.Result), srcID)}
		}
		return nil

	case ir.CallInstr:
		receiverID := -1
		if id, ok := e.refID(function, in.Receiver); ok {
			receiverID = id
		}
		resultID := -1
		if in.Result != nil {
			resultID = e.varID(function, *in.Result)
		}
		return []datalog.Tuple{datalog.NewTuple("Call", in.Offset(), receiverID, in.Method, resultID)}

	case ir.LoadField:
		baseID, ok := e.refID(function, in.Base)
		if !ok {
			return nil
		}
		return []datalog.Tuple{datalog.NewTuple("LoadField", baseID, in.Field, e.varID(function, in.Result))}

	case ir.StoreField:
		baseID, ok := e.refID(function, in.Base)
		if !ok {
			return nil
		}
		valID, ok := e.refID(function, in.Value)
		if !ok {
			return nil
		}
		return []datalog.Tuple{datalog.NewTuple("StoreField", baseID, in.Field, valID)}

	case ir.LoadIndex:
		baseID, ok := e.refID(function, in.Base)
		if !ok {
			return nil
		}
		return []datalog.Tuple{datalog.NewTuple("LoadField", baseID, indexField, e.varID(function, in.Result))}

	case ir.StoreIndex:
		baseID, ok := e.refID(function, in.Base)
		if !ok {
			return nil
		}
		valID, ok := e.refID(function, in.Value)
		if !ok {
			return nil
		}
		return []datalog.Tuple{datalog.NewTuple("StoreField", baseID, indexField, valID)}

	default:
		// Jump, Branch, Return, Throw, Cast, TypeCheck, NullCheck: no
		// relational facts, control-flow/refinement only (spec.md §4.3).
		return nil
	}
}

func (e *Extractor) extractAssign(function string, in ir.Assign) []datalog.Tuple {
	targetID := e.varID(function, in.Target)

	switch val := in.Value.(type) {
	case ir.VariableRef:
		return []datalog.Tuple{datalog.NewTuple("Assign", targetID, e.varID(function, val.Var))}

	case ir.NewObject:
		// Allocation-site ids are encoded negative so they can never collide
		// with a non-negative variable id when AllocRule/CopyRule join on
		// Assign's second argument (one names a site, the other a variable).
		siteID := -(in.Offset() + 1)
		e.heapCounter[val.Type]++
		heapID := fmt.Sprintf("%s#%d", val.Type, e.heapCounter[val.Type])
		return []datalog.Tuple{
			datalog.NewTuple("Assign", targetID, siteID),
			datalog.NewTuple("Alloc", siteID, heapID),
		}

	default:
		// Constant, BinaryOp, UnaryOp, Call(value), FieldAccess, IndexAccess:
		// no facts, per spec.md §4.3 ("primitive operations produce no
		// facts; results are not modeled heap-side").
		return nil
	}
}
