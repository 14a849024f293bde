package absint

import (
	"anteater/internal/ir"
	"anteater/internal/logging"
)

const (
	defaultWideningThreshold = 5
	defaultMaxIterations     = 5000
)

// Result is one function's analysis outcome: every block's exit state, plus
// whether the run was cut short by the global iteration cap.
type Result struct {
	ExitStates           map[ir.BlockID]State
	ReachedMaxIterations bool
	TotalIterations      int
}

// Interpreter runs the forward worklist algorithm of spec.md §4.5 over a
// single Domain.
type Interpreter struct {
	Domain            Domain
	WideningThreshold int
	MaxIterations     int
}

// NewInterpreter returns an Interpreter with spec.md's documented defaults
// (widening threshold 5, the middle of the documented [3,8] range; DESIGN.md
// records this as the Open Question decision).
func NewInterpreter(domain Domain) *Interpreter {
	return &Interpreter{Domain: domain, WideningThreshold: defaultWideningThreshold, MaxIterations: defaultMaxIterations}
}

// Analyze runs the fixed-point worklist over cfg. paramDefaults supplies a
// caller-known value for any parameter; parameters with no entry default to
// Domain.Top() (spec.md §4.5 step 1).
func (in *Interpreter) Analyze(cfg *ir.ControlFlowGraph, params []ir.Variable, paramDefaults map[ir.Variable]Lattice) Result {
	log := logging.Get(logging.CategoryAbsInt)

	entryInput := NewState()
	for _, p := range params {
		if v, ok := paramDefaults[p]; ok {
			entryInput.Set(p, v)
		} else {
			entryInput.Set(p, in.Domain.Top())
		}
	}

	exitStates := make(map[ir.BlockID]State)
	revisits := make(map[ir.BlockID]int)
	queue := []ir.BlockID{cfg.Entry}
	queued := map[ir.BlockID]bool{cfg.Entry: true}

	total := 0
	reachedMax := false

loop:
	for len(queue) > 0 {
		if total >= in.MaxIterations {
			reachedMax = true
			log.Warn("absint: reached max iterations (%d) analyzing %s", in.MaxIterations, cfg.FunctionName)
			break loop
		}
		total++

		b := queue[0]
		queue = queue[1:]
		queued[b] = false

		var input State
		if b == cfg.Entry {
			input = entryInput.Clone()
		} else {
			input = NewState()
			for _, pred := range cfg.Predecessors(b) {
				if predExit, ok := exitStates[pred]; ok {
					input = input.Join(predExit)
				}
			}
		}

		newExit := in.transferBlock(cfg.Block(b), input)

		prevExit, had := exitStates[b]
		if had && prevExit.Equal(newExit) {
			continue
		}

		revisits[b]++
		recorded := newExit
		if had && revisits[b] > in.WideningThreshold {
			recorded = prevExit.Widen(newExit, in.Domain)
		}

		if had && prevExit.Equal(recorded) {
			continue
		}
		exitStates[b] = recorded

		for _, succ := range cfg.Successors(b) {
			if !queued[succ] {
				queue = append(queue, succ)
				queued[succ] = true
			}
		}
	}

	return Result{ExitStates: exitStates, ReachedMaxIterations: reachedMax, TotalIterations: total}
}

// NarrowOnce runs the optional narrowing pass of spec.md §4.5 step 6: one
// more pass over every block, tightening bounds widening over-approximated.
func (in *Interpreter) NarrowOnce(cfg *ir.ControlFlowGraph, result Result) Result {
	out := make(map[ir.BlockID]State, len(result.ExitStates))
	for _, id := range cfg.ReversePostOrder() {
		current, ok := result.ExitStates[id]
		if !ok {
			continue
		}
		var input State
		if id == cfg.Entry {
			input = NewState()
		} else {
			input = NewState()
			for _, pred := range cfg.Predecessors(id) {
				if predExit, ok := out[pred]; ok {
					input = input.Join(predExit)
				} else if predExit, ok := result.ExitStates[pred]; ok {
					input = input.Join(predExit)
				}
			}
		}
		transferred := in.transferBlock(cfg.Block(id), input)
		out[id] = current.Narrow(transferred, in.Domain)
	}
	return Result{ExitStates: out, ReachedMaxIterations: result.ReachedMaxIterations, TotalIterations: result.TotalIterations}
}

func (in *Interpreter) transferBlock(b *ir.BasicBlock, input State) State {
	state := input.Clone()
	for _, instr := range b.Instructions {
		state = in.transferInstr(instr, state)
	}
	return state
}

func (in *Interpreter) transferInstr(instr ir.Instruction, state State) State {
	switch i := instr.(type) {
	case ir.Assign:
		return in.transferAssign(i, state)

	case ir.PhiInstr:
		// Phi is eliminated before SSA hands the CFG to consumers
		// (spec.md §4.2 step 7); treat any surviving one conservatively.
		var joined Lattice
		for _, operand := range i.Operands {
			v := in.resolveValue(operand, state)
			if joined == nil {
				joined = v
			} else {
				joined = joined.Join(v)
			}
		}
		if joined == nil {
			joined = in.Domain.Bottom()
		}
		return state.Set(i.Target, joined)

	case ir.NullCheck:
		return state.Set(i.Result, in.resolveValue(i.Operand, state).ApplyNonNullConstraint())

	case ir.Cast:
		return state.Set(i.Result, in.resolveValue(i.Operand, state))

	case ir.TypeCheck:
		return state.Set(i.Result, in.Domain.Top())

	case ir.Await:
		return state.Set(i.Result, in.resolveValue(i.Future, state))

	case ir.CallInstr:
		if i.Result != nil {
			return state.Set(*i.Result, in.Domain.Top())
		}
		return state

	case ir.LoadField:
		return state.Set(i.Result, in.Domain.Top())

	case ir.LoadIndex:
		return state.Set(i.Result, in.Domain.Top())

	default:
		// Branch/Jump/Return/Throw/StoreField/StoreIndex: no side effect on
		// variable state in the base transfer (spec.md §4.5).
		return state
	}
}

func (in *Interpreter) transferAssign(a ir.Assign, state State) State {
	return state.Set(a.Target, in.resolveValue(a.Value, state))
}

// resolveValue evaluates a Value against state, yielding Domain.Top() for
// any shape the domain has no transfer rule for (spec.md §4.5's failure
// semantics: "yield ⊤ rather than failing").
func (in *Interpreter) resolveValue(v ir.Value, state State) Lattice {
	switch val := v.(type) {
	case nil:
		return in.Domain.Bottom()
	case ir.Constant:
		return in.Domain.OfLiteral(val.Literal)
	case ir.VariableRef:
		return state.Get(val.Var, in.Domain)
	case ir.BinaryOp:
		left := in.resolveValue(val.Left, state)
		right := in.resolveValue(val.Right, state)
		return in.Domain.ApplyBinary(val.Op, left, right)
	case ir.NewObject:
		return in.Domain.OfNewObject()
	default:
		// UnaryOp, Call, FieldAccess, IndexAccess, Phi-as-value: not modeled.
		return in.Domain.Top()
	}
}
