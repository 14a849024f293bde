package metrics

import (
	"math"

	"anteater/internal/ir"
)

// HalsteadReport holds the operator/operand counts and derived measures of
// spec.md §2's Halstead metric. Distinct identifiers are keyed by variable
// Name alone (ignoring SSA version): Halstead treats every SSA version of
// the same source variable as one operand, the same token a reader sees.
type HalsteadReport struct {
	DistinctOperators int
	DistinctOperands  int
	TotalOperators    int
	TotalOperands     int
	Vocabulary        int
	Length            int
	Volume            float64
	Difficulty        float64
	Effort            float64
}

type halsteadCounter struct {
	operators map[string]int
	operands  map[string]int
}

// ComputeHalstead walks every instruction reachable in cfg and tallies
// operator/operand tokens, returning the derived Halstead measures. A nil
// CFG (empty-body function) yields a zero report.
func ComputeHalstead(cfg *ir.ControlFlowGraph) HalsteadReport {
	c := &halsteadCounter{operators: map[string]int{}, operands: map[string]int{}}
	if cfg != nil {
		for _, id := range cfg.ReversePostOrder() {
			for _, instr := range cfg.Block(id).Instructions {
				c.instruction(instr)
			}
		}
	}
	return c.report()
}

func (c *halsteadCounter) op(token string)      { c.operators[token]++ }
func (c *halsteadCounter) operand(token string) { c.operands[token]++ }

func (c *halsteadCounter) instruction(instr ir.Instruction) {
	switch in := instr.(type) {
	case ir.Assign:
		c.op("=")
		c.operand(variableToken(in.Target))
		c.value(in.Value)
	case ir.Branch:
		c.op("if")
		c.value(in.Cond)
	case ir.Jump:
		// Unconditional control transfer, no operator/operand of its own.
	case ir.Return:
		c.op("return")
		if in.Value != nil {
			c.value(in.Value)
		}
	case ir.CallInstr:
		c.op("call:" + in.Method)
		if in.Receiver != nil {
			c.value(in.Receiver)
		}
		for _, a := range in.Args {
			c.value(a)
		}
		if in.Result != nil {
			c.operand(variableToken(*in.Result))
		}
	case ir.LoadField:
		c.op(".")
		c.operand(in.Field)
		c.operand(variableToken(in.Result))
		c.value(in.Base)
	case ir.StoreField:
		c.op(".=")
		c.operand(in.Field)
		c.value(in.Base)
		c.value(in.Value)
	case ir.LoadIndex:
		c.op("[]")
		c.operand(variableToken(in.Result))
		c.value(in.Base)
		c.value(in.Index)
	case ir.StoreIndex:
		c.op("[]=")
		c.value(in.Base)
		c.value(in.Index)
		c.value(in.Value)
	case ir.NullCheck:
		c.op("!")
		c.operand(variableToken(in.Result))
		c.value(in.Operand)
	case ir.Cast:
		c.op("as:" + in.TargetType)
		c.operand(variableToken(in.Result))
		c.value(in.Operand)
	case ir.TypeCheck:
		if in.Negated {
			c.op("is!:" + in.TargetType)
		} else {
			c.op("is:" + in.TargetType)
		}
		c.operand(variableToken(in.Result))
		c.value(in.Operand)
	case ir.Throw:
		c.op("throw")
		c.value(in.Exception)
	case ir.Await:
		c.op("await")
		c.operand(variableToken(in.Result))
		c.value(in.Future)
	case ir.PhiInstr:
		// SSA-internal; eliminated before consumers normally see one.
	}
}

func (c *halsteadCounter) value(v ir.Value) {
	switch val := v.(type) {
	case nil:
		return
	case ir.Constant:
		c.operand(literalToken(val.Literal))
	case ir.VariableRef:
		c.operand(variableToken(val.Var))
	case ir.BinaryOp:
		c.op(val.Op)
		c.value(val.Left)
		c.value(val.Right)
	case ir.UnaryOp:
		c.op(val.Op)
		c.value(val.Operand)
	case ir.Call:
		c.op("call:" + val.Method)
		if val.Receiver != nil {
			c.value(val.Receiver)
		}
		for _, a := range val.Args {
			c.value(a)
		}
	case ir.FieldAccess:
		c.op(".")
		c.operand(val.Field)
		c.value(val.Receiver)
	case ir.IndexAccess:
		c.op("[]")
		c.value(val.Receiver)
		c.value(val.Index)
	case ir.NewObject:
		token := "new:" + val.Type
		if val.Ctor != "" {
			token += "." + val.Ctor
		}
		c.op(token)
		for _, a := range val.Args {
			c.value(a)
		}
	case ir.Phi:
		c.operand(variableToken(val.Var))
	}
}

func variableToken(v ir.Variable) string { return "var:" + v.Name }

func literalToken(lit ir.Literal) string {
	switch lit.Kind {
	case ir.LiteralInt:
		return "lit:int"
	case ir.LiteralFloat:
		return "lit:float"
	case ir.LiteralString:
		return "lit:string"
	case ir.LiteralBool:
		return "lit:bool"
	default:
		return "lit:null"
	}
}

func (c *halsteadCounter) report() HalsteadReport {
	n1, n2 := len(c.operators), len(c.operands)
	var N1, N2 int
	for _, n := range c.operators {
		N1 += n
	}
	for _, n := range c.operands {
		N2 += n
	}

	vocabulary := n1 + n2
	length := N1 + N2
	volume := 0.0
	if vocabulary > 0 {
		volume = float64(length) * math.Log2(float64(vocabulary))
	}
	difficulty := 0.0
	if n2 > 0 {
		difficulty = (float64(n1) / 2) * (float64(N2) / float64(n2))
	}

	return HalsteadReport{
		DistinctOperators: n1,
		DistinctOperands:  n2,
		TotalOperators:    N1,
		TotalOperands:     N2,
		Vocabulary:        vocabulary,
		Length:            length,
		Volume:            volume,
		Difficulty:        difficulty,
		Effort:            difficulty * volume,
	}
}
