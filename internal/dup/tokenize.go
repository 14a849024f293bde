package dup

import "anteater/internal/ir"

// tokenStream walks a function's CFG the same way internal/metrics's
// Halstead counter does, but emits a structural token per node instead of
// tallying operator/operand frequency: identifier and literal *values* are
// collapsed to generic placeholders (ir.Variable and ir.Literal's Name/value
// no longer appear), so two functions that differ only by variable naming
// or literal content still produce the same stream. This is what Embed
// turns into a fixed-length vector.
func tokenStream(fn *ir.FunctionIr) []string {
	var toks []string
	if fn == nil || fn.CFG == nil {
		return toks
	}
	for _, id := range fn.CFG.ReversePostOrder() {
		for _, instr := range fn.CFG.Block(id).Instructions {
			toks = appendInstrTokens(toks, instr)
		}
	}
	return toks
}

func appendInstrTokens(toks []string, instr ir.Instruction) []string {
	switch in := instr.(type) {
	case ir.Assign:
		toks = append(toks, "assign")
		toks = appendValueTokens(toks, in.Value)
	case ir.Branch:
		toks = append(toks, "branch")
		toks = appendValueTokens(toks, in.Cond)
	case ir.Jump:
		toks = append(toks, "jump")
	case ir.Return:
		toks = append(toks, "return")
		if in.Value != nil {
			toks = appendValueTokens(toks, in.Value)
		}
	case ir.CallInstr:
		toks = append(toks, "call:"+in.Method)
		if in.Receiver != nil {
			toks = appendValueTokens(toks, in.Receiver)
		}
		for _, a := range in.Args {
			toks = appendValueTokens(toks, a)
		}
	case ir.LoadField:
		toks = append(toks, "loadfield:"+in.Field)
		toks = appendValueTokens(toks, in.Base)
	case ir.StoreField:
		toks = append(toks, "storefield:"+in.Field)
		toks = appendValueTokens(toks, in.Base)
		toks = appendValueTokens(toks, in.Value)
	case ir.LoadIndex:
		toks = append(toks, "loadindex")
		toks = appendValueTokens(toks, in.Base)
		toks = appendValueTokens(toks, in.Index)
	case ir.StoreIndex:
		toks = append(toks, "storeindex")
		toks = appendValueTokens(toks, in.Base)
		toks = appendValueTokens(toks, in.Index)
		toks = appendValueTokens(toks, in.Value)
	case ir.NullCheck:
		toks = append(toks, "nullcheck")
		toks = appendValueTokens(toks, in.Operand)
	case ir.Cast:
		toks = append(toks, "cast:"+in.TargetType)
		toks = appendValueTokens(toks, in.Operand)
	case ir.TypeCheck:
		if in.Negated {
			toks = append(toks, "typecheck!:"+in.TargetType)
		} else {
			toks = append(toks, "typecheck:"+in.TargetType)
		}
		toks = appendValueTokens(toks, in.Operand)
	case ir.Throw:
		toks = append(toks, "throw")
		toks = appendValueTokens(toks, in.Exception)
	case ir.Await:
		toks = append(toks, "await")
		toks = appendValueTokens(toks, in.Future)
	case ir.PhiInstr:
		// SSA-internal, no structural signal of its own.
	}
	return toks
}

func appendValueTokens(toks []string, v ir.Value) []string {
	switch val := v.(type) {
	case nil:
		return toks
	case ir.Constant:
		return append(toks, "lit:"+literalKindToken(val.Literal))
	case ir.VariableRef:
		return append(toks, "var")
	case ir.BinaryOp:
		toks = append(toks, "binop:"+val.Op)
		toks = appendValueTokens(toks, val.Left)
		return appendValueTokens(toks, val.Right)
	case ir.UnaryOp:
		toks = append(toks, "unop:"+val.Op)
		return appendValueTokens(toks, val.Operand)
	case ir.Call:
		toks = append(toks, "vcall:"+val.Method)
		if val.Receiver != nil {
			toks = appendValueTokens(toks, val.Receiver)
		}
		for _, a := range val.Args {
			toks = appendValueTokens(toks, a)
		}
		return toks
	case ir.FieldAccess:
		toks = append(toks, "field:"+val.Field)
		return appendValueTokens(toks, val.Receiver)
	case ir.IndexAccess:
		toks = append(toks, "index")
		toks = appendValueTokens(toks, val.Receiver)
		return appendValueTokens(toks, val.Index)
	case ir.NewObject:
		toks = append(toks, "new:"+val.Type)
		for _, a := range val.Args {
			toks = appendValueTokens(toks, a)
		}
		return toks
	case ir.Phi:
		return append(toks, "phi")
	default:
		return toks
	}
}

func literalKindToken(lit ir.Literal) string {
	switch lit.Kind {
	case ir.LiteralInt:
		return "int"
	case ir.LiteralFloat:
		return "float"
	case ir.LiteralString:
		return "string"
	case ir.LiteralBool:
		return "bool"
	default:
		return "null"
	}
}
