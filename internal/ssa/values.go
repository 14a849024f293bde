package ssa

import "anteater/internal/ir"

// mapValue walks v structurally, replacing every VariableRef leaf with
// leaf(v) and rebuilding composite values around the result. Used both for
// the on-the-fly rewrite pass (leaf = readVariable) and the final
// substitution-resolution pass (leaf = resolveVar), since the two only
// differ in how a bare variable reference gets resolved (spec.md §4.2).
func mapValue(v ir.Value, leaf func(ir.VariableRef) ir.Value) ir.Value {
	switch val := v.(type) {
	case nil:
		return nil
	case ir.Constant:
		return val
	case ir.VariableRef:
		return leaf(val)
	case ir.BinaryOp:
		return ir.BinaryOp{Op: val.Op, Left: mapValue(val.Left, leaf), Right: mapValue(val.Right, leaf)}
	case ir.UnaryOp:
		return ir.UnaryOp{Op: val.Op, Operand: mapValue(val.Operand, leaf)}
	case ir.Call:
		args := make([]ir.Value, len(val.Args))
		for i, a := range val.Args {
			args[i] = mapValue(a, leaf)
		}
		return ir.Call{Receiver: mapValue(val.Receiver, leaf), Method: val.Method, Args: args}
	case ir.FieldAccess:
		return ir.FieldAccess{Receiver: mapValue(val.Receiver, leaf), Field: val.Field}
	case ir.IndexAccess:
		return ir.IndexAccess{Receiver: mapValue(val.Receiver, leaf), Index: mapValue(val.Index, leaf)}
	case ir.NewObject:
		args := make([]ir.Value, len(val.Args))
		for i, a := range val.Args {
			args[i] = mapValue(a, leaf)
		}
		return ir.NewObject{Type: val.Type, Ctor: val.Ctor, Args: args}
	case ir.Phi:
		return val
	default:
		return val
	}
}
