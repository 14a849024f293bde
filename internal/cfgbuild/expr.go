package cfgbuild

import (
	"anteater/internal/ast"
	"anteater/internal/ir"
)

// lowerExpr lowers an expression node into block `cur`, returning the
// resulting value and the block execution continues in. Most expressions
// don't split the block; short-circuit &&/||, ?:, ?., ??, and ??= do, so the
// signature threads the continuation block through rather than returning a
// bare Value (spec.md §4.1).
func (b *builder) lowerExpr(cur ir.BlockID, n ast.Node) (ir.Value, ir.BlockID) {
	switch n.Kind() {
	case KindLiteralInt:
		return ir.Constant{Literal: ir.Literal{Kind: ir.LiteralInt, Int: parseIntText(n.Text())}}, cur
	case KindLiteralFloat:
		return ir.Constant{Literal: ir.Literal{Kind: ir.LiteralFloat, Flt: parseFloatText(n.Text())}}, cur
	case KindLiteralString:
		return ir.Constant{Literal: ir.Literal{Kind: ir.LiteralString, Str: n.Text()}}, cur
	case KindLiteralBool:
		return ir.Constant{Literal: ir.Literal{Kind: ir.LiteralBool, Bool: n.Text() == "true"}}, cur
	case KindLiteralNull:
		return ir.Constant{Literal: ir.Literal{Kind: ir.LiteralNull}}, cur

	case KindIdentifier:
		return ir.VariableRef{Var: ir.Variable{Name: nodeName(n), Version: ir.NoVersion}}, cur

	case KindUnary:
		operand, cur := b.lowerExpr(cur, n.Children()[0])
		return ir.UnaryOp{Op: n.Text(), Operand: operand}, cur

	case KindBinary:
		op := n.Text()
		if op == "&&" || op == "||" {
			return b.lowerShortCircuit(cur, n)
		}
		left, cur := b.lowerExpr(cur, n.Children()[0])
		right, cur := b.lowerExpr(cur, n.Children()[1])
		return ir.BinaryOp{Op: op, Left: left, Right: right}, cur

	case KindConditional:
		return b.lowerConditional(cur, n)

	case KindNullCoalesce:
		return b.lowerNullCoalesce(cur, n)

	case KindNullCoalesceAssign:
		return b.lowerNullCoalesceAssign(cur, n)

	case KindNullAwareAccess:
		return b.lowerNullAwareAccess(cur, n)

	case KindAwait:
		future, cur := b.lowerExpr(cur, n.Children()[0])
		result := b.temp("await")
		b.cfg.Block(cur).Append(ir.NewAwait(n.Offset(), future, result))
		return ir.VariableRef{Var: result}, cur

	case KindCall:
		return b.lowerCall(cur, n)

	case KindFieldAccess:
		// Lowered to a LoadField instruction bound to a temp, not a bare
		// FieldAccess value: the fact extractor (spec.md §4.3) derives
		// LoadField facts from instructions, so a read in expression
		// position still has to materialize one.
		base, cur := b.lowerExpr(cur, n.Children()[0])
		field := nodeName(n)
		if field == "" && len(n.Children()) > 1 {
			field = n.Children()[1].Text()
		}
		result := b.temp("fld")
		b.cfg.Block(cur).Append(ir.NewLoadField(n.Offset(), base, field, result))
		return ir.VariableRef{Var: result}, cur

	case KindIndexAccess:
		base, cur := b.lowerExpr(cur, n.Children()[0])
		idx, cur := b.lowerExpr(cur, n.Children()[1])
		result := b.temp("idx")
		b.cfg.Block(cur).Append(ir.NewLoadIndex(n.Offset(), base, idx, result))
		return ir.VariableRef{Var: result}, cur

	case KindNew:
		children := n.Children()
		args := make([]ir.Value, 0, len(children))
		for _, a := range children {
			var v ir.Value
			v, cur = b.lowerExpr(cur, a)
			args = append(args, v)
		}
		return ir.NewObject{Type: nodeName(n), Ctor: n.Text(), Args: args}, cur

	default:
		b.warn("unmodeled-construct", "unrecognized expression kind "+quote(n.Kind()), n.Offset())
		return ir.Constant{Literal: ir.Literal{Kind: ir.LiteralNull}}, cur
	}
}

// lowerShortCircuit preserves the condition count metrics/Datalog need by
// emitting an explicit branch rather than folding && / || into a BinaryOp
// (spec.md §4.1).
func (b *builder) lowerShortCircuit(cur ir.BlockID, n ast.Node) (ir.Value, ir.BlockID) {
	left, cur := b.lowerExpr(cur, n.Children()[0])
	result := b.temp("sc")

	rhsBlock := b.cfg.NewBlock()
	shortBlock := b.cfg.NewBlock()
	merge := b.cfg.NewBlock()

	if n.Text() == "&&" {
		b.cfg.Block(cur).Append(ir.NewBranch(n.Offset(), left, rhsBlock, shortBlock))
	} else { // ||
		b.cfg.Block(cur).Append(ir.NewBranch(n.Offset(), left, shortBlock, rhsBlock))
	}
	b.cfg.AddEdge(cur, rhsBlock)
	b.cfg.AddEdge(cur, shortBlock)

	b.cfg.Block(shortBlock).Append(ir.NewAssign(n.Offset(), result, left))
	b.cfg.Block(shortBlock).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(shortBlock, merge)

	right, rhsEnd := b.lowerExpr(rhsBlock, n.Children()[1])
	b.cfg.Block(rhsEnd).Append(ir.NewAssign(n.Offset(), result, right))
	b.cfg.Block(rhsEnd).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(rhsEnd, merge)

	return ir.VariableRef{Var: result}, merge
}

func (b *builder) lowerConditional(cur ir.BlockID, n ast.Node) (ir.Value, ir.BlockID) {
	children := n.Children()
	cond, cur := b.lowerExpr(cur, children[0])
	result := b.temp("cond")

	thenID := b.cfg.NewBlock()
	elseID := b.cfg.NewBlock()
	merge := b.cfg.NewBlock()

	b.cfg.Block(cur).Append(ir.NewBranch(n.Offset(), cond, thenID, elseID))
	b.cfg.AddEdge(cur, thenID)
	b.cfg.AddEdge(cur, elseID)

	thenVal, thenEnd := b.lowerExpr(thenID, children[1])
	b.cfg.Block(thenEnd).Append(ir.NewAssign(n.Offset(), result, thenVal))
	b.cfg.Block(thenEnd).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(thenEnd, merge)

	elseVal, elseEnd := b.lowerExpr(elseID, children[2])
	b.cfg.Block(elseEnd).Append(ir.NewAssign(n.Offset(), result, elseVal))
	b.cfg.Block(elseEnd).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(elseEnd, merge)

	return ir.VariableRef{Var: result}, merge
}

// lowerNullCoalesce lowers `a ?? b`: evaluate a, branch on a null check,
// fall through to a if non-null, otherwise evaluate and use b.
func (b *builder) lowerNullCoalesce(cur ir.BlockID, n ast.Node) (ir.Value, ir.BlockID) {
	left, cur := b.lowerExpr(cur, n.Children()[0])
	result := b.temp("coal")
	nullCheck := b.temp("isnull")
	b.cfg.Block(cur).Append(ir.NewNullCheck(n.Offset(), left, nullCheck))

	rhsBlock := b.cfg.NewBlock()
	lhsBlock := b.cfg.NewBlock()
	merge := b.cfg.NewBlock()

	b.cfg.Block(cur).Append(ir.NewBranch(n.Offset(), ir.VariableRef{Var: nullCheck}, rhsBlock, lhsBlock))
	b.cfg.AddEdge(cur, rhsBlock)
	b.cfg.AddEdge(cur, lhsBlock)

	b.cfg.Block(lhsBlock).Append(ir.NewAssign(n.Offset(), result, left))
	b.cfg.Block(lhsBlock).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(lhsBlock, merge)

	right, rhsEnd := b.lowerExpr(rhsBlock, n.Children()[1])
	b.cfg.Block(rhsEnd).Append(ir.NewAssign(n.Offset(), result, right))
	b.cfg.Block(rhsEnd).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(rhsEnd, merge)

	return ir.VariableRef{Var: result}, merge
}

// lowerNullCoalesceAssign lowers `a ??= b` as a store guarded by a null
// check on the current value of a, per spec.md §4.1.
func (b *builder) lowerNullCoalesceAssign(cur ir.BlockID, n ast.Node) (ir.Value, ir.BlockID) {
	target := n.Children()[0]
	tv := ir.Variable{Name: nodeName(target), Version: ir.NoVersion}

	nullCheck := b.temp("isnull")
	b.cfg.Block(cur).Append(ir.NewNullCheck(n.Offset(), ir.VariableRef{Var: tv}, nullCheck))

	assignBlock := b.cfg.NewBlock()
	merge := b.cfg.NewBlock()
	b.cfg.Block(cur).Append(ir.NewBranch(n.Offset(), ir.VariableRef{Var: nullCheck}, assignBlock, merge))
	b.cfg.AddEdge(cur, assignBlock)
	b.cfg.AddEdge(cur, merge)

	val, assignEnd := b.lowerExpr(assignBlock, n.Children()[1])
	b.cfg.Block(assignEnd).Append(ir.NewAssign(n.Offset(), tv, val))
	b.cfg.Block(assignEnd).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(assignEnd, merge)

	return ir.VariableRef{Var: tv}, merge
}

// lowerNullAwareAccess lowers `a?.b`: null-check a, skip the access and
// yield null if a is null.
func (b *builder) lowerNullAwareAccess(cur ir.BlockID, n ast.Node) (ir.Value, ir.BlockID) {
	base, cur := b.lowerExpr(cur, n.Children()[0])
	result := b.temp("naa")
	nullCheck := b.temp("isnull")
	b.cfg.Block(cur).Append(ir.NewNullCheck(n.Offset(), base, nullCheck))

	accessBlock := b.cfg.NewBlock()
	nullBlock := b.cfg.NewBlock()
	merge := b.cfg.NewBlock()

	b.cfg.Block(cur).Append(ir.NewBranch(n.Offset(), ir.VariableRef{Var: nullCheck}, nullBlock, accessBlock))
	b.cfg.AddEdge(cur, nullBlock)
	b.cfg.AddEdge(cur, accessBlock)

	b.cfg.Block(nullBlock).Append(ir.NewAssign(n.Offset(), result, ir.Constant{Literal: ir.Literal{Kind: ir.LiteralNull}}))
	b.cfg.Block(nullBlock).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(nullBlock, merge)

	field := nodeName(n)
	if field == "" && len(n.Children()) > 1 {
		field = n.Children()[1].Text()
	}
	loaded := b.temp("naaf")
	b.cfg.Block(accessBlock).Append(ir.NewLoadField(n.Offset(), base, field, loaded))
	b.cfg.Block(accessBlock).Append(ir.NewAssign(n.Offset(), result, ir.VariableRef{Var: loaded}))
	b.cfg.Block(accessBlock).Append(ir.NewJump(n.Offset(), merge))
	b.cfg.AddEdge(accessBlock, merge)

	return ir.VariableRef{Var: result}, merge
}

func (b *builder) lowerCall(cur ir.BlockID, n ast.Node) (ir.Value, ir.BlockID) {
	var receiver ir.Value
	method := nodeName(n)
	var args []ir.Value
	for _, c := range n.Children() {
		switch c.Kind() {
		case KindReceiver:
			receiver, cur = b.lowerExpr(cur, c.Children()[0])
		case KindArg:
			var v ir.Value
			v, cur = b.lowerExpr(cur, c.Children()[0])
			args = append(args, v)
		}
	}
	result := b.temp("call")
	b.cfg.Block(cur).Append(ir.NewCallInstr(n.Offset(), receiver, method, args, &result))
	return ir.VariableRef{Var: result}, cur
}

func quote(s string) string { return "\"" + s + "\"" }

func parseIntText(s string) int64 {
	var v int64
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		v = v*10 + int64(r-'0')
	}
	if neg {
		v = -v
	}
	return v
}

func parseFloatText(s string) float64 {
	var intPart, fracPart int64
	var fracDiv float64 = 1
	neg := false
	seenDot := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r == '.' {
			seenDot = true
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		if seenDot {
			fracPart = fracPart*10 + int64(r-'0')
			fracDiv *= 10
		} else {
			intPart = intPart*10 + int64(r-'0')
		}
	}
	v := float64(intPart) + float64(fracPart)/fracDiv
	if neg {
		v = -v
	}
	return v
}
