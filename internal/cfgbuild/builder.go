package cfgbuild

import (
	"fmt"

	"anteater/internal/ast"
	"anteater/internal/ir"
	"anteater/internal/logging"
)

// builder holds the mutable state of one function's lowering pass.
type builder struct {
	cfg      *ir.ControlFlowGraph
	tempSeq  int
	warnings []ir.Warning
}

// Build lowers a function/method/constructor body to a CFG (spec.md §4.1).
// A nil body or a body with zero statements yields (nil, nil): an empty
// function is silently skipped from SSA/fact extraction per spec.md §9's
// documented open question, not an error.
func Build(functionName string, body ast.Node) (*ir.ControlFlowGraph, []ir.Warning) {
	if body == nil {
		return nil, nil
	}
	stmts := statementsOf(body)
	if len(stmts) == 0 {
		return nil, nil
	}

	log := logging.Get(logging.CategoryCFG)
	log.Debug("building CFG for %s (%d top-level statements)", functionName, len(stmts))

	b := &builder{cfg: ir.NewControlFlowGraph(functionName)}
	cur := b.cfg.Entry
	for _, s := range stmts {
		cur = b.lowerStmt(cur, s)
		if cur == ir.InvalidBlock {
			break // terminator reached (return/throw): rest of the list is dead code
		}
	}
	return b.cfg, b.warnings
}

func statementsOf(body ast.Node) []ast.Node {
	if body.Kind() == KindBlock {
		return body.Children()
	}
	return []ast.Node{body}
}

func (b *builder) warn(kind, msg string, offset int) {
	b.warnings = append(b.warnings, ir.Warning{Kind: kind, Message: msg, Offset: offset})
}

func (b *builder) temp(prefix string) ir.Variable {
	b.tempSeq++
	return ir.Variable{Name: fmt.Sprintf("$%s%d", prefix, b.tempSeq), Version: ir.NoVersion}
}

// lowerStmt lowers one statement into block `cur`, returning the block flow
// continues in, or ir.InvalidBlock if the statement terminated (return,
// throw, or every path through it did).
func (b *builder) lowerStmt(cur ir.BlockID, n ast.Node) ir.BlockID {
	switch n.Kind() {
	case KindBlock:
		for _, s := range n.Children() {
			cur = b.lowerStmt(cur, s)
			if cur == ir.InvalidBlock {
				return ir.InvalidBlock
			}
		}
		return cur

	case KindEmpty:
		return cur

	case KindExprStmt:
		_, cur = b.lowerExpr(cur, n.Children()[0])
		return cur

	case KindAssign, KindVarDecl:
		return b.lowerAssign(cur, n)

	case KindStoreFld:
		return b.lowerStoreField(cur, n)

	case KindStoreIdx:
		return b.lowerStoreIndex(cur, n)

	case KindReturn:
		var v ir.Value
		if len(n.Children()) > 0 {
			v, cur = b.lowerExpr(cur, n.Children()[0])
		}
		b.cfg.Block(cur).Append(ir.NewReturn(n.Offset(), v))
		return ir.InvalidBlock

	case KindThrow:
		v, cur := b.lowerExpr(cur, n.Children()[0])
		b.cfg.Block(cur).Append(ir.NewThrow(n.Offset(), v))
		return ir.InvalidBlock

	case KindIf:
		return b.lowerIf(cur, n)

	case KindWhile:
		return b.lowerWhile(cur, n)

	case KindDoWhile:
		return b.lowerDoWhile(cur, n)

	case KindFor:
		return b.lowerFor(cur, n)

	case KindForIn:
		return b.lowerForIn(cur, n)

	case KindTry:
		return b.lowerTry(cur, n)

	case KindSwitch:
		return b.lowerSwitch(cur, n)

	default:
		// Unmodeled construct: emit a generic call and keep going rather
		// than aborting (spec.md §4.1 failure semantics).
		b.warn("unmodeled-construct", fmt.Sprintf("unrecognized statement kind %q", n.Kind()), n.Offset())
		b.cfg.Block(cur).Append(ir.NewCallInstr(n.Offset(), nil, "<unmodeled:"+n.Kind()+">", nil, nil))
		return cur
	}
}

func (b *builder) lowerAssign(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	target := children[0]
	tv := ir.Variable{Name: nodeName(target), Version: ir.NoVersion}

	if len(children) < 2 {
		return cur // declaration with no initializer: nothing to assign yet
	}
	val, next := b.lowerExpr(cur, children[1])
	b.cfg.Block(next).Append(ir.NewAssign(n.Offset(), tv, val))
	return next
}

func (b *builder) lowerStoreField(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	baseVal, cur := b.lowerExpr(cur, children[0])
	field := children[0].Text()
	if len(children) > 1 && children[1].Kind() == KindIdentifier {
		field = children[1].Text()
	}
	val, cur := b.lowerExpr(cur, children[len(children)-1])
	b.cfg.Block(cur).Append(ir.NewStoreField(n.Offset(), baseVal, field, val))
	return cur
}

func (b *builder) lowerStoreIndex(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	baseVal, cur := b.lowerExpr(cur, children[0])
	idxVal, cur := b.lowerExpr(cur, children[1])
	val, cur := b.lowerExpr(cur, children[2])
	b.cfg.Block(cur).Append(ir.NewStoreIndex(n.Offset(), baseVal, idxVal, val))
	return cur
}

func (b *builder) lowerIf(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	condVal, cur := b.lowerExpr(cur, children[0])

	thenID := b.cfg.NewBlock()
	var elseID ir.BlockID
	hasElse := len(children) > 2
	if hasElse {
		elseID = b.cfg.NewBlock()
	} else {
		elseID = b.cfg.NewBlock() // empty else, falls straight to merge
	}
	merge := b.cfg.NewBlock()

	b.cfg.Block(cur).Append(ir.NewBranch(n.Offset(), condVal, thenID, elseID))
	b.cfg.AddEdge(cur, thenID)
	b.cfg.AddEdge(cur, elseID)

	thenEnd := b.lowerStmt(thenID, children[1])
	if thenEnd != ir.InvalidBlock {
		b.cfg.Block(thenEnd).Append(ir.NewJump(n.Offset(), merge))
		b.cfg.AddEdge(thenEnd, merge)
	}

	if hasElse {
		elseEnd := b.lowerStmt(elseID, children[2])
		if elseEnd != ir.InvalidBlock {
			b.cfg.Block(elseEnd).Append(ir.NewJump(n.Offset(), merge))
			b.cfg.AddEdge(elseEnd, merge)
		}
	} else {
		b.cfg.Block(elseID).Append(ir.NewJump(n.Offset(), merge))
		b.cfg.AddEdge(elseID, merge)
	}

	if len(b.cfg.Predecessors(merge)) == 0 {
		return ir.InvalidBlock // both branches terminated
	}
	return merge
}

func (b *builder) lowerWhile(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	header := b.cfg.NewBlock()
	bodyID := b.cfg.NewBlock()
	exit := b.cfg.NewBlock()

	b.cfg.Block(cur).Append(ir.NewJump(n.Offset(), header))
	b.cfg.AddEdge(cur, header)

	condVal, condEnd := b.lowerExpr(header, children[0])
	b.cfg.Block(condEnd).Append(ir.NewBranch(n.Offset(), condVal, bodyID, exit))
	b.cfg.AddEdge(condEnd, bodyID)
	b.cfg.AddEdge(condEnd, exit)

	bodyEnd := b.lowerStmt(bodyID, children[1])
	if bodyEnd != ir.InvalidBlock {
		b.cfg.Block(bodyEnd).Append(ir.NewJump(n.Offset(), header))
		b.cfg.AddEdge(bodyEnd, header)
	}
	return exit
}

func (b *builder) lowerDoWhile(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	bodyID := b.cfg.NewBlock()
	exit := b.cfg.NewBlock()

	b.cfg.Block(cur).Append(ir.NewJump(n.Offset(), bodyID))
	b.cfg.AddEdge(cur, bodyID)

	bodyEnd := b.lowerStmt(bodyID, children[0])
	if bodyEnd == ir.InvalidBlock {
		return exit
	}
	condVal, condEnd := b.lowerExpr(bodyEnd, children[1])
	b.cfg.Block(condEnd).Append(ir.NewBranch(n.Offset(), condVal, bodyID, exit))
	b.cfg.AddEdge(condEnd, bodyID)
	b.cfg.AddEdge(condEnd, exit)
	return exit
}

func (b *builder) lowerFor(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	initStmt, condExpr, updateStmt, bodyStmt := children[0], children[1], children[2], children[3]

	cur = b.lowerStmt(cur, initStmt)
	if cur == ir.InvalidBlock {
		return ir.InvalidBlock
	}

	header := b.cfg.NewBlock()
	bodyID := b.cfg.NewBlock()
	exit := b.cfg.NewBlock()

	b.cfg.Block(cur).Append(ir.NewJump(n.Offset(), header))
	b.cfg.AddEdge(cur, header)

	condVal, condEnd := b.lowerExpr(header, condExpr)
	b.cfg.Block(condEnd).Append(ir.NewBranch(n.Offset(), condVal, bodyID, exit))
	b.cfg.AddEdge(condEnd, bodyID)
	b.cfg.AddEdge(condEnd, exit)

	bodyEnd := b.lowerStmt(bodyID, bodyStmt)
	if bodyEnd != ir.InvalidBlock {
		bodyEnd = b.lowerStmt(bodyEnd, updateStmt)
	}
	if bodyEnd != ir.InvalidBlock {
		b.cfg.Block(bodyEnd).Append(ir.NewJump(n.Offset(), header))
		b.cfg.AddEdge(bodyEnd, header)
	}
	return exit
}

func (b *builder) lowerForIn(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	iterable, body := children[0], children[1]

	header := b.cfg.NewBlock()
	bodyID := b.cfg.NewBlock()
	exit := b.cfg.NewBlock()

	iterVal, cur := b.lowerExpr(cur, iterable)
	iterVar := b.temp("iter")
	b.cfg.Block(cur).Append(ir.NewAssign(n.Offset(), iterVar, iterVal))
	b.cfg.Block(cur).Append(ir.NewJump(n.Offset(), header))
	b.cfg.AddEdge(cur, header)

	// The iterator-step call (hasNext()/next()) is modeled as a call whose
	// result drives the branch, per spec.md §4.1.
	stepResult := b.temp("step")
	b.cfg.Block(header).Append(ir.NewCallInstr(n.Offset(), ir.VariableRef{Var: iterVar}, "moveNext", nil, &stepResult))
	b.cfg.Block(header).Append(ir.NewBranch(n.Offset(), ir.VariableRef{Var: stepResult}, bodyID, exit))
	b.cfg.AddEdge(header, bodyID)
	b.cfg.AddEdge(header, exit)

	loopVar := ir.Variable{Name: nodeName(n), Version: ir.NoVersion}
	if loopVar.Name == "" {
		loopVar = b.temp("loopvar")
	}
	b.cfg.Block(bodyID).Append(ir.NewAssign(n.Offset(), loopVar, ir.VariableRef{Var: iterVar}))

	bodyEnd := b.lowerStmt(bodyID, body)
	if bodyEnd != ir.InvalidBlock {
		b.cfg.Block(bodyEnd).Append(ir.NewJump(n.Offset(), header))
		b.cfg.AddEdge(bodyEnd, header)
	}
	return exit
}

// lowerTry models try/catch/finally conservatively: a normal-flow edge from
// every block of the try region to each catch-entry (spec.md §4.1), and a
// synthetic finally block appended to every exit path.
func (b *builder) lowerTry(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	tryBlock := children[0]
	var catches []ast.Node
	var finallyNode ast.Node
	for _, c := range children[1:] {
		switch c.Kind() {
		case KindCatch:
			catches = append(catches, c)
		case KindFinally:
			finallyNode = c
		}
	}

	tryID := b.cfg.NewBlock()
	b.cfg.Block(cur).Append(ir.NewJump(n.Offset(), tryID))
	b.cfg.AddEdge(cur, tryID)

	preTryBlocks := len(b.cfg.Blocks())
	tryEnd := b.lowerStmt(tryID, tryBlock)
	postTryBlocks := len(b.cfg.Blocks())

	catchEntries := make([]ir.BlockID, 0, len(catches))
	catchExits := make([]ir.BlockID, 0, len(catches))
	for _, c := range catches {
		entry := b.cfg.NewBlock()
		catchEntries = append(catchEntries, entry)
		body := c.Children()[len(c.Children())-1]
		end := b.lowerStmt(entry, body)
		catchExits = append(catchExits, end)
	}

	// Conservative edges from every block allocated during try-lowering to
	// each catch entry (any instruction in the try region might throw).
	for _, blk := range b.cfg.Blocks()[max0(preTryBlocks-1):postTryBlocks] {
		if blk.ID == tryID || isDescendantOfTry(blk.ID, tryID, catchEntries) {
			for _, ce := range catchEntries {
				b.cfg.AddEdge(blk.ID, ce)
			}
		}
	}

	merge := b.cfg.NewBlock()
	liveExits := []ir.BlockID{}
	if tryEnd != ir.InvalidBlock {
		liveExits = append(liveExits, tryEnd)
	}
	for _, ce := range catchExits {
		if ce != ir.InvalidBlock {
			liveExits = append(liveExits, ce)
		}
	}

	if finallyNode != nil {
		finallyID := b.cfg.NewBlock()
		for _, exitID := range liveExits {
			b.cfg.Block(exitID).Append(ir.NewJump(n.Offset(), finallyID))
			b.cfg.AddEdge(exitID, finallyID)
		}
		finallyEnd := b.lowerStmt(finallyID, finallyNode)
		if finallyEnd == ir.InvalidBlock {
			return ir.InvalidBlock
		}
		b.cfg.Block(finallyEnd).Append(ir.NewJump(n.Offset(), merge))
		b.cfg.AddEdge(finallyEnd, merge)
	} else {
		for _, exitID := range liveExits {
			b.cfg.Block(exitID).Append(ir.NewJump(n.Offset(), merge))
			b.cfg.AddEdge(exitID, merge)
		}
	}

	if len(b.cfg.Predecessors(merge)) == 0 {
		return ir.InvalidBlock
	}
	return merge
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// isDescendantOfTry is a coarse reachability check used only to decide which
// blocks get the conservative catch edge; every block allocated while
// lowering the try body is reachable from tryID by construction.
func isDescendantOfTry(id, tryID ir.BlockID, catchEntries []ir.BlockID) bool {
	for _, ce := range catchEntries {
		if id == ce {
			return false
		}
	}
	return true
}

func (b *builder) lowerSwitch(cur ir.BlockID, n ast.Node) ir.BlockID {
	children := n.Children()
	discVal, cur := b.lowerExpr(cur, children[0])
	cases := children[1:]

	merge := b.cfg.NewBlock()
	caseIDs := make([]ir.BlockID, len(cases))
	for i := range cases {
		caseIDs[i] = b.cfg.NewBlock()
	}

	dispatch := cur
	hasDefault := false
	for i, c := range cases {
		if c.Text() == "" { // default
			hasDefault = true
			b.cfg.Block(dispatch).Append(ir.NewJump(n.Offset(), caseIDs[i]))
			b.cfg.AddEdge(dispatch, caseIDs[i])
			continue
		}
		caseVal := ir.Constant{Literal: ir.Literal{Kind: ir.LiteralString, Str: c.Text()}}
		cmp := ir.BinaryOp{Op: "==", Left: discVal, Right: caseVal}
		nextDispatch := b.cfg.NewBlock()
		b.cfg.Block(dispatch).Append(ir.NewBranch(n.Offset(), cmp, caseIDs[i], nextDispatch))
		b.cfg.AddEdge(dispatch, caseIDs[i])
		b.cfg.AddEdge(dispatch, nextDispatch)
		dispatch = nextDispatch
	}
	if !hasDefault {
		// no default: the last synthetic dispatch block falls through to merge
		b.cfg.Block(dispatch).Append(ir.NewJump(n.Offset(), merge))
		b.cfg.AddEdge(dispatch, merge)
	}

	for i, c := range cases {
		body := c.Children()[0]
		end := b.lowerStmt(caseIDs[i], body)
		if end != ir.InvalidBlock {
			// Fall-through to the next case, or to merge for the last one
			// (spec.md §4.1: "fall-through creates jumps to next case").
			target := merge
			if i+1 < len(caseIDs) {
				target = caseIDs[i+1]
			}
			b.cfg.Block(end).Append(ir.NewJump(n.Offset(), target))
			b.cfg.AddEdge(end, target)
		}
	}

	if len(b.cfg.Predecessors(merge)) == 0 {
		return ir.InvalidBlock
	}
	return merge
}
