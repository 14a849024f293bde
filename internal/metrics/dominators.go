package metrics

import "anteater/internal/ir"

// dominatorTree maps each reachable block to its immediate dominator.
// Computed with the classic iterative Cooper/Harvey/Kennedy algorithm over
// reverse postorder, the same fixed-point-over-a-small-graph shape the CFG
// package already uses for ReversePostOrder.
func dominatorTree(cfg *ir.ControlFlowGraph) map[ir.BlockID]ir.BlockID {
	rpo := cfg.ReversePostOrder()
	index := make(map[ir.BlockID]int, len(rpo))
	for i, id := range rpo {
		index[id] = i
	}

	idom := make(map[ir.BlockID]ir.BlockID, len(rpo))
	idom[cfg.Entry] = cfg.Entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == cfg.Entry {
				continue
			}
			var newIdom ir.BlockID
			set := false
			for _, p := range cfg.Predecessors(b) {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !set {
					newIdom = p
					set = true
					continue
				}
				newIdom = intersect(idom, index, newIdom, p)
			}
			if !set {
				continue
			}
			if prev, ok := idom[b]; !ok || prev != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, cfg.Entry) // entry has no dominator other than itself
	return idom
}

func intersect(idom map[ir.BlockID]ir.BlockID, index map[ir.BlockID]int, a, b ir.BlockID) ir.BlockID {
	for a != b {
		for index[a] > index[b] {
			a = idom[a]
		}
		for index[b] > index[a] {
			b = idom[b]
		}
	}
	return a
}

// nestingDepths returns, for every reachable block, how many ancestor
// branch points (blocks ending in ir.Branch) strictly dominate it. Used by
// CognitiveComplexity to weight nested decision points more heavily than
// sequential ones (spec.md §9's nesting-aware complexity family).
func nestingDepths(cfg *ir.ControlFlowGraph) map[ir.BlockID]int {
	idom := dominatorTree(cfg)
	depth := make(map[ir.BlockID]int)
	depth[cfg.Entry] = 0

	var resolve func(ir.BlockID) int
	resolve = func(b ir.BlockID) int {
		if d, ok := depth[b]; ok {
			return d
		}
		parent := idom[b]
		d := resolve(parent)
		if _, isBranch := cfg.Block(parent).Terminator().(ir.Branch); isBranch {
			d++
		}
		depth[b] = d
		return d
	}

	for _, id := range cfg.ReversePostOrder() {
		resolve(id)
	}
	return depth
}
