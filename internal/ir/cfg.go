package ir

import "fmt"

// BlockID is a dense integer id assigned by the CFG builder. Predecessor and
// successor sets hold BlockIDs, never object references (spec.md §9: arena
// storage, not a pointer graph).
type BlockID int

// InvalidBlock is the zero-value sentinel for "no such block".
const InvalidBlock BlockID = -1

// BasicBlock is a straight-line sequence of instructions with no internal
// control flow. Ownership is exclusive to the enclosing ControlFlowGraph.
type BasicBlock struct {
	ID           BlockID
	Instructions []Instruction
	Predecessors map[BlockID]struct{}
	Successors   map[BlockID]struct{}
}

func newBlock(id BlockID) *BasicBlock {
	return &BasicBlock{
		ID:           id,
		Predecessors: make(map[BlockID]struct{}),
		Successors:   make(map[BlockID]struct{}),
	}
}

// Append adds an instruction to the end of the block.
func (b *BasicBlock) Append(instr Instruction) {
	b.Instructions = append(b.Instructions, instr)
}

// Terminator returns the block's last instruction, or nil if empty.
func (b *BasicBlock) Terminator() Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// Phis returns the PhiInstr instructions at the head of the block
// (spec.md I5: phis appear only at the head).
func (b *BasicBlock) Phis() []PhiInstr {
	var out []PhiInstr
	for _, instr := range b.Instructions {
		if phi, ok := instr.(PhiInstr); ok {
			out = append(out, phi)
			continue
		}
		break
	}
	return out
}

// ControlFlowGraph is the dense-arena CFG of one function/method/constructor
// body. Invariants I1-I6 of spec.md §3 are maintained by the builder and SSA
// packages, never violated by direct mutation from elsewhere.
type ControlFlowGraph struct {
	FunctionName string
	Entry        BlockID
	blocks       map[BlockID]*BasicBlock
	order        []BlockID // insertion order, stable regardless of map iteration
	nextID       BlockID
}

// NewControlFlowGraph creates an empty CFG and its entry block.
func NewControlFlowGraph(functionName string) *ControlFlowGraph {
	cfg := &ControlFlowGraph{
		FunctionName: functionName,
		blocks:       make(map[BlockID]*BasicBlock),
	}
	cfg.Entry = cfg.NewBlock()
	return cfg
}

// NewBlock allocates and registers a fresh block, returning its id.
func (c *ControlFlowGraph) NewBlock() BlockID {
	id := c.nextID
	c.nextID++
	c.blocks[id] = newBlock(id)
	c.order = append(c.order, id)
	return id
}

// Block returns the block for id. Panics on an unknown id: a CFG consumer
// asking for a block that was never allocated is a builder bug, not a
// recoverable condition (spec.md §7 reserves "fatal" for bugs in the core
// engines).
func (c *ControlFlowGraph) Block(id BlockID) *BasicBlock {
	b, ok := c.blocks[id]
	if !ok {
		panic(fmt.Sprintf("ir: unknown block id %d", id))
	}
	return b
}

// Blocks returns every block in allocation order.
func (c *ControlFlowGraph) Blocks() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.blocks[id])
	}
	return out
}

// Len reports how many blocks the CFG owns.
func (c *ControlFlowGraph) Len() int { return len(c.blocks) }

// AddEdge links from->to, updating both sides' predecessor/successor sets
// (invariant I3).
func (c *ControlFlowGraph) AddEdge(from, to BlockID) {
	c.Block(from).Successors[to] = struct{}{}
	c.Block(to).Predecessors[from] = struct{}{}
}

// RemoveEdge undoes AddEdge.
func (c *ControlFlowGraph) RemoveEdge(from, to BlockID) {
	delete(c.Block(from).Successors, to)
	delete(c.Block(to).Predecessors, from)
}

// ReversePostOrder computes reverse postorder from Entry, used by SSA
// construction (spec.md §4.2 step 2) and by clients that need a
// deterministic, forward-friendly traversal. Unreachable blocks are omitted
// (invariant I2 only promises every *reachable* block is in Blocks()).
func (c *ControlFlowGraph) ReversePostOrder() []BlockID {
	visited := make(map[BlockID]bool, len(c.blocks))
	var post []BlockID

	var visit func(BlockID)
	visit = func(id BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true
		b := c.blocks[id]
		succs := sortedIDs(b.Successors)
		for _, s := range succs {
			visit(s)
		}
		post = append(post, id)
	}
	visit(c.Entry)

	rpo := make([]BlockID, len(post))
	for i, id := range post {
		rpo[len(post)-1-i] = id
	}
	return rpo
}

// Predecessors returns the sorted predecessor ids of a block, a convenience
// over the raw set used by SSA/abstract-interpretation code that needs
// deterministic iteration.
func (c *ControlFlowGraph) Predecessors(id BlockID) []BlockID {
	return sortedIDs(c.Block(id).Predecessors)
}

// Successors returns the sorted successor ids of a block.
func (c *ControlFlowGraph) Successors(id BlockID) []BlockID {
	return sortedIDs(c.Block(id).Successors)
}

func sortedIDs(set map[BlockID]struct{}) []BlockID {
	out := make([]BlockID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	// Insertion-sort is fine: blocks-per-function is small and this keeps
	// the package free of a sort.Slice import for a handful of elements.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
