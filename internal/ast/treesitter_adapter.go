package ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// FromTreeSitter wraps a go-tree-sitter parse tree so it satisfies Node,
// letting the CFG builder consume a real grammar's output without importing
// go-tree-sitter itself. This is a reference adapter, not a hard dependency
// of the core IR: any other parser that can produce a Node tree is an equally
// valid frontend (spec.md §1 treats the AST as an external collaborator).
func FromTreeSitter(root *sitter.Node, src []byte) Node {
	if root == nil {
		return nil
	}
	return &tsNode{n: root, src: src}
}

type tsNode struct {
	n   *sitter.Node
	src []byte
}

func (t *tsNode) Kind() string { return t.n.Type() }

func (t *tsNode) Offset() int { return int(t.n.StartByte()) }

func (t *tsNode) Text() string { return t.n.Content(t.src) }

func (t *tsNode) Children() []Node {
	count := int(t.n.ChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		c := t.n.Child(i)
		if c == nil || !c.IsNamed() {
			continue
		}
		out = append(out, &tsNode{n: c, src: t.src})
	}
	return out
}

// Name implements Named for identifier-carrying declaration nodes by
// looking up tree-sitter's "name" field, the convention shared by the
// go/javascript/typescript/python/rust grammars.
func (t *tsNode) Name() string {
	if nameNode := t.n.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(t.src)
	}
	return ""
}
