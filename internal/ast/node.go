// Package ast defines the generic, parser-agnostic AST contract the CFG
// builder consumes. Per spec.md §1, producing or wrapping one specific
// parser is out of scope; this package only fixes the shape a parser's
// output must have. See treesitter_adapter.go for one concrete, swappable
// adapter and builder.go (Builder) for the hand-built trees tests use instead
// of a real grammar.
package ast

// Node is the minimal surface the frontend (internal/cfgbuild) needs from a
// parsed, type-annotated syntax tree: a node kind (e.g. "if_statement",
// "method_declaration", "binary_expression"), its children in source order,
// a byte offset for diagnostics, and its literal source text where needed
// (identifier names, literal values).
type Node interface {
	Kind() string
	Children() []Node
	Offset() int
	Text() string
}

// Typed is implemented by nodes that additionally carry static type
// information, as spec.md's "typed, object-oriented language with optional
// types [and] nullable references" implies. Implementations that don't
// track types simply don't implement it; consumers type-assert.
type Typed interface {
	Node
	// DeclaredType returns the node's static type name, or "" if untyped/inferred.
	DeclaredType() string
	// Nullable reports whether the declared type is a nullable/optional reference.
	Nullable() bool
}

// Named is implemented by declaration-like nodes (functions, methods,
// classes, variables, parameters) that carry an identifier distinct from
// their full source text.
type Named interface {
	Node
	Name() string
}

// Child returns the first child whose Kind matches, or nil.
func Child(n Node, kind string) Node {
	for _, c := range n.Children() {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns every direct child whose Kind matches.
func ChildrenOfKind(n Node, kind string) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk calls visit for n and every descendant, depth-first, pre-order.
// Returning false from visit skips that node's children.
func Walk(n Node, visit func(Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, visit)
	}
}
