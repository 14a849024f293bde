// Package pipeline wires the per-file analysis chain — parse, lower to
// CFG/SSA, extract Datalog facts, abstract-interpret, measure, detect debt
// and style violations — and drives it across a project via
// internal/walker (spec.md §5/§7).
package pipeline

import (
	"anteater/internal/ast"
	"anteater/internal/ir"
)

// FunctionDecl is one function, method, or constructor a Frontend found in
// a parsed file: enough for internal/cfgbuild to lower it and
// internal/metrics to report it under a stable name and offset.
type FunctionDecl struct {
	QualifiedName string
	Body          ast.Node // the statement list cfgbuild.Build lowers; nil for an empty/abstract member
	Params        []ir.Variable
	Offset        int
	EndOffset     int
}

// Frontend parses one file's source into an internal/ast.Node tree and
// discovers its function-like declarations. spec.md explicitly keeps
// "embedding or wrapping a specific parser library" out of scope, and no
// Dart-specific tree-sitter grammar binding ships in this module's
// dependency set — so Pipeline depends on this interface rather than a
// concrete parser, the same swappable seam internal/cfgbuild already
// draws between ast.Node and any one grammar. internal/ast.FromTreeSitter
// adapts a *sitter.Node into this tree once a caller supplies a grammar;
// Functions still needs to walk that tree to find declarations, which is
// grammar-specific and therefore also left to the Frontend implementation
// a deployment provides. registry.go's RegisterFrontend/LookupFrontend let
// such an implementation wire itself in by name from its own init(),
// instead of cmd/anteater importing a concrete grammar package directly.
type Frontend interface {
	// Parse turns source into a root ast.Node for path. path is passed
	// through for diagnostics only.
	Parse(path string, source []byte) (ast.Node, error)
	// Functions returns every function/method/constructor declaration
	// findable under root, in source order.
	Functions(root ast.Node) []FunctionDecl
}
