package style

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"anteater/internal/ast"
)

// scriptSymbols exposes the subset of internal/ast and internal/style that
// script rules need, in the same map shape yaegi's own `extract` tool
// generates for stdlib (github.com/traefik/yaegi/stdlib.Symbols). Hand-
// written here since script rules only need a handful of types, not a
// whole-package export.
var scriptSymbols = interp.Exports{
	"anteater/internal/ast/ast": {
		"Node":     reflect.ValueOf((*ast.Node)(nil)),
		"Named":    reflect.ValueOf((*ast.Named)(nil)),
		"Typed":    reflect.ValueOf((*ast.Typed)(nil)),
		"Walk":     reflect.ValueOf(ast.Walk),
		"Child":    reflect.ValueOf(ast.Child),
		"Children": reflect.ValueOf(ast.ChildrenOfKind),
	},
	"anteater/internal/style/style": {
		"Violation":       reflect.ValueOf((*Violation)(nil)),
		"Severity":        reflect.ValueOf((*Severity)(nil)),
		"SeverityError":   reflect.ValueOf(SeverityError),
		"SeverityWarning": reflect.ValueOf(SeverityWarning),
		"SeverityInfo":    reflect.ValueOf(SeverityInfo),
	},
}
