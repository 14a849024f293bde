package style

import (
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"anteater/internal/ast"
)

// scriptRule is a Rule whose body is interpreted Go source rather than
// compiled code, letting users extend the registry without recompiling
// anteater (SPEC_FULL.md §3.4). Grounded on the teacher's
// internal/autopoiesis/yaegi_executor.go sandboxed-interpreter pattern,
// narrowed to this one call shape instead of a general tool-execution
// sandbox.
type scriptRule struct {
	id       string
	severity Severity
	check    func(ast.Node) []Violation
}

func (r *scriptRule) ID() string                 { return r.id }
func (r *scriptRule) DefaultSeverity() Severity  { return r.severity }
func (r *scriptRule) Check(f ast.Node) []Violation { return r.check(f) }

// LoadScriptRule interprets source (expected to define
// `func Check(f ast.Node) []style.Violation`) with yaegi and returns a
// Rule wrapping it. The interpreter is given yaegi's full standard-library
// symbol table (stdlib.Symbols, which includes os, os/exec and net) plus
// this package's scriptSymbols, so a script rule is not sandboxed: it has
// the same filesystem, network and process access as anteater itself.
func LoadScriptRule(id string, severity Severity, source string) (Rule, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("style: load stdlib symbols: %w", err)
	}
	if err := i.Use(scriptSymbols); err != nil {
		return nil, fmt.Errorf("style: load ast/style symbols: %w", err)
	}

	if _, err := i.Eval(source); err != nil {
		return nil, fmt.Errorf("style: script rule %s failed to load: %w", id, err)
	}

	v, err := i.Eval("script.Check")
	if err != nil {
		return nil, fmt.Errorf("style: script rule %s has no Check function: %w", id, err)
	}
	fn, ok := v.Interface().(func(ast.Node) []Violation)
	if !ok {
		return nil, fmt.Errorf("style: script rule %s's Check has the wrong signature, want func(ast.Node) []style.Violation", id)
	}

	return &scriptRule{id: id, severity: severity, check: fn}, nil
}
