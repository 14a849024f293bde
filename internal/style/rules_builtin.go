package style

import (
	"anteater/internal/ast"
	"anteater/internal/cfgbuild"
)

// Builtins returns the registry's default rule set. Each rule walks a
// file's AST directly (spec.md §2's "per-rule AST visitor" contract) using
// the same normalized node-kind vocabulary internal/cfgbuild lowers from,
// so a rule and the CFG builder agree on what an "if", a "call", or a
// "catch" node looks like without depending on any one concrete grammar.
func Builtins() []Rule {
	return []Rule{
		newRule("empty-catch-block", SeverityWarning, checkEmptyCatchBlock),
		newRule("avoid-print", SeverityInfo, checkAvoidPrint),
		newRule("boolean-literal-comparison", SeverityWarning, checkBooleanLiteralComparison),
		newRule("empty-if-body", SeverityWarning, checkEmptyIfBody),
	}
}

func callName(n ast.Node) string {
	if named, ok := n.(ast.Named); ok {
		if v := named.Name(); v != "" {
			return v
		}
	}
	return n.Text()
}

// checkEmptyCatchBlock flags a catch clause whose body has no statements —
// silently swallowing an exception is rarely intentional.
func checkEmptyCatchBlock(file ast.Node) []Violation {
	var out []Violation
	ast.Walk(file, func(n ast.Node) bool {
		if n.Kind() != cfgbuild.KindCatch {
			return true
		}
		children := n.Children()
		if len(children) == 0 {
			return true
		}
		body := children[len(children)-1]
		if body.Kind() == cfgbuild.KindBlock && len(body.Children()) == 0 {
			out = append(out, Violation{Line: lineHint(n), Message: "empty catch block silently discards the exception"})
		}
		return true
	})
	return out
}

// checkAvoidPrint flags direct calls to print(...), which in production
// code usually means a debugging leftover (spec.md §2's style-rules
// collaborator; a logging call should be used instead).
func checkAvoidPrint(file ast.Node) []Violation {
	var out []Violation
	ast.Walk(file, func(n ast.Node) bool {
		if n.Kind() == cfgbuild.KindCall && callName(n) == "print" {
			out = append(out, Violation{Line: lineHint(n), Message: "avoid print(); use a logger"})
		}
		return true
	})
	return out
}

// checkBooleanLiteralComparison flags `x == true`/`x == false`-shaped
// comparisons, which are always simplifiable to `x`/`!x`.
func checkBooleanLiteralComparison(file ast.Node) []Violation {
	var out []Violation
	ast.Walk(file, func(n ast.Node) bool {
		if n.Kind() != cfgbuild.KindBinary || n.Text() != "==" {
			return true
		}
		children := n.Children()
		if len(children) != 2 {
			return true
		}
		if children[0].Kind() == cfgbuild.KindLiteralBool || children[1].Kind() == cfgbuild.KindLiteralBool {
			out = append(out, Violation{Line: lineHint(n), Message: "comparison to a boolean literal can be simplified"})
		}
		return true
	})
	return out
}

// checkEmptyIfBody flags an `if` whose then-block has no statements — most
// often a leftover from refactoring.
func checkEmptyIfBody(file ast.Node) []Violation {
	var out []Violation
	ast.Walk(file, func(n ast.Node) bool {
		if n.Kind() != cfgbuild.KindIf {
			return true
		}
		for _, c := range n.Children() {
			if c.Kind() == cfgbuild.KindBlock && len(c.Children()) == 0 {
				out = append(out, Violation{Line: lineHint(n), Message: "if body is empty"})
				break
			}
		}
		return true
	})
	return out
}

// lineHint is a placeholder line number: the node's raw byte offset.
// Registry.Run replaces it with the real 1-based line number, computed from
// the file's source text the way internal/metrics.lineAt does.
func lineHint(n ast.Node) int { return n.Offset() }
