package style

import (
	"fmt"
	"strings"

	"anteater/internal/ast"
	"anteater/internal/config"
	"anteater/internal/logging"
)

// Rule is one lint check: a default severity plus a Check function walking
// an already-parsed file's AST. Implementers can satisfy this with a plain
// function (ruleFunc below) or a struct for rules that need setup state.
type Rule interface {
	ID() string
	DefaultSeverity() Severity
	Check(file ast.Node) []Violation
}

type ruleFunc struct {
	id       string
	severity Severity
	check    func(ast.Node) []Violation
}

func (r *ruleFunc) ID() string                 { return r.id }
func (r *ruleFunc) DefaultSeverity() Severity  { return r.severity }
func (r *ruleFunc) Check(f ast.Node) []Violation { return r.check(f) }

// newRule builds a Rule from a bare check function, the common case for
// built-in rules.
func newRule(id string, severity Severity, check func(ast.Node) []Violation) Rule {
	return &ruleFunc{id: id, severity: severity, check: check}
}

// ruleConfig is one rule's resolved configuration: effective severity plus
// its own exclude globs (spec.md §6: "enabled rules and per-rule
// overrides").
type ruleConfig struct {
	severity Severity
	exclude  []string
}

// Registry holds every enabled rule plus its resolved per-rule config.
// Registration preserves insertion order (spec.md §9's rule-ordering
// note, carried over from the Datalog rule capability to this analogous
// registry).
type Registry struct {
	rules   []Rule
	configs map[string]ruleConfig
}

// NewRegistry builds a Registry from cfg.Rules: bare string entries enable
// a built-in rule at its default severity; map entries may override
// severity and add an exclude list. An unknown rule id is a configuration
// warning, not a fatal error — the rest of the registry still loads.
func NewRegistry(cfg config.Config, builtins []Rule) *Registry {
	log := logging.Get(logging.CategoryStyle)

	byID := make(map[string]Rule, len(builtins))
	for _, r := range builtins {
		byID[r.ID()] = r
	}

	reg := &Registry{configs: make(map[string]ruleConfig)}
	for _, entry := range cfg.Rules {
		rule, ok := byID[entry.ID]
		if !ok {
			log.Warn("style: unknown rule %q in configuration, skipping", entry.ID)
			continue
		}
		rc := ruleConfig{severity: rule.DefaultSeverity(), exclude: entry.Exclude}
		if entry.Severity != "" {
			rc.severity = Severity(entry.Severity)
		}
		reg.rules = append(reg.rules, rule)
		reg.configs[rule.ID()] = rc
	}
	return reg
}

// AddScriptRule registers an already-loaded script rule (internal/style's
// yaegi-interpreted rules, see script_rule.go) at its declared severity.
func (reg *Registry) AddScriptRule(rule Rule, severity Severity, exclude []string) {
	if severity == "" {
		severity = rule.DefaultSeverity()
	}
	reg.rules = append(reg.rules, rule)
	reg.configs[rule.ID()] = ruleConfig{severity: severity, exclude: exclude}
}

// Run checks file (located at path) against every registered rule,
// applying each rule's resolved severity and exclude globs. A rule whose
// Check panics is demoted to a single synthetic warning-severity
// violation per spec.md §7 ("Rule execution failures... Demoted to a
// synthetic warning-severity violation `Rule analysis failed: <first
// line>`; other rules continue"), never aborting the remaining rules.
// source is the file's raw content: rule Check functions report a
// Violation's Line as the node's raw byte offset (see lineHint in
// rules_builtin.go), and Run translates that offset into a real 1-based
// line number here, once, in a place that knows the source text.
func (reg *Registry) Run(path string, file ast.Node, source []byte) []Violation {
	log := logging.Get(logging.CategoryStyle)
	var out []Violation

	for _, rule := range reg.rules {
		rc := reg.configs[rule.ID()]
		if matchesAny(path, rc.exclude) {
			continue
		}
		out = append(out, reg.runOne(rule, rc, path, file, source, log)...)
	}
	return out
}

func (reg *Registry) runOne(rule Rule, rc ruleConfig, path string, file ast.Node, source []byte, log *logging.Logger) (violations []Violation) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("style: rule %s panicked on %s: %v", rule.ID(), path, r)
			violations = []Violation{{
				RuleID:   rule.ID(),
				Severity: SeverityWarning,
				File:     path,
				Line:     1,
				Message:  fmt.Sprintf("Rule analysis failed: %s", firstLine(fmt.Sprint(r))),
			}}
		}
	}()

	found := rule.Check(file)
	for i := range found {
		found[i].RuleID = rule.ID()
		found[i].Severity = rc.severity
		found[i].Line = lineAt(source, found[i].Line)
		if found[i].File == "" {
			found[i].File = path
		}
	}
	return found
}

// lineAt returns the 1-based line number containing byte offset in source,
// the same computation internal/metrics uses for function start/end lines.
func lineAt(source []byte, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(source) {
		offset = len(source)
	}
	count := 1
	for _, b := range source[:offset] {
		if b == '\n' {
			count++
		}
	}
	return count
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func matchesAny(path string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := matchGlob(g, path); ok {
			return true
		}
	}
	return false
}
