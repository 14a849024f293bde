package style

import (
	"testing"

	"github.com/stretchr/testify/require"

	"anteater/internal/ast"
	"anteater/internal/cfgbuild"
	"anteater/internal/config"
)

// fakeNode is a minimal hand-built ast.Node for rule tests, avoiding any
// real grammar dependency (the same approach internal/cfgbuild's own
// tests use).
type fakeNode struct {
	kind     string
	text     string
	offset   int
	children []ast.Node
}

func (n *fakeNode) Kind() string        { return n.kind }
func (n *fakeNode) Children() []ast.Node { return n.children }
func (n *fakeNode) Offset() int          { return n.offset }
func (n *fakeNode) Text() string         { return n.text }

func node(kind string, children ...ast.Node) *fakeNode {
	return &fakeNode{kind: kind, children: children}
}

func TestCheckEmptyCatchBlockFlagsEmptyBody(t *testing.T) {
	file := node(cfgbuild.KindBlock,
		node(cfgbuild.KindTry,
			node(cfgbuild.KindCatch, node(cfgbuild.KindBlock)),
		),
	)
	violations := checkEmptyCatchBlock(file)
	require.Len(t, violations, 1)
}

func TestCheckEmptyCatchBlockIgnoresNonEmptyBody(t *testing.T) {
	file := node(cfgbuild.KindBlock,
		node(cfgbuild.KindTry,
			node(cfgbuild.KindCatch, node(cfgbuild.KindBlock, node(cfgbuild.KindAssign))),
		),
	)
	require.Empty(t, checkEmptyCatchBlock(file))
}

func TestCheckAvoidPrintFindsBareCall(t *testing.T) {
	call := &fakeNode{kind: cfgbuild.KindCall, text: "print"}
	file := node(cfgbuild.KindBlock, call)
	violations := checkAvoidPrint(file)
	require.Len(t, violations, 1)
}

func TestCheckBooleanLiteralComparisonFindsEqualsTrue(t *testing.T) {
	bin := &fakeNode{kind: cfgbuild.KindBinary, text: "==", children: []ast.Node{
		node(cfgbuild.KindIdentifier), node(cfgbuild.KindLiteralBool),
	}}
	violations := checkBooleanLiteralComparison(node(cfgbuild.KindBlock, bin))
	require.Len(t, violations, 1)
}

func TestRegistryRunAppliesSeverityOverrideAndExclude(t *testing.T) {
	cfg := config.Config{
		Rules: []config.RuleEntry{
			{ID: "avoid-print", Severity: "error"},
		},
	}
	reg := NewRegistry(cfg, Builtins())

	file := node(cfgbuild.KindBlock, &fakeNode{kind: cfgbuild.KindCall, text: "print"})
	violations := reg.Run("a.dart", file, []byte("x(); print('hi');\n"))
	require.Len(t, violations, 1)
	require.Equal(t, SeverityError, violations[0].Severity)

	cfg.Rules[0].Exclude = []string{"lib/**"}
	excluded := NewRegistry(cfg, Builtins()).Run("lib/a.dart", file, []byte("x(); print('hi');\n"))
	require.Empty(t, excluded)
}

func TestRegistrySkipsUnknownRuleID(t *testing.T) {
	cfg := config.Config{Rules: []config.RuleEntry{{ID: "no-such-rule"}}}
	reg := NewRegistry(cfg, Builtins())
	require.Empty(t, reg.Run("a.dart", node(cfgbuild.KindBlock), nil))
}

// panicRule always panics, exercising the per-rule recovery/demotion path.
type panicRule struct{}

func (panicRule) ID() string                { return "panics" }
func (panicRule) DefaultSeverity() Severity { return SeverityError }
func (panicRule) Check(ast.Node) []Violation {
	panic("boom: first line\nsecond line")
}

func TestRegistryDemotesPanickingRuleToWarning(t *testing.T) {
	cfg := config.Config{Rules: []config.RuleEntry{{ID: "panics"}}}
	reg := NewRegistry(cfg, []Rule{panicRule{}})

	violations := reg.Run("a.dart", node(cfgbuild.KindBlock), nil)
	require.Len(t, violations, 1)
	require.Equal(t, SeverityWarning, violations[0].Severity)
	require.Contains(t, violations[0].Message, "boom: first line")
	require.NotContains(t, violations[0].Message, "second line")
}

func TestMatchGlobDoubleStar(t *testing.T) {
	ok, err := matchGlob("**/*_test.dart", "lib/sub/foo_test.dart")
	require.NoError(t, err)
	require.True(t, ok)
}
