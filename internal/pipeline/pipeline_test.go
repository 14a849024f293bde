package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"anteater/internal/ast"
	"anteater/internal/cfgbuild"
	"anteater/internal/config"
	"anteater/internal/dup"
	"anteater/internal/store"
	"anteater/internal/style"
)

// fakeNode is the same hand-built ast.Node internal/style tests use in
// place of a real grammar (internal/cfgbuild tests build theirs with
// ast.New).
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

func ident(name string) ast.Node { return &fakeNode{kind: cfgbuild.KindIdentifier, text: name} }
func intLit(v string) ast.Node   { return &fakeNode{kind: cfgbuild.KindLiteralInt, text: v} }

func assignStmt(name string, val ast.Node) ast.Node {
	return &fakeNode{kind: cfgbuild.KindAssign, children: []ast.Node{ident(name), val}}
}

func blockOf(stmts ...ast.Node) ast.Node {
	return &fakeNode{kind: cfgbuild.KindBlock, children: stmts}
}

// fakeFrontend is a test-only Frontend: Parse just returns the root node it
// was constructed with, and Functions returns a fixed declaration list.
// This is the seam real deployments would fill with a Dart-grammar
// adapter; see frontend.go's doc comment.
type fakeFrontend struct {
	root      ast.Node
	parseErr  error
	functions []FunctionDecl
}

func (f *fakeFrontend) Parse(path string, source []byte) (ast.Node, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.root, nil
}

func (f *fakeFrontend) Functions(root ast.Node) []FunctionDecl { return f.functions }

func newTestPipeline(t *testing.T, frontend Frontend) *Pipeline {
	t.Helper()
	cfg := *config.DefaultConfig()
	registry := style.NewRegistry(cfg, style.Builtins())
	return New(cfg, frontend, registry, nil, nil)
}

func TestAnalyzeFilePopulatesErrorOnParseFailureWithoutPanicking(t *testing.T) {
	frontend := &fakeFrontend{parseErr: errors.New("unexpected token")}
	p := newTestPipeline(t, frontend)

	result := p.AnalyzeFile(context.Background(), "broken.dart", []byte("garbage"))
	require.Error(t, result.Error)
	require.Empty(t, result.Functions)
}

func TestAnalyzeFileLowersFunctionsAndCollectsFacts(t *testing.T) {
	body := blockOf(assignStmt("x", intLit("1")))
	frontend := &fakeFrontend{
		root: blockOf(),
		functions: []FunctionDecl{
			{QualifiedName: "A.f", Body: body},
		},
	}
	p := newTestPipeline(t, frontend)

	result := p.AnalyzeFile(context.Background(), "a.dart", []byte("void f() {\n  x = 1;\n}\n"))
	require.NoError(t, result.Error)
	require.Len(t, result.Functions, 1)
	require.False(t, result.Functions[0].Skipped)
	require.NotEmpty(t, result.Facts)
	require.Len(t, result.Metrics.Functions, 1)
}

func TestAnalyzeFileSkipsEmptyBodyFunctionWithoutError(t *testing.T) {
	frontend := &fakeFrontend{
		root: blockOf(),
		functions: []FunctionDecl{
			{QualifiedName: "A.empty", Body: blockOf()},
		},
	}
	p := newTestPipeline(t, frontend)

	result := p.AnalyzeFile(context.Background(), "a.dart", []byte("void empty() {}\n"))
	require.NoError(t, result.Error)
	require.Len(t, result.Functions, 1)
	require.True(t, result.Functions[0].Skipped)
}

func TestAnalyzeFileDetectsDuplicateAcrossTwoStructurallyIdenticalFunctions(t *testing.T) {
	bodyOf := func(recv string) ast.Node {
		return blockOf(assignStmt(recv, intLit("1")))
	}
	frontend := &fakeFrontend{
		root: blockOf(),
		functions: []FunctionDecl{
			{QualifiedName: "A.one", Body: bodyOf("x")},
			{QualifiedName: "B.two", Body: bodyOf("y")},
		},
	}

	cfg := *config.DefaultConfig()
	cfg.Dup.MinTokens = 1
	registry := style.NewRegistry(cfg, style.Builtins())
	dupCfg := cfg.Dup
	dupCfg.CachePath = filepath.Join(t.TempDir(), "dup.json")
	detector, err := dup.NewDetector(dupCfg)
	require.NoError(t, err)
	defer detector.Close()

	p := New(cfg, frontend, registry, detector, nil)

	result := p.AnalyzeFile(context.Background(), "a.dart", []byte("void one() { x = 1; }\nvoid two() { y = 1; }\n"))
	require.NoError(t, result.Error)

	found := false
	for _, item := range result.DebtItems {
		if string(item.Type) == "duplicate-code" {
			found = true
		}
	}
	require.True(t, found, "expected a duplicate-code debt item across A.one/B.two")
}

func TestAnalyzeFileReusesCachedFactsWhenContentHashMatches(t *testing.T) {
	body := blockOf(assignStmt("x", intLit("1")))
	frontend := &fakeFrontend{
		root:      blockOf(),
		functions: []FunctionDecl{{QualifiedName: "A.f", Body: body}},
	}
	cfg := *config.DefaultConfig()
	registry := style.NewRegistry(cfg, style.Builtins())

	s, err := store.Open(filepath.Join(t.TempDir(), "facts.db"))
	require.NoError(t, err)
	defer s.Close()

	p := New(cfg, frontend, registry, nil, s)
	source := []byte("void f() {\n  x = 1;\n}\n")

	first := p.AnalyzeFile(context.Background(), "a.dart", source)
	require.NoError(t, first.Error)
	require.False(t, first.Cached)
	require.NotEmpty(t, first.Facts)

	// A second pass over byte-identical content should come straight from
	// the store instead of re-parsing: the frontend would return a parse
	// error if AnalyzeFile reached it again.
	frontend.parseErr = errors.New("should not be called")
	second := p.AnalyzeFile(context.Background(), "a.dart", source)
	require.NoError(t, second.Error)
	require.True(t, second.Cached)
	require.Equal(t, first.Facts, second.Facts)
	require.Empty(t, second.Functions)
}

func TestAnalyzeFileRecomputesWhenContentHashChanges(t *testing.T) {
	body := blockOf(assignStmt("x", intLit("1")))
	frontend := &fakeFrontend{
		root:      blockOf(),
		functions: []FunctionDecl{{QualifiedName: "A.f", Body: body}},
	}
	cfg := *config.DefaultConfig()
	registry := style.NewRegistry(cfg, style.Builtins())

	s, err := store.Open(filepath.Join(t.TempDir(), "facts.db"))
	require.NoError(t, err)
	defer s.Close()

	p := New(cfg, frontend, registry, nil, s)

	first := p.AnalyzeFile(context.Background(), "a.dart", []byte("void f() {\n  x = 1;\n}\n"))
	require.NoError(t, first.Error)
	require.False(t, first.Cached)

	second := p.AnalyzeFile(context.Background(), "a.dart", []byte("void f() {\n  x = 2;\n}\n"))
	require.NoError(t, second.Error)
	require.False(t, second.Cached)
	require.NotEmpty(t, second.Functions)
}
