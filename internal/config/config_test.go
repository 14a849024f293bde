package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.Metrics.CyclomaticComplexity)
	require.Equal(t, 40.0, cfg.Debt.Threshold)
}

func TestLoadParsesOverridesAndPreservesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anteater.yaml")
	yamlSrc := `
anteater:
  exclude: ["**/vendor/**"]
  rules:
    - no-unused-vars
    - max-nesting:
        severity: error
        exclude: ["**/generated/**"]
  metrics:
    cyclomatic-complexity: 12
  debt:
    threshold: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yamlSrc), 0644))

	cfg, err := Load(path, false)
	require.NoError(t, err)
	require.Equal(t, []string{"**/vendor/**"}, cfg.Exclude)
	require.Equal(t, 12, cfg.Metrics.CyclomaticComplexity)
	require.Equal(t, 15, cfg.Metrics.CognitiveComplexity) // untouched default
	require.Equal(t, 10.0, cfg.Debt.Threshold)
	require.Len(t, cfg.Rules, 2)
	require.Equal(t, "no-unused-vars", cfg.Rules[0].ID)
	require.Equal(t, "max-nesting", cfg.Rules[1].ID)
	require.Equal(t, "error", cfg.Rules[1].Severity)
	require.Equal(t, []string{"**/generated/**"}, cfg.Rules[1].Exclude)
}

func TestLoadTwiceYieldsEqualConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anteater.yaml")
	require.NoError(t, os.WriteFile(path, []byte("anteater:\n  debt:\n    threshold: 5\n"), 0644))

	a, err := Load(path, false)
	require.NoError(t, err)
	b, err := Load(path, false)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestLoadStrictRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anteater.yaml")
	require.NoError(t, os.WriteFile(path, []byte("anteater:\n  bogus_key: 1\n"), 0644))

	_, err := Load(path, true)
	require.Error(t, err)

	_, err = Load(path, false)
	require.NoError(t, err)
}

func TestGlobSetMatch(t *testing.T) {
	g := NewGlobSet([]string{"**/vendor/**", "*.generated.go"})
	require.True(t, g.Match("pkg/vendor/foo/bar.go"))
	require.True(t, g.Match("foo.generated.go"))
	require.False(t, g.Match("pkg/main.go"))
}
