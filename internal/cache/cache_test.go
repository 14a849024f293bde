package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTripsVectorForMatchingHash(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), 10)
	vec := []float32{1, 2, 3}
	c.Put("fn:a", "h1", vec)

	got, ok := c.Get("fn:a", "h1")
	require.True(t, ok)
	require.Equal(t, vec, got)
}

func TestGetWithMismatchedHashRemovesStaleEntry(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), 10)
	c.Put("fn:a", "h1", []float32{1, 2, 3})

	_, ok := c.Get("fn:a", "h2")
	require.False(t, ok)
	require.False(t, c.Contains("fn:a"))
}

func TestLRUEvictionKeepsMostRecentlyUsed(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), 2)
	c.Put("a", "h", []float32{1})
	c.Put("b", "h", []float32{2})
	c.Get("a", "h") // promote a to most-recently-used, b now oldest
	c.Put("c", "h", []float32{3}) // evicts b

	require.True(t, c.Contains("a"))
	require.False(t, c.Contains("b"))
	require.True(t, c.Contains("c"))
	require.Equal(t, 2, c.Len())
}

func TestSaveThenLoadYieldsEquivalentCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c := New(path, 10)
	c.Put("a", "ha", []float32{1, 2})
	c.Put("b", "hb", []float32{3, 4})
	require.NoError(t, c.Save())

	c2 := New(path, 10)
	require.NoError(t, c2.Load())

	for _, id := range []string{"a", "b"} {
		require.True(t, c2.Contains(id))
	}
	got, ok := c2.Get("a", "ha")
	require.True(t, ok)
	require.Equal(t, []float32{1, 2}, got)
}

func TestLoadMissingFileLeavesCacheEmpty(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing.json"), 10)
	require.NoError(t, c.Load())
	require.Equal(t, 0, c.Len())
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	c := New(path, 10)
	require.NoError(t, c.Load())
	require.Equal(t, 0, c.Len())
}
