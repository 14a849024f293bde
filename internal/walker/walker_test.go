package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("class C {}\n"), 0o644))
	}
}

func TestDiscoverFindsSourceFilesOnly(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.dart", "lib/b.dart", "README.md", "lib/c.g.dart")

	w := New(Options{Root: root})
	files, err := w.Discover()
	require.NoError(t, err)
	require.Len(t, files, 3)
}

func TestDiscoverAppliesExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.dart", "lib/b.g.dart", "lib/sub/c.dart")

	w := New(Options{Root: root, Exclude: []string{"**/*.g.dart"}})
	files, err := w.Discover()
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		require.NotContains(t, f, ".g.dart")
	}
}

func TestChunksSplitsIntoFixedSizeGroups(t *testing.T) {
	files := make([]string, 105)
	for i := range files {
		files[i] = filepath.Join("f", string(rune('a'+i%26)))
	}
	chunks := Chunks(files, 50)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 50)
	require.Len(t, chunks[1], 50)
	require.Len(t, chunks[2], 5)
}

func TestProcessVisitsEveryFileWithBoundedConcurrency(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.dart", "b.dart", "c.dart")

	w := New(Options{Root: root, ChunkSize: 2, MaxConcurrency: 1})

	var mu sync.Mutex
	var visited []string
	err := w.Process(context.Background(), func(ctx context.Context, path string) error {
		mu.Lock()
		visited = append(visited, filepath.Base(path))
		mu.Unlock()
		return nil
	}, nil)
	require.NoError(t, err)

	sort.Strings(visited)
	require.Equal(t, []string{"a.dart", "b.dart", "c.dart"}, visited)
}

func TestProcessReportsPerFileErrorsWithoutAborting(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.dart", "b.dart")

	w := New(Options{Root: root})

	var mu sync.Mutex
	errs := map[string]bool{}
	err := w.Process(context.Background(), func(ctx context.Context, path string) error {
		if filepath.Base(path) == "a.dart" {
			return os.ErrInvalid
		}
		return nil
	}, func(path string, err error) {
		mu.Lock()
		errs[filepath.Base(path)] = err != nil
		mu.Unlock()
	})
	require.NoError(t, err)
	require.True(t, errs["a.dart"])
	require.False(t, errs["b.dart"])
}

func TestCompileGlobDoubleStarMatchesNestedPaths(t *testing.T) {
	re := compileGlob("**/*.g.dart")
	require.True(t, re.MatchString("lib/sub/foo.g.dart"))
	require.True(t, re.MatchString("foo.g.dart"))
	require.False(t, re.MatchString("lib/foo.dart"))
}
