package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, false, "info", false))
	require.False(t, IsDebugMode())

	l := Get(CategoryCFG)
	l.Info("should not panic or create files: %d", 1)

	_, err := os.Stat(filepath.Join(dir, ".anteater", "logs"))
	require.True(t, os.IsNotExist(err))
}

func TestInitializeDebugWritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, true, "debug", false))
	require.True(t, IsDebugMode())

	l := Get(CategorySSA)
	l.Debug("hello %s", "world")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(dir, ".anteater", "logs"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}
