package watchtui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateFileResultAccumulatesCounts(t *testing.T) {
	m := NewModel()

	next, cmd := m.Update(fileResultMsg{path: "a.dart", violations: 2, debtItems: 1})
	m = next.(Model)
	require.Nil(t, cmd)
	require.Equal(t, 1, m.filesProcessed)
	require.Equal(t, 2, m.violations)
	require.Equal(t, 1, m.debtItems)
	require.Equal(t, "a.dart", m.lastFile)

	next, _ = m.Update(fileResultMsg{path: "b.dart", violations: 1, debtItems: 0})
	m = next.(Model)
	require.Equal(t, 2, m.filesProcessed)
	require.Equal(t, 3, m.violations)
	require.Equal(t, "b.dart", m.lastFile)
}

func TestUpdateFileResultTracksErrors(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(fileResultMsg{path: "bad.dart", err: errors.New("parse failed")})
	m = next.(Model)
	require.Equal(t, 1, m.errorCount)
	require.Error(t, m.lastErr)
}

func TestViewRendersCountsAndLastFile(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(fileResultMsg{path: "a.dart", violations: 3})
	m = next.(Model)
	out := m.View()
	require.Contains(t, out, "a.dart")
	require.Contains(t, out, "3")
}
