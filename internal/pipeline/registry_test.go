package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterFrontendThenLookupFrontendRoundTrips(t *testing.T) {
	defer delete(frontends, "test-registry")

	f := &fakeFrontend{}
	RegisterFrontend("test-registry", f)

	got, ok := LookupFrontend("test-registry")
	require.True(t, ok)
	require.Equal(t, f, got)
}

func TestLookupFrontendMissingReturnsNotOK(t *testing.T) {
	_, ok := LookupFrontend("does-not-exist")
	require.False(t, ok)
}

func TestRegisterFrontendPanicsOnDuplicateName(t *testing.T) {
	defer delete(frontends, "test-registry-dup")
	RegisterFrontend("test-registry-dup", &fakeFrontend{})
	require.Panics(t, func() {
		RegisterFrontend("test-registry-dup", &fakeFrontend{})
	})
}
