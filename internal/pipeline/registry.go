package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// frontends is a name -> Frontend registry, the same init()-time
// self-registration idiom database/sql uses for drivers: a concrete
// parser adapter (e.g. one built on internal/ast.FromTreeSitter plus a
// fetched Dart grammar) registers itself by name in its own init(), and
// cmd/anteater looks it up by the configured --frontend flag instead of
// importing a concrete implementation directly. No frontend is registered
// by this module itself (see frontend.go's doc comment).
var (
	frontendsMu sync.Mutex
	frontends   = map[string]Frontend{}
)

// RegisterFrontend makes f available under name for later lookup via
// LookupFrontend. Panics on a duplicate name, mirroring database/sql.
// Register's "driver already registered" guard — a build wiring two
// frontends under the same name is a programming error, not a runtime
// condition to recover from.
func RegisterFrontend(name string, f Frontend) {
	frontendsMu.Lock()
	defer frontendsMu.Unlock()
	if _, exists := frontends[name]; exists {
		panic(fmt.Sprintf("pipeline: frontend %q already registered", name))
	}
	frontends[name] = f
}

// LookupFrontend returns the frontend registered under name, if any.
func LookupFrontend(name string) (Frontend, bool) {
	frontendsMu.Lock()
	defer frontendsMu.Unlock()
	f, ok := frontends[name]
	return f, ok
}

// RegisteredFrontends lists every registered frontend name, sorted, for
// error messages and `--help` text.
func RegisteredFrontends() []string {
	frontendsMu.Lock()
	defer frontendsMu.Unlock()
	names := make([]string, 0, len(frontends))
	for name := range frontends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
