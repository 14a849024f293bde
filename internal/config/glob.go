package config

import (
	"path/filepath"
	"strings"
	"sync"
)

// GlobSet compiles a list of `*`/`**`/`?` glob patterns once and caches the
// compiled form, per spec.md §6 ("compiled patterns are cached").
type GlobSet struct {
	mu       sync.Mutex
	patterns []string
	compiled map[string]*compiledGlob
}

type compiledGlob struct {
	segments []string // path segments, "**" kept as a literal wildcard marker
}

// NewGlobSet builds a GlobSet from raw glob strings.
func NewGlobSet(patterns []string) *GlobSet {
	return &GlobSet{patterns: patterns, compiled: make(map[string]*compiledGlob)}
}

// Match reports whether path matches any pattern in the set.
func (g *GlobSet) Match(path string) bool {
	clean := filepath.ToSlash(path)
	for _, p := range g.patterns {
		if g.matchOne(p, clean) {
			return true
		}
	}
	return false
}

func (g *GlobSet) matchOne(pattern, path string) bool {
	g.mu.Lock()
	cg, ok := g.compiled[pattern]
	if !ok {
		cg = &compiledGlob{segments: strings.Split(filepath.ToSlash(pattern), "/")}
		g.compiled[pattern] = cg
	}
	g.mu.Unlock()

	pathSegs := strings.Split(path, "/")
	return matchSegments(cg.segments, pathSegs)
}

// matchSegments implements `*` (any run within one segment), `?` (one rune),
// and `**` (any number of segments, including zero).
func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	head := pattern[0]
	if head == "**" {
		if matchSegments(pattern[1:], path) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchSegments(pattern, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	if !matchSegment(head, path[0]) {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}

func matchSegment(pattern, seg string) bool {
	ok, err := filepath.Match(pattern, seg)
	return err == nil && ok
}
