package main

import (
	"fmt"

	"anteater/internal/dup"
	"anteater/internal/pipeline"
	"anteater/internal/style"
	"anteater/internal/walker"
)

// resolveFrontend looks up the --frontend flag in internal/pipeline's
// registry. An unregistered (or unset) name is one of spec.md §7's "input
// errors" — reported clearly at the CLI boundary, never a panic or a
// silent fallback to some default parser, since this module ships no
// concrete Frontend of its own (see internal/pipeline/frontend.go).
func resolveFrontend() (pipeline.Frontend, error) {
	if frontendName == "" {
		return nil, fmt.Errorf("no --frontend given; registered frontends: %v", pipeline.RegisteredFrontends())
	}
	f, ok := pipeline.LookupFrontend(frontendName)
	if !ok {
		return nil, fmt.Errorf("frontend %q is not registered; registered frontends: %v", frontendName, pipeline.RegisteredFrontends())
	}
	return f, nil
}

// buildRegistry assembles a style.Registry from cfg.Rules: built-in rule
// ids resolve through style.NewRegistry itself, and any entry whose
// Options carries a "script" key names inline yaegi-interpreted Go source
// (SPEC_FULL.md §3.4) instead of a built-in rule id.
func buildRegistry() (*style.Registry, error) {
	registry := style.NewRegistry(*cfg, style.Builtins())
	for _, entry := range cfg.Rules {
		src, ok := entry.Options["script"].(string)
		if !ok {
			continue
		}
		severity := style.Severity(entry.Severity)
		rule, err := style.LoadScriptRule(entry.ID, severity, src)
		if err != nil {
			return nil, fmt.Errorf("load script rule %q: %w", entry.ID, err)
		}
		registry.AddScriptRule(rule, severity, entry.Exclude)
	}
	return registry, nil
}

// buildWalker constructs the walker.Walker over root, honoring cfg.Exclude.
func buildWalker(root string) *walker.Walker {
	return walker.New(walker.Options{Root: root, Exclude: cfg.Exclude})
}

// buildDupDetector builds internal/dup's near-duplicate detector, or
// returns a nil *Detector when disable is set — nil disables duplicate-code
// detection throughout internal/pipeline, per pipeline.New's documented
// contract.
func buildDupDetector(disable bool) (*dup.Detector, error) {
	if disable {
		return nil, nil
	}
	d, err := dup.NewDetector(cfg.Dup)
	if err != nil {
		return nil, fmt.Errorf("build duplicate detector: %w", err)
	}
	return d, nil
}
