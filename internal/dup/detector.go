// Package dup supplements spec.md §2's "duplicate-code" debt category,
// which the core specification names but leaves undetected, with an
// embedding-driven near-duplicate finder (SPEC_FULL.md §3.3): function
// bodies are reduced to a structural token stream (tokenize.go), hashed into
// a fixed-length vector (embed.go), and compared by cosine distance through
// a vec0-shaped virtual table (vecstore.go). No neural model is evaluated,
// keeping this within spec.md's embedding Non-goal.
package dup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"anteater/internal/cache"
	"anteater/internal/config"
	"anteater/internal/debt"
	"anteater/internal/ir"
	"anteater/internal/logging"
)

// Detector finds near-duplicate functions across a single analysis run.
// Embeddings persist across runs via an internal/cache.Cache, which only
// spares re-embedding a function whose token stream is unchanged; the
// vector index itself holds just the functions seen so far this run, so
// functions from earlier runs are never compared against.
type Detector struct {
	cfg     config.DupConfig
	cache   *cache.Cache
	store   *vecStore
	seen    map[string]bool // qualified names already inserted this run, guards against re-querying self
}

// NewDetector opens (or creates) the embedding cache at cfg.CachePath and
// an empty in-memory vector index; the index is not seeded from the cache.
func NewDetector(cfg config.DupConfig) (*Detector, error) {
	c := cache.New(cfg.CachePath, 0)
	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("dup: load embedding cache: %w", err)
	}

	store, err := newVecStore()
	if err != nil {
		return nil, err
	}

	return &Detector{cfg: cfg, cache: c, store: store, seen: make(map[string]bool)}, nil
}

// Close releases the in-memory vector index. The embedding cache is saved
// separately via Save, since a caller may want to defer Detector teardown
// without necessarily persisting every run's vectors.
func (d *Detector) Close() error { return d.store.Close() }

// Save persists the embedding cache to disk (spec.md §5's atomic-save
// contract, inherited from internal/cache.Cache).
func (d *Detector) Save() error { return d.cache.Save() }

// Detect compares fn's structural embedding against every function already
// passed to Detect in this run and returns a
// duplicate-code debt item for each match at or above the configured
// cosine-similarity threshold. fn is then inserted into the index so later
// calls can find it as a duplicate too.
func (d *Detector) Detect(fn *ir.FunctionIr) []debt.Item {
	if fn == nil || fn.Skipped {
		return nil
	}

	tokens := tokenStream(fn)
	if len(tokens) < d.cfg.MinTokens {
		return nil
	}

	hash := contentHash(tokens)
	vector, ok := d.cache.Get(fn.QualifiedName, hash)
	if !ok {
		vector = Embed(tokens)
		d.cache.Put(fn.QualifiedName, hash, vector)
	}

	var items []debt.Item
	if !d.seen[fn.QualifiedName] {
		neighbors, err := d.store.Query(vector, 5)
		if err != nil {
			logging.Get(logging.CategoryDup).Warn("dup: query neighbors for %s: %v", fn.QualifiedName, err)
		} else {
			items = d.toDebtItems(fn, neighbors)
		}
	}

	if err := d.store.Insert(vector, fn.QualifiedName, fn.SourceFile, startLine(fn)); err != nil {
		logging.Get(logging.CategoryDup).Warn("dup: insert %s into vector index: %v", fn.QualifiedName, err)
	}
	d.seen[fn.QualifiedName] = true

	return items
}

func (d *Detector) toDebtItems(fn *ir.FunctionIr, neighbors []Neighbor) []debt.Item {
	maxDistance := 1 - d.cfg.SimilarityThreshold
	var items []debt.Item
	for _, n := range neighbors {
		if n.QualifiedName == fn.QualifiedName {
			continue
		}
		if n.Distance > maxDistance {
			continue
		}
		similarity := 1 - n.Distance
		items = append(items, debt.Item{
			Type:     debt.TypeDuplicateCode,
			Severity: severityForSimilarity(similarity),
			File:     fn.SourceFile,
			Line:     startLine(fn),
			Message:  fmt.Sprintf("%s looks like a duplicate of %s (%s:%d), %.0f%% structurally similar", fn.QualifiedName, n.QualifiedName, n.File, n.Line, similarity*100),
		})
	}
	return items
}

// severityForSimilarity escalates near-exact duplicates over merely
// similar ones, the same ratio-over-gate shape internal/debt's metrics
// checks use for complexity and length.
func severityForSimilarity(similarity float64) debt.Severity {
	switch {
	case similarity >= 0.99:
		return debt.SeverityHigh
	case similarity >= 0.97:
		return debt.SeverityMedium
	default:
		return debt.SeverityLow
	}
}

func startLine(fn *ir.FunctionIr) int {
	// StartOffset is a byte offset; callers needing a real line number
	// convert at the point source text is available (mirrors
	// internal/style's offset-to-line deferral). Detector only has access
	// to the offset, so it reports that until pipeline wiring supplies a
	// converted line.
	return fn.StartOffset
}

func contentHash(tokens []string) string {
	h := sha256.New()
	for _, t := range tokens {
		h.Write([]byte(t))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
