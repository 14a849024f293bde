package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"anteater/internal/absint"
	"anteater/internal/cfgbuild"
	"anteater/internal/config"
	"anteater/internal/datalog"
	"anteater/internal/debt"
	"anteater/internal/dup"
	"anteater/internal/facts"
	"anteater/internal/ir"
	"anteater/internal/logging"
	"anteater/internal/metrics"
	"anteater/internal/ssa"
	"anteater/internal/store"
	"anteater/internal/style"
	"anteater/internal/walker"
)

// FileAnalysisResult is one file's full analysis output, spec.md §7's
// "parse/resolve failures are captured per file, never abort the run": a
// non-nil Error means this file contributed nothing else to the result,
// but every other file in the run is unaffected.
type FileAnalysisResult struct {
	Path       string
	Functions  []*ir.FunctionIr
	Metrics    metrics.FileMetrics
	Violations []style.Violation
	DebtItems  []debt.Item
	Facts      []datalog.Tuple
	Warnings   []ir.Warning
	Error      error
	// Cached reports that Facts were loaded from the persistent store
	// instead of freshly extracted, because the file's content hash hadn't
	// changed since the last time `server` saw it. Functions/Metrics/
	// Violations/DebtItems are left zero-valued in that case: the stored
	// fact cache exists to skip the CFG/SSA/abstract-interpretation work
	// that produces Facts, not to persist the other per-file views.
	Cached bool
}

// ProjectResult aggregates every file processed in one run, plus the
// whole-program Datalog pass (points-to/taint/call-graph facts span file
// boundaries, so that pass runs once over every file's combined facts
// rather than per file).
type ProjectResult struct {
	RunID        string
	Files        []FileAnalysisResult
	DatalogStats datalog.Stats
	DatalogFacts map[string][]datalog.Tuple // relation -> tuples, queried after Run
	DebtSummary  debt.Summary
}

// Pipeline wires one project's configured collaborators together. Built
// once per `analyze`/`metrics`/`debt`/`server` invocation.
type Pipeline struct {
	cfg        config.Config
	frontend   Frontend
	registry   *style.Registry
	calculator *metrics.Calculator
	costCalc   *debt.CostCalculator
	dupDet     *dup.Detector // nil disables duplicate-code detection
	store      *store.Store  // nil outside `server` mode, see internal/store's package doc
}

// New builds a Pipeline. dupDet and persistentStore may be nil: dupDet
// disables near-duplicate detection (e.g. for a fast one-shot `metrics`
// run), persistentStore disables cross-request fact reuse (one-shot
// commands never need it, per internal/store's package doc).
func New(cfg config.Config, frontend Frontend, registry *style.Registry, dupDet *dup.Detector, persistentStore *store.Store) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		frontend:   frontend,
		registry:   registry,
		calculator: metrics.NewCalculator(cfg.Metrics),
		costCalc:   debt.NewCostCalculator(cfg.Debt),
		dupDet:     dupDet,
		store:      persistentStore,
	}
}

// AnalyzeFile parses, lowers, and measures one file. It never returns a
// non-nil error itself: parse/resolve failures populate
// FileAnalysisResult.Error instead, per spec.md §7's propagation policy —
// only a caller orchestrating many files decides whether that's fatal.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string, source []byte) FileAnalysisResult {
	log := logging.Get(logging.CategoryPipeline)
	result := FileAnalysisResult{Path: path}

	hash := contentHash(source)
	if p.store != nil {
		if cached, ok := p.loadCachedFacts(ctx, path, hash); ok {
			result.Facts = cached
			result.Cached = true
			return result
		}
	}

	root, err := p.frontend.Parse(path, source)
	if err != nil {
		result.Error = fmt.Errorf("parse %s: %w", path, err)
		log.Warn("pipeline: %v", result.Error)
		return result
	}

	decls := p.frontend.Functions(root)
	extractor := facts.NewExtractor()

	fileIr := &ir.FileIr{Path: path}
	var dupItems []debt.Item
	for _, decl := range decls {
		fn := p.lowerFunction(path, decl)
		fileIr.Functions = append(fileIr.Functions, fn)
		result.Functions = append(result.Functions, fn)
		result.Warnings = append(result.Warnings, fn.Warnings...)
		result.Facts = append(result.Facts, extractor.ExtractFunction(fn)...)
		if p.dupDet != nil {
			dupItems = append(dupItems, p.dupDet.Detect(fn)...)
		}
	}

	result.Metrics = p.calculator.CalculateFile(fileIr, source)

	if p.registry != nil {
		result.Violations = p.registry.Run(path, root, source)
	}

	result.DebtItems = p.collectDebt(path, source, result.Metrics, dupItems)

	if p.store != nil {
		if err := p.store.ReplaceFactsForFile(ctx, path, result.Facts, hash); err != nil {
			log.Warn("pipeline: persist facts for %s: %v", path, err)
		}
	}

	return result
}

// loadCachedFacts reports whether the store already holds facts extracted
// from this exact file content, returning them if so. A miss (no stored
// hash, or a hash mismatch from an edited file) falls through to a normal
// parse/lower/extract in AnalyzeFile, same as `server`'s first-ever sight
// of that file.
func (p *Pipeline) loadCachedFacts(ctx context.Context, path, hash string) ([]datalog.Tuple, bool) {
	log := logging.Get(logging.CategoryPipeline)
	stored, ok, err := p.store.FileHash(ctx, path)
	if err != nil {
		log.Warn("pipeline: read cached hash for %s: %v", path, err)
		return nil, false
	}
	if !ok || stored != hash {
		return nil, false
	}
	facts, err := p.store.FactsForFile(ctx, path)
	if err != nil {
		log.Warn("pipeline: read cached facts for %s: %v", path, err)
		return nil, false
	}
	log.Debug("pipeline: reused cached facts for %s (hash=%s)", path, hash)
	return facts, true
}

// lowerFunction runs one declaration through cfgbuild and ssa, returning a
// fully-lowered FunctionIr. A nil CFG (empty body) is reported as Skipped,
// never an error, per internal/cfgbuild.Build's documented contract.
func (p *Pipeline) lowerFunction(path string, decl FunctionDecl) *ir.FunctionIr {
	cfg, warnings := cfgbuild.Build(decl.QualifiedName, decl.Body)
	fn := &ir.FunctionIr{
		QualifiedName: decl.QualifiedName,
		CFG:           cfg,
		Parameters:    decl.Params,
		SourceFile:    path,
		StartOffset:   decl.Offset,
		EndOffset:     decl.EndOffset,
		Skipped:       cfg == nil,
		Warnings:      warnings,
	}
	if cfg == nil {
		return fn
	}

	fn.Warnings = append(fn.Warnings, ssa.Construct(cfg, decl.Params)...)

	interp := absint.NewInterpreter(absint.CombinedDomain{})
	result := interp.Analyze(cfg, decl.Params, nil)
	if result.ReachedMaxIterations {
		fn.Warnings = append(fn.Warnings, ir.Warning{
			Kind:    "absint-iteration-cap",
			Message: fmt.Sprintf("%s: abstract interpretation hit the iteration cap (%d)", decl.QualifiedName, result.TotalIterations),
			Offset:  decl.Offset,
		})
	}
	return fn
}

// collectDebt runs every debt collaborator over one file's already-computed
// metrics: comment-marker scanning (source text), metric-gate breaches
// (fm), plus whatever near-duplicate items the caller already collected
// while lowering each function.
func (p *Pipeline) collectDebt(path string, source []byte, fm metrics.FileMetrics, dupItems []debt.Item) []debt.Item {
	var items []debt.Item
	items = append(items, debt.DetectComments(path, source)...)

	for _, f := range fm.Functions {
		items = append(items, debt.DetectMetrics(f, p.cfg.Debt.Metrics)...)
	}
	items = append(items, dupItems...)

	return p.costCalc.PriceAll(items)
}

// contentHash hashes a file's raw bytes for store.Store's change-detection
// key, the same algorithm internal/dup uses for its own content hashing.
func contentHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// AnalyzeProject walks the configured source tree, analyzes every file
// with internal/walker's bounded concurrency, and runs the whole-program
// Datalog pass over every file's combined facts. A single file's error
// never aborts the walk (spec.md §7); it appears on that file's
// FileAnalysisResult and the run continues.
func AnalyzeProject(ctx context.Context, p *Pipeline, w *walker.Walker, readFile func(path string) ([]byte, error), progress walker.ProgressFunc) (ProjectResult, error) {
	var (
		mu      sync.Mutex
		results []FileAnalysisResult
	)

	process := func(ctx context.Context, path string) error {
		source, err := readFile(path)
		if err != nil {
			mu.Lock()
			results = append(results, FileAnalysisResult{Path: path, Error: fmt.Errorf("read %s: %w", path, err)})
			mu.Unlock()
			return nil
		}
		r := p.AnalyzeFile(ctx, path, source)
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		return nil
	}

	if err := w.Process(ctx, process, progress); err != nil {
		return ProjectResult{}, err
	}

	engine := datalog.NewEngine(datalog.BuiltinRules())
	var allItems []debt.Item
	for _, r := range results {
		engine.AddFacts(r.Facts...)
		allItems = append(allItems, r.DebtItems...)
	}
	stats := engine.Run()

	relations := []string{
		"VarPointsTo", "HeapPointsTo", "Reachable", "Mutable", "DeepImmutable",
		"CallGraph", "TaintedVar", "TaintedHeap", "TaintViolation",
	}
	factsByRelation := make(map[string][]datalog.Tuple, len(relations))
	for _, rel := range relations {
		if tuples := engine.Query(rel); len(tuples) > 0 {
			factsByRelation[rel] = tuples
		}
	}

	if p.dupDet != nil {
		if err := p.dupDet.Save(); err != nil {
			logging.Get(logging.CategoryPipeline).Warn("pipeline: save duplicate-detection cache: %v", err)
		}
	}

	return ProjectResult{
		RunID:        uuid.NewString(),
		Files:        results,
		DatalogStats: stats,
		DatalogFacts: factsByRelation,
		DebtSummary:  debt.Aggregate(allItems),
	}, nil
}
