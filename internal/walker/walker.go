// Package walker discovers source files under a project root, chunks them,
// and processes each chunk with bounded concurrency, per spec.md §5's
// "walker discovers files, partitions them into chunks of configurable
// size (default 50), and processes each chunk with up to maxConcurrency
// (default 4) concurrent tasks. After each chunk the runtime yields to
// allow memory reclamation before starting the next."
package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"anteater/internal/logging"
)

const (
	// DefaultChunkSize is spec.md §5's default chunk size.
	DefaultChunkSize = 50
	// DefaultMaxConcurrency is spec.md §5's default per-chunk task count.
	DefaultMaxConcurrency = 4
)

// SourceExtension is the file extension this walker discovers.
const SourceExtension = ".dart"

// Options configures a Walker.
type Options struct {
	Root           string
	Exclude        []string // glob patterns, spec.md §6's exclude list
	ChunkSize      int
	MaxConcurrency int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	return o
}

// Walker discovers and processes source files under Root.
type Walker struct {
	opts    Options
	matcher *excludeMatcher
}

// New builds a Walker from opts, compiling its exclude patterns once
// (spec.md §6: "Glob syntax supports *, **, ?; compiled patterns are
// cached.").
func New(opts Options) *Walker {
	opts = opts.withDefaults()
	return &Walker{opts: opts, matcher: newExcludeMatcher(opts.Exclude)}
}

// Discover walks Root and returns every non-excluded .dart file, sorted for
// deterministic chunk assignment.
func (w *Walker) Discover() ([]string, error) {
	var files []string
	err := filepath.Walk(w.opts.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) != SourceExtension {
			return nil
		}
		rel, relErr := filepath.Rel(w.opts.Root, path)
		if relErr != nil {
			rel = path
		}
		if w.matcher.matches(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Chunks splits files into fixed-size chunks (the last one possibly
// shorter), in discovery order.
func Chunks(files []string, chunkSize int) [][]string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	var chunks [][]string
	for i := 0; i < len(files); i += chunkSize {
		end := i + chunkSize
		if end > len(files) {
			end = len(files)
		}
		chunks = append(chunks, files[i:end])
	}
	return chunks
}

// ProgressFunc is called after each file in a chunk completes (spec.md §6's
// progress reporting for --watch/long runs).
type ProgressFunc func(path string, err error)

// Process discovers files, chunks them, and runs process on every file with
// up to opts.MaxConcurrency concurrent tasks per chunk. Chunks run
// strictly in sequence — "after each chunk the runtime yields" — so memory
// from one chunk's file-level state can be reclaimed before the next
// chunk's tasks start. A per-file error is reported to progress and does
// not stop the walk; ctx cancellation stops it immediately.
func (w *Walker) Process(ctx context.Context, process func(ctx context.Context, path string) error, progress ProgressFunc) error {
	log := logging.Get(logging.CategoryWalker)

	files, err := w.Discover()
	if err != nil {
		return err
	}
	log.Info("walker: discovered %d files under %s", len(files), w.opts.Root)

	chunks := Chunks(files, w.opts.ChunkSize)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.processChunk(ctx, chunk, process, progress); err != nil {
			return err
		}
		log.Debug("walker: finished chunk %d/%d (%d files)", i+1, len(chunks), len(chunk))
	}
	return nil
}

func (w *Walker) processChunk(ctx context.Context, chunk []string, process func(ctx context.Context, path string) error, progress ProgressFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.MaxConcurrency)

	var mu sync.Mutex
	report := func(path string, err error) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		progress(path, err)
	}

	for _, path := range chunk {
		path := path
		g.Go(func() error {
			err := process(gctx, path)
			report(path, err)
			return nil // a single file's failure never aborts the chunk
		})
	}
	return g.Wait()
}
