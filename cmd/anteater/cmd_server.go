package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"anteater/internal/logging"
	"anteater/internal/pipeline"
	"anteater/internal/store"
)

var (
	serverPath  string
	serverDB    string
	serverNoDup bool
)

// serverCmd is the long-running analyzer service of spec.md §6: it keeps a
// durable fact store warm across file changes instead of re-extracting
// every file's facts on every request, the way the one-shot
// analyze/metrics/debt commands do. Grounded on the teacher's
// cmd_mangle_lsp.go graceful-shutdown pattern (signal handling, context
// cancellation, exit 0 on clean shutdown), re-targeted from an LSP
// stdio server to a headless file-watch loop over internal/store +
// internal/walker.Watch.
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run a long-running analyzer service",
	Long: `server keeps internal/store's durable fact cache warm and
re-analyzes files as they change on disk, so a caller (an editor
integration, a CI sidecar) never pays for re-extracting facts from an
unchanged file. It has no required flags and runs until interrupted;
SIGINT/SIGTERM trigger a graceful shutdown and exit 0.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVarP(&serverPath, "path", "p", ".", "project root to watch")
	serverCmd.Flags().StringVar(&serverDB, "db", "", "path to the durable fact store (default: <workspace>/.anteater/facts.db)")
	serverCmd.Flags().BoolVar(&serverNoDup, "no-dup", false, "skip duplicate-code detection")
}

func runServer(cmd *cobra.Command, args []string) error {
	frontend, err := resolveFrontend()
	if err != nil {
		return err
	}
	registry, err := buildRegistry()
	if err != nil {
		return err
	}
	dupDet, err := buildDupDetector(serverNoDup)
	if err != nil {
		return err
	}
	if dupDet != nil {
		defer dupDet.Close()
	}

	dbPath := serverDB
	if dbPath == "" {
		dbPath = filepath.Join(workspace, ".anteater", "facts.db")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	defer st.Close()

	p := pipeline.New(*cfg, frontend, registry, dupDet, st)
	w := buildWalker(serverPath)
	log := logging.Get(logging.CategoryServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("server: received shutdown signal")
		cancel()
	}()

	// Warm the store with every file's current facts before watching for
	// changes, the same AnalyzeProject path analyze/metrics/debt use.
	if _, err := pipeline.AnalyzeProject(ctx, p, w, os.ReadFile, serverProgress); err != nil {
		if ctx.Err() != nil {
			log.Info("server: initial analysis interrupted during shutdown")
			return nil
		}
		return fmt.Errorf("server: initial analysis: %w", err)
	}

	log.Info("server: watching %s for changes", serverPath)
	err = w.Watch(ctx, func(ctx context.Context, changed []string) {
		for _, path := range changed {
			source, err := os.ReadFile(path)
			if err != nil {
				log.Warn("server: read %s: %v", path, err)
				continue
			}
			result := p.AnalyzeFile(ctx, path, source)
			if result.Error != nil {
				log.Warn("server: analyze %s: %v", path, result.Error)
				continue
			}
			log.Info("server: re-analyzed %s (%d violations, %d debt items)", path, len(result.Violations), len(result.DebtItems))
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("server: watch loop: %w", err)
	}

	log.Info("server: shut down cleanly")
	return nil
}

func serverProgress(path string, err error) {
	if err != nil {
		logging.Get(logging.CategoryServer).Warn("server: initial analysis of %s: %v", path, err)
	}
}
