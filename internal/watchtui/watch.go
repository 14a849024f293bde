package watchtui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"anteater/internal/logging"
	"anteater/internal/pipeline"
	"anteater/internal/walker"
)

// ReadFile reads one file's content for re-analysis after a change.
type ReadFile func(path string) ([]byte, error)

// Run drives `--watch`: internal/walker.Walker.Watch reports debounced
// batches of changed files, each re-analyzed through p, and the result
// rendered live. When stdout is not a terminal (CI, piped output) it falls
// back to one progress line per file instead of the bubbletea dashboard,
// per SPEC_FULL.md §3.5.
func Run(ctx context.Context, p *pipeline.Pipeline, w *walker.Walker, readFile ReadFile) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return runPlain(ctx, p, w, readFile)
	}
	return runDashboard(ctx, p, w, readFile)
}

func analyzeOne(ctx context.Context, p *pipeline.Pipeline, readFile ReadFile, path string) fileResultMsg {
	source, err := readFile(path)
	if err != nil {
		return fileResultMsg{path: path, err: fmt.Errorf("read %s: %w", path, err)}
	}
	result := p.AnalyzeFile(ctx, path, source)
	return fileResultMsg{
		path:       path,
		violations: len(result.Violations),
		debtItems:  len(result.DebtItems),
		err:        result.Error,
	}
}

func runDashboard(ctx context.Context, p *pipeline.Pipeline, w *walker.Walker, readFile ReadFile) error {
	prog := tea.NewProgram(NewModel(), tea.WithAltScreen())

	go func() {
		err := w.Watch(ctx, func(ctx context.Context, changed []string) {
			for _, path := range changed {
				prog.Send(analyzeOne(ctx, p, readFile, path))
			}
		})
		if err != nil {
			logging.Get(logging.CategoryWalker).Error("watchtui: watch loop exited: %v", err)
		}
		prog.Send(quitMsg{})
	}()

	_, err := prog.Run()
	return err
}

func runPlain(ctx context.Context, p *pipeline.Pipeline, w *walker.Walker, readFile ReadFile) error {
	return w.Watch(ctx, func(ctx context.Context, changed []string) {
		for _, path := range changed {
			msg := analyzeOne(ctx, p, readFile, path)
			if msg.err != nil {
				fmt.Printf("[watch] %s: error: %v\n", msg.path, msg.err)
				continue
			}
			fmt.Printf("[watch] %s: %d violations, %d debt items\n", msg.path, msg.violations, msg.debtItems)
		}
	})
}
