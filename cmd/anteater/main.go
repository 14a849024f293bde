// Command anteater is a static analyzer for Dart source trees: it lowers
// function bodies to SSA, runs a stratified Datalog fixed-point over
// points-to/call-graph/taint facts, and reports style violations, metrics,
// and technical debt.
//
// Command implementations are split across files:
//   - main.go           - entry point, rootCmd, global flags, init()
//   - pipeline_setup.go - buildRegistry/buildWalker/resolveFrontend, shared
//     by every subcommand
//   - cmd_analyze.go    - analyzeCmd, runAnalyze()
//   - cmd_metrics.go    - metricsCmd, runMetrics()
//   - cmd_debt.go       - debtCmd, runDebt()
//   - cmd_server.go     - serverCmd, runServer()
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"anteater/internal/config"
	"anteater/internal/logging"
)

var (
	// Global flags
	workspace    string
	configPath   string
	verbose      bool
	jsonLogs     bool
	frontendName string

	cfg *config.Config

	// cliLogger reports CLI-level warnings/errors to stderr (structured,
	// human-readable) alongside internal/logging's per-category file
	// output, the same two-tier split cmd/nerd/main.go uses: one logger
	// for the operator watching the terminal, one for post-hoc debugging.
	cliLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "anteater",
	Short: "Static analysis for Dart source trees",
	Long: `anteater lowers Dart source to CFG/SSA, runs a stratified Datalog
fixed-point over points-to, call-graph, and taint facts, and reports style
violations, metrics, and technical debt.

A --frontend name naming a registered internal/pipeline.Frontend is required
by every subcommand that parses source: anteater ships the parsing seam but
no concrete Dart grammar binding, so a deployment links one in and registers
it by name via internal/pipeline.RegisterFrontend.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		} else if abs, err := filepath.Abs(ws); err == nil {
			ws = abs
		}
		workspace = ws

		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		cliLogger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		level := "info"
		if verbose {
			level = "debug"
		}
		if err := logging.Initialize(ws, verbose, level, jsonLogs); err != nil {
			cliLogger.Warn("failed to initialize file logging", zap.Error(err))
		}

		path := configPath
		if path == "" {
			path = filepath.Join(ws, ".anteater.yml")
		}
		loaded, err := config.Load(path, false)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cliLogger != nil {
			_ = cliLogger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to .anteater.yml (default: <workspace>/.anteater.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON log lines instead of plain text")
	rootCmd.PersistentFlags().StringVar(&frontendName, "frontend", "", "registered pipeline.Frontend to parse source with")

	rootCmd.AddCommand(analyzeCmd, metricsCmd, debtCmd, serverCmd)
}

// exitWith flushes logging and terminates with code. Subcommands whose exit
// code depends on analysis results (spec.md §6's per-command exit-code
// table), not on a Go error, call this directly instead of returning from
// RunE, since cobra's own error path only ever exits 1.
func exitWith(code int) {
	if cliLogger != nil {
		_ = cliLogger.Sync()
	}
	logging.CloseAll()
	os.Exit(code)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
