package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"anteater/internal/metrics"
	"anteater/internal/pipeline"
	"anteater/internal/watchtui"
)

var (
	metricsPath        string
	metricsFormat      string
	metricsThresholdCC int
	metricsThresholdMI int
	metricsWatch       bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Report per-function and project metrics",
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsPath, "path", "p", ".", "project root to analyze")
	metricsCmd.Flags().StringVarP(&metricsFormat, "format", "f", "text", "output format: text|json")
	metricsCmd.Flags().IntVar(&metricsThresholdCC, "threshold-cc", 0, "exit non-zero if any function's cyclomatic complexity exceeds this (0 disables)")
	metricsCmd.Flags().IntVar(&metricsThresholdMI, "threshold-mi", 0, "exit non-zero if any function's maintainability index falls below this (0 disables)")
	metricsCmd.Flags().BoolVar(&metricsWatch, "watch", false, "re-measure on file change")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	frontend, err := resolveFrontend()
	if err != nil {
		return err
	}
	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	p := pipeline.New(*cfg, frontend, registry, nil, nil)
	w := buildWalker(metricsPath)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if metricsWatch {
		return watchtui.Run(ctx, p, w, os.ReadFile)
	}

	result, err := pipeline.AnalyzeProject(ctx, p, w, os.ReadFile, nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	var all []metrics.FunctionMetrics
	breached := false
	for _, f := range result.Files {
		for _, fm := range f.Metrics.Functions {
			all = append(all, fm)
			if metricsThresholdCC > 0 && fm.Cyclomatic > metricsThresholdCC {
				breached = true
			}
			if metricsThresholdMI > 0 && fm.MaintainabilityIndex < float64(metricsThresholdMI) {
				breached = true
			}
		}
	}

	if err := renderMetrics(all, metricsFormat); err != nil {
		return err
	}

	// spec.md §6: "0 always unless thresholds + fatal set" — a threshold
	// flag was given and a function breached it.
	if breached {
		exitWith(1)
	}
	return nil
}

func renderMetrics(all []metrics.FunctionMetrics, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}
		fmt.Println(string(data))
	default:
		for _, fm := range all {
			if fm.Skipped {
				fmt.Printf("%s:%d-%d %s (skipped, empty body)\n", fm.File, fm.StartLine, fm.EndLine, fm.Name)
				continue
			}
			fmt.Printf("%s:%d-%d %s cc=%d cognitive=%d mi=%.1f loc=%d\n",
				fm.File, fm.StartLine, fm.EndLine, fm.Name, fm.Cyclomatic, fm.Cognitive, fm.MaintainabilityIndex, fm.LinesOfCode)
		}
		fmt.Printf("\n%d functions measured\n", len(all))
	}
	return nil
}
