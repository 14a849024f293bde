package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"anteater/internal/pipeline"
	"anteater/internal/style"
	"anteater/internal/watchtui"
)

var (
	analyzePath            string
	analyzeFormat          string
	analyzeWatch           bool
	analyzeNoFatalWarnings bool
	analyzeNoFatalInfos    bool
	analyzeQuiet           bool
	analyzeNoDup           bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run style rules across a project",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePath, "path", "p", ".", "project root to analyze")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format: text|json")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false, "re-analyze on file change")
	analyzeCmd.Flags().BoolVar(&analyzeNoFatalWarnings, "no-fatal-warnings", false, "don't raise the exit code for warning-severity violations")
	analyzeCmd.Flags().BoolVar(&analyzeNoFatalInfos, "no-fatal-infos", false, "don't raise the exit code for info-severity violations")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "suppress per-violation output, print only the summary line")
	analyzeCmd.Flags().BoolVar(&analyzeNoDup, "no-dup", false, "skip duplicate-code detection")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	frontend, err := resolveFrontend()
	if err != nil {
		return err
	}
	registry, err := buildRegistry()
	if err != nil {
		return err
	}
	dupDet, err := buildDupDetector(analyzeNoDup)
	if err != nil {
		return err
	}
	if dupDet != nil {
		defer dupDet.Close()
	}

	p := pipeline.New(*cfg, frontend, registry, dupDet, nil)
	w := buildWalker(analyzePath)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if analyzeWatch {
		return watchtui.Run(ctx, p, w, os.ReadFile)
	}

	result, err := pipeline.AnalyzeProject(ctx, p, w, os.ReadFile, analyzeProgress)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	var violations []style.Violation
	for _, f := range result.Files {
		violations = append(violations, f.Violations...)
	}

	if !analyzeQuiet {
		if err := renderAnalyze(violations, analyzeFormat); err != nil {
			return err
		}
	}

	exitWith(analyzeExitCode(violations, result))
	return nil
}

func analyzeProgress(path string, err error) {
	if analyzeQuiet || err == nil {
		return
	}
	fmt.Printf("%s: error: %v\n", path, err)
}

func renderAnalyze(violations []style.Violation, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(violations, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal violations: %w", err)
		}
		fmt.Println(string(data))
	default:
		for _, v := range violations {
			fmt.Printf("%s:%d [%s] %s: %s\n", v.File, v.Line, v.Severity, v.RuleID, v.Message)
		}
		fmt.Printf("\n%d violations\n", len(violations))
	}
	return nil
}

// analyzeExitCode implements spec.md §6's analyze exit codes: a per-file
// parse/resolve failure or an error-severity violation exits 1; a
// warning- or info-severity violation exits 2 unless the matching
// --no-fatal-* flag suppresses it; otherwise 0.
func analyzeExitCode(violations []style.Violation, result pipeline.ProjectResult) int {
	for _, f := range result.Files {
		if f.Error != nil {
			return 1
		}
	}

	var hasError, hasWarning, hasInfo bool
	for _, v := range violations {
		switch v.Severity {
		case style.SeverityError:
			hasError = true
		case style.SeverityWarning:
			hasWarning = true
		case style.SeverityInfo:
			hasInfo = true
		}
	}

	if hasError {
		return 1
	}
	if hasWarning && !analyzeNoFatalWarnings {
		return 2
	}
	if hasInfo && !analyzeNoFatalInfos {
		return 2
	}
	return 0
}
