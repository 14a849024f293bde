package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"anteater/internal/ast"
	"anteater/internal/pipeline"
	"anteater/internal/style"
)

var errParseFailed = errors.New("parse failed")

// fakeFrontend satisfies pipeline.Frontend for tests that only need
// resolveFrontend's lookup path, never real parsing.
type fakeFrontend struct{}

func (fakeFrontend) Parse(path string, source []byte) (ast.Node, error) { return nil, nil }
func (fakeFrontend) Functions(root ast.Node) []pipeline.FunctionDecl     { return nil }

func TestResolveFrontendReturnsErrorWhenUnset(t *testing.T) {
	orig := frontendName
	defer func() { frontendName = orig }()
	frontendName = ""

	_, err := resolveFrontend()
	require.Error(t, err)
}

func TestResolveFrontendReturnsErrorWhenUnregistered(t *testing.T) {
	orig := frontendName
	defer func() { frontendName = orig }()
	frontendName = "does-not-exist"

	_, err := resolveFrontend()
	require.Error(t, err)
}

func TestResolveFrontendFindsRegisteredFrontend(t *testing.T) {
	pipeline.RegisterFrontend("main-test-frontend", fakeFrontend{})

	orig := frontendName
	defer func() { frontendName = orig }()
	frontendName = "main-test-frontend"

	f, err := resolveFrontend()
	require.NoError(t, err)
	require.Equal(t, fakeFrontend{}, f)
}

func TestAnalyzeExitCodeNoneIsZero(t *testing.T) {
	orig1, orig2 := analyzeNoFatalWarnings, analyzeNoFatalInfos
	defer func() { analyzeNoFatalWarnings, analyzeNoFatalInfos = orig1, orig2 }()
	analyzeNoFatalWarnings, analyzeNoFatalInfos = false, false

	code := analyzeExitCode(nil, pipeline.ProjectResult{})
	require.Equal(t, 0, code)
}

func TestAnalyzeExitCodeErrorSeverityIsOne(t *testing.T) {
	violations := []style.Violation{{Severity: style.SeverityError}}
	code := analyzeExitCode(violations, pipeline.ProjectResult{})
	require.Equal(t, 1, code)
}

func TestAnalyzeExitCodeWarningSeverityIsTwoUnlessSuppressed(t *testing.T) {
	orig := analyzeNoFatalWarnings
	defer func() { analyzeNoFatalWarnings = orig }()

	violations := []style.Violation{{Severity: style.SeverityWarning}}

	analyzeNoFatalWarnings = false
	require.Equal(t, 2, analyzeExitCode(violations, pipeline.ProjectResult{}))

	analyzeNoFatalWarnings = true
	require.Equal(t, 0, analyzeExitCode(violations, pipeline.ProjectResult{}))
}

func TestAnalyzeExitCodePerFileErrorIsOneEvenWithoutViolations(t *testing.T) {
	result := pipeline.ProjectResult{
		Files: []pipeline.FileAnalysisResult{{Path: "broken.dart", Error: errParseFailed}},
	}
	code := analyzeExitCode(nil, result)
	require.Equal(t, 1, code)
}
