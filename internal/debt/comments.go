package debt

import (
	"regexp"
	"strings"
)

// commentRule is one comment/text-pattern debt detector, table-driven in the
// same shape as the teacher's style-check pattern tables.
type commentRule struct {
	typ      Type
	severity Severity
	message  string
	// match reports whether line carries this debt marker, returning the
	// matched text for the item message.
	match func(line string) (string, bool)
}

var commentRules = []commentRule{
	{typ: TypeTodo, severity: SeverityLow, message: "TODO comment", match: matchTodo},
	{typ: TypeFixme, severity: SeverityMedium, message: "FIXME comment", match: matchFixme},
	{typ: TypeIgnore, severity: SeverityMedium, message: "lint rule suppressed with ignore comment", match: matchIgnore},
	{typ: TypeIgnoreForFile, severity: SeverityHigh, message: "lint rule suppressed for the whole file", match: matchIgnoreForFile},
	{typ: TypeAsDynamic, severity: SeverityMedium, message: "unsafe cast to dynamic", match: matchAsDynamic},
	{typ: TypeDeprecated, severity: SeverityLow, message: "use of deprecated API", match: matchDeprecated},
}

var (
	ignoreRe        = regexp.MustCompile(`//\s*ignore:\s*(.+)$`)
	ignoreForFileRe = regexp.MustCompile(`//\s*ignore_for_file:\s*(.+)$`)
	asDynamicRe     = regexp.MustCompile(`\bas\s+dynamic\b`)
	deprecatedRe    = regexp.MustCompile(`@[Dd]eprecated\b`)
)

// matchTodo implements spec.md §8's exact rule: `//` immediately (no
// leading `/`, i.e. not `///`), at least one whitespace, `TODO` in exact
// case, then `:`, whitespace, or end of line. `/* TODO */` is excluded
// because it never contains a bare `//` marker at all.
func matchTodo(line string) (string, bool) { return matchKeywordComment(line, "TODO") }

func matchFixme(line string) (string, bool) {
	if s, ok := matchKeywordComment(line, "FIXME"); ok {
		return s, true
	}
	return matchKeywordComment(line, "HACK")
}

// matchKeywordComment finds an exact `//` comment marker (not part of a
// longer `///+` run) followed by at least one space and keyword, followed
// by `:`, whitespace, or end of line.
func matchKeywordComment(line string, keyword string) (string, bool) {
	for i := 0; i+2 <= len(line); i++ {
		if line[i] != '/' || i+1 >= len(line) || line[i+1] != '/' {
			continue
		}
		if i > 0 && line[i-1] == '/' {
			continue // part of a /// or longer run
		}
		if i+2 < len(line) && line[i+2] == '/' {
			continue // the start of a /// run
		}
		rest := line[i+2:]
		j := 0
		for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
			j++
		}
		if j == 0 {
			continue // requires at least one whitespace before the keyword
		}
		if !strings.HasPrefix(rest[j:], keyword) {
			continue
		}
		after := rest[j+len(keyword):]
		if after == "" || after[0] == ':' || after[0] == ' ' || after[0] == '\t' {
			return strings.TrimSpace(line[i:]), true
		}
	}
	return "", false
}

func matchIgnore(line string) (string, bool) {
	if ignoreForFileRe.MatchString(line) {
		return "", false // ignore_for_file is its own, higher-severity category
	}
	if m := ignoreRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(line), true
	}
	return "", false
}

func matchIgnoreForFile(line string) (string, bool) {
	if m := ignoreForFileRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(line), true
	}
	return "", false
}

func matchAsDynamic(line string) (string, bool) {
	if asDynamicRe.MatchString(line) {
		return strings.TrimSpace(line), true
	}
	return "", false
}

func matchDeprecated(line string) (string, bool) {
	if deprecatedRe.MatchString(line) {
		return strings.TrimSpace(line), true
	}
	return "", false
}

// DetectComments scans source line-by-line for comment/annotation-based debt
// markers (spec.md §2/§8). filePath is recorded on each item for report
// grouping.
func DetectComments(filePath string, source []byte) []Item {
	var items []Item
	lines := strings.Split(string(source), "\n")
	for lineNum, line := range lines {
		for _, rule := range commentRules {
			if matched, ok := rule.match(line); ok {
				items = append(items, Item{
					Type:     rule.typ,
					Severity: rule.severity,
					File:     filePath,
					Line:     lineNum + 1,
					Message:  rule.message + ": " + matched,
				})
			}
		}
	}
	return items
}
