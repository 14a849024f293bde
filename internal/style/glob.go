package style

import "regexp"

// matchGlob compiles and matches a single spec.md §6 glob pattern
// (`*`, `**`, `?`) against path. Per-rule exclude lists are small (a
// handful of globs at most), so this recompiles on every call rather than
// caching — internal/walker's project-wide exclude list is the one that
// needs compiled-pattern caching, not this one.
func matchGlob(pattern, path string) (bool, error) {
	re, err := compileGlob(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(path), nil
}

func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b []byte
	b = append(b, '^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b = append(b, ".*"...)
				i++
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
				}
			} else {
				b = append(b, "[^/]*"...)
			}
		case '?':
			b = append(b, "[^/]"...)
		case '.', '+', '(', ')', '|', '^', '$', '{', '}', '[', ']', '\\':
			b = append(b, regexp.QuoteMeta(string(runes[i]))...)
		default:
			b = append(b, string(runes[i])...)
		}
	}
	b = append(b, '$')
	return regexp.Compile(string(b))
}
