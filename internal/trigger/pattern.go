package trigger

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Pattern represents a compiled branch filter supporting exact, glob and
// regex matching. Globs use path.Match semantics; patterns wrapped in
// slashes (`/.../`) compile as regular expressions.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	glob  bool
}

// CompilePatterns transforms raw branch filter strings into Pattern values.
// Blank entries are dropped.
func CompilePatterns(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile branch regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		if strings.ContainsAny(raw, "*?[") {
			// Malformed globs are detected lazily by path.Match and simply
			// never match.
			result = append(result, Pattern{raw: raw, glob: true})
			continue
		}
		result = append(result, Pattern{raw: raw})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied branch name.
func (p Pattern) Match(branch string) bool {
	if branch == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(branch)
	}
	if p.glob {
		ok, err := path.Match(p.raw, branch)
		return err == nil && ok
	}
	return p.raw == branch
}

// String returns the original pattern text.
func (p Pattern) String() string {
	return p.raw
}
