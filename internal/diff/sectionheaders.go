package diff

import (
	"path/filepath"
	"regexp"
	"strings"
)

// sectionHeaderPatterns map a file extension to a list of regexes that
// identify a "definition" line (function, type, class, section) suitable
// as a hunk's context header, mirroring the intent of git's built-in
// xfuncname patterns but generalized rather than lifted from any one
// language driver.
var sectionHeaderPatterns = map[string][]*regexp.Regexp{
	".go": {
		regexp.MustCompile(`^func\s+.*\(.*\).*\{?\s*$`),
		regexp.MustCompile(`^type\s+\w+\s+(struct|interface)\b`),
	},
	".rs": {
		regexp.MustCompile(`^\s*(pub\s+)?(async\s+)?fn\s+\w+`),
		regexp.MustCompile(`^\s*(pub\s+)?(struct|enum|trait|impl)\s+\w+`),
	},
	".py": {
		regexp.MustCompile(`^\s*(async\s+)?def\s+\w+`),
		regexp.MustCompile(`^\s*class\s+\w+`),
	},
	".js": {
		regexp.MustCompile(`^\s*(export\s+)?(async\s+)?function\s+\w+`),
		regexp.MustCompile(`^\s*(export\s+)?class\s+\w+`),
	},
	".ts": {
		regexp.MustCompile(`^\s*(export\s+)?(async\s+)?function\s+\w+`),
		regexp.MustCompile(`^\s*(export\s+)?(class|interface)\s+\w+`),
	},
	".c": {
		regexp.MustCompile(`^\w[\w\s\*]*\s+\w+\s*\([^;]*$`),
	},
	".java": {
		regexp.MustCompile(`^\s*(public|private|protected)[\w\s<>\[\]]*\(.*\)\s*\{?\s*$`),
		regexp.MustCompile(`^\s*(public|private|protected)?\s*class\s+\w+`),
	},
}

func sectionHeaderMatchers(path string) []*regexp.Regexp {
	ext := strings.ToLower(filepath.Ext(path))
	return sectionHeaderPatterns[ext]
}

// findSectionHeader searches backward from startLineIdx (exclusive, 0-based
// into the full line slice) for the nearest line matching one of path's
// section-header patterns, within a lookback window of maxLookback lines.
func findSectionHeader(path string, lines []string, startLineIdx, maxLookback int) string {
	matchers := sectionHeaderMatchers(path)
	if len(matchers) == 0 {
		return ""
	}

	limit := startLineIdx - maxLookback
	if limit < 0 {
		limit = 0
	}
	for i := startLineIdx - 1; i >= limit; i-- {
		line := lines[i]
		for _, re := range matchers {
			if re.MatchString(line) {
				return strings.TrimSpace(line)
			}
		}
	}
	return ""
}
