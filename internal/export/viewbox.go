package export

import "regexp"

var viewBoxPattern = regexp.MustCompile(`viewBox\s*=\s*["']([^"']*)["']`)

// extractViewBox returns the first viewBox attribute value found in the
// markup, or "" when none is declared.
func extractViewBox(content string) string {
	m := viewBoxPattern.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
