package pipeline

import (
	"fmt"
	"strings"
	"unicode"

	"figsprite/internal/export"
	"figsprite/pkg/figma"
)

// AssignIconIDs derives a unique kebab-case icon id from every node's
// name, preserving input order. Duplicates get a numeric suffix so ids
// stay unique within the run.
func AssignIconIDs(nodes []figma.ParsedIconNode) []export.Icon {
	seen := make(map[string]int, len(nodes))
	icons := make([]export.Icon, 0, len(nodes))

	for _, node := range nodes {
		id := slugify(node.Name)
		if id == "" {
			id = slugify(node.NodeID)
		}
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s-%d", id, n+1)
		}
		seen[id]++

		icons = append(icons, export.Icon{ID: id, Node: node})
	}

	return icons
}

// slugify lowercases a name and collapses every run of non-alphanumeric
// characters into a single hyphen. Figma layer names routinely contain
// slashes, spaces and emoji; "Icons / Arrow Up" becomes "icons-arrow-up".
func slugify(name string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) && r < 128 {
			sb.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			sb.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
