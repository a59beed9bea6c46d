package figma

import (
	"fmt"
	"regexp"
)

// fileKeyPattern matches figma.com file and design URLs. Anchored so a
// hostile prefix or suffix cannot smuggle a different host through.
var fileKeyPattern = regexp.MustCompile(`^https?://(?:www\.)?figma\.com/(?:file|design)/([A-Za-z0-9]+)(?:/|$)`)

// ExtractFileKey pulls the file key out of a Figma URL. A bare key is
// returned unchanged so users can pass either form.
func ExtractFileKey(input string) (string, error) {
	if m := fileKeyPattern.FindStringSubmatch(input); len(m) == 2 {
		return m[1], nil
	}
	if regexp.MustCompile(`^[A-Za-z0-9]+$`).MatchString(input) {
		return input, nil
	}
	return "", fmt.Errorf("invalid Figma URL or file key: %q", input)
}

// CollectIconNodes walks the document tree depth first and returns every
// exportable icon node in discovery order. Component nodes export under
// their own id; instances export under the component they point at, so
// several instances of one component share a single download.
//
// Invisible nodes and everything beneath them are skipped.
func CollectIconNodes(doc *Node) []ParsedIconNode {
	var icons []ParsedIconNode
	walkNodes(doc, &icons)
	return icons
}

func walkNodes(n *Node, out *[]ParsedIconNode) {
	if n == nil || !n.IsVisible() {
		return
	}

	switch n.Type {
	case "COMPONENT":
		*out = append(*out, iconFromNode(n, n.ID))
		return
	case "INSTANCE":
		exportID := n.ComponentID
		if exportID == "" {
			exportID = n.ID
		}
		*out = append(*out, iconFromNode(n, exportID))
		return
	}

	for i := range n.Children {
		walkNodes(&n.Children[i], out)
	}
}

func iconFromNode(n *Node, exportID string) ParsedIconNode {
	icon := ParsedIconNode{
		NodeID:   n.ID,
		ExportID: exportID,
		Name:     n.Name,
		Type:     n.Type,
		Visible:  true,
	}
	if n.AbsoluteBoundingBox != nil {
		icon.Bounds = *n.AbsoluteBoundingBox
	}
	return icon
}
