package figma

// Format selects the image format for an export request.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// FileResponse is the response from the file endpoint. Only the fields
// the sprite pipeline needs are decoded.
type FileResponse struct {
	Name         string `json:"name"`
	LastModified string `json:"lastModified"`
	Version      string `json:"version"`
	Document     Node   `json:"document"`
}

// Node is a single element in the document tree. Visible is a pointer
// because the API omits the field when the node is visible.
type Node struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Type                string `json:"type"`
	Visible             *bool  `json:"visible,omitempty"`
	ComponentID         string `json:"componentId,omitempty"`
	Children            []Node `json:"children,omitempty"`
	AbsoluteBoundingBox *Rect  `json:"absoluteBoundingBox,omitempty"`
}

// IsVisible reports whether the node is visible. Absent means visible.
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// Rect is a bounding box in canvas coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ImagesResponse is the response from the images endpoint. A node that
// failed to render appears in Images with an empty URL (null on the wire).
type ImagesResponse struct {
	Err    string            `json:"err"`
	Images map[string]string `json:"images"`
	Status int               `json:"status,omitempty"`
}

// ExportRequest describes one images-endpoint call.
type ExportRequest struct {
	IDs    []string
	Format Format
	// Scale is the render multiplier. Zero means the API default of 1.
	Scale float64
	// SVGIncludeID asks the renderer to keep element ids in SVG output.
	SVGIncludeID bool
	// SVGSimplifyStroke lets the renderer convert strokes to fills.
	SVGSimplifyStroke bool
}

// ParsedIconNode is one exportable icon discovered in the document tree.
// ExportID identifies the physical asset to download; several icons may
// share it when they are instances of the same component.
type ParsedIconNode struct {
	NodeID   string
	ExportID string
	Name     string
	Type     string
	Bounds   Rect
	Visible  bool
}
