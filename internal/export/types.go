package export

import (
	"time"

	"figsprite/pkg/figma"
)

// Icon pairs a generated icon id with the node it came from. The slice
// order handed to the exporter decides grouping order, which keeps the
// output deterministic.
type Icon struct {
	ID   string
	Node figma.ParsedIconNode
}

// IconData is one exported raster icon at source resolution.
type IconData struct {
	ID     string
	Name   string
	NodeID string
	Width  int
	Height int
	Buffer []byte
}

// SvgIconData is one exported vector icon. ViewBox always holds four
// finite numbers, extracted from the markup or synthesized from the
// node bounds.
type SvgIconData struct {
	ID      string
	Content string
	ViewBox string
	Width   float64
	Height  float64
}

// Failure records one asset that could not be exported. Failures are
// collected and reported as data; they only escalate to an error when
// every asset in a run fails.
type Failure struct {
	Format   figma.Format `json:"format"`
	ExportID string       `json:"export_id"`
	IconIDs  []string     `json:"icon_ids"`
	NodeIDs  []string     `json:"node_ids"`
	Reason   string       `json:"reason"`
}

// Stats summarizes one export run. Counts are in icon records, not
// physical downloads.
type Stats struct {
	Total      int
	Successful int
	Failed     int
	Duration   time.Duration
}

// RasterResult is the outcome of ExportRaster.
type RasterResult struct {
	Icons    []IconData
	Failures []Failure
	Stats    Stats
}

// VectorResult is the outcome of ExportVector.
type VectorResult struct {
	Icons    []SvgIconData
	Failures []Failure
	Stats    Stats
}

// Result bundles the per-format outcomes of a combined export. A format
// that was not requested, or whose export failed terminally, is nil;
// Failures aggregates every per-asset record across formats, including
// those of a format whose result is nil.
type Result struct {
	Raster   *RasterResult
	Vector   *VectorResult
	Failures []Failure
}
