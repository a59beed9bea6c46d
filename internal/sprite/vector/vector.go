package vector

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"figsprite/internal/export"
	"figsprite/internal/sprite"
	errs "figsprite/pkg/errors"
	"figsprite/pkg/logger"
)

// gridPadding is the gap between grid cells in the wrapping canvas.
const gridPadding = 8.0

// Options configures symbol sheet assembly.
type Options struct {
	// Optimize runs the markup through the optimizer. Failures fall
	// back to the unoptimized markup with a warning, never an error.
	Optimize bool
	// Pretty emits indented markup instead of one symbol per line.
	Pretty bool
}

// Sheet is a finished vector sprite sheet.
type Sheet struct {
	Icons   []export.SvgIconData
	Content string
	Hash    string
}

// Assembler builds <symbol> sprite documents.
type Assembler struct {
	optimizer Optimizer
	logger    logger.Logger
}

// New creates an Assembler with the default optimizer.
func New(log logger.Logger) *Assembler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Assembler{
		optimizer: newMinifyOptimizer(),
		logger:    log,
	}
}

// NewWithOptimizer creates an Assembler with a custom optimizer,
// mainly for tests. A nil optimizer disables optimization entirely.
func NewWithOptimizer(opt Optimizer, log logger.Logger) *Assembler {
	a := New(log)
	a.optimizer = opt
	return a
}

// Assemble emits one <symbol> per icon, sorted by id, wrapped in an
// <svg> sized by a square-ish grid of the icons' visual sizes.
func (a *Assembler) Assemble(icons []export.SvgIconData, opts Options) (*Sheet, error) {
	if len(icons) == 0 {
		return nil, &errs.SVGError{Message: "no icons to assemble"}
	}

	sorted := make([]export.SvgIconData, len(icons))
	copy(sorted, icons)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, icon := range sorted {
		if _, _, _, _, err := ParseViewBox(icon.ViewBox); err != nil {
			return nil, &errs.SVGError{IconID: icon.ID, Message: err.Error()}
		}
	}

	_, width, height := gridLayout(sorted)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatNumber(width), formatNumber(height), formatNumber(width), formatNumber(height)))

	for _, icon := range sorted {
		if opts.Pretty {
			sb.WriteString("\n  ")
		}
		sb.WriteString(`<symbol id="`)
		sb.WriteString(xmlEscape(icon.ID))
		sb.WriteString(`" viewBox="`)
		sb.WriteString(xmlEscape(icon.ViewBox))
		sb.WriteString(`">`)
		sb.WriteString(innerMarkup(icon.Content))
		sb.WriteString(`</symbol>`)
	}
	if opts.Pretty {
		sb.WriteString("\n")
	}
	sb.WriteString(`</svg>`)

	content := sb.String()
	if opts.Optimize && a.optimizer != nil {
		content = a.optimize(content)
	}

	return &Sheet{
		Icons:   sorted,
		Content: content,
		Hash:    sprite.ContentHash([]byte(content)),
	}, nil
}

// optimize runs the optimizer and falls back to the raw markup when it
// errors or strips every symbol. Optimization is never worth failing a
// build over.
func (a *Assembler) optimize(raw string) string {
	optimized, err := a.optimizer.Optimize(raw)
	if err != nil {
		a.logger.WarnWithFields("svg optimization failed, using unoptimized output", map[string]interface{}{
			"error": err.Error(),
		})
		return raw
	}
	if !strings.Contains(optimized, "<symbol") {
		a.logger.Warn("svg optimizer stripped all symbols, using unoptimized output")
		return raw
	}
	return optimized
}

// ParseViewBox validates a viewBox declaration: exactly four finite
// numbers, whitespace or comma separated.
func ParseViewBox(vb string) (minX, minY, width, height float64, err error) {
	parts := strings.FieldsFunc(vb, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("viewBox %q must contain exactly 4 numbers", vb)
	}

	nums := make([]float64, 4)
	for i, p := range parts {
		v, parseErr := strconv.ParseFloat(p, 64)
		if parseErr != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, 0, 0, 0, fmt.Errorf("viewBox %q has a non-finite component %q", vb, p)
		}
		nums[i] = v
	}

	return nums[0], nums[1], nums[2], nums[3], nil
}

// gridCell is one icon's slot in the wrapping canvas grid.
type gridCell struct {
	x, y, w, h float64
}

// gridLayout arranges n icons into ceil(sqrt(n)) columns of uniform
// cells sized by the largest visual dimensions.
func gridLayout(icons []export.SvgIconData) (cells []gridCell, width, height float64) {
	cols := int(math.Ceil(math.Sqrt(float64(len(icons)))))
	if cols == 0 {
		return nil, 0, 0
	}
	rows := int(math.Ceil(float64(len(icons)) / float64(cols)))

	var cellW, cellH float64
	for _, icon := range icons {
		w, h := visualSize(icon)
		cellW = math.Max(cellW, w)
		cellH = math.Max(cellH, h)
	}

	cells = make([]gridCell, len(icons))
	for i := range icons {
		col := i % cols
		row := i / cols
		w, h := visualSize(icons[i])
		cells[i] = gridCell{
			x: gridPadding + float64(col)*(cellW+gridPadding),
			y: gridPadding + float64(row)*(cellH+gridPadding),
			w: w,
			h: h,
		}
	}

	width = gridPadding + float64(cols)*(cellW+gridPadding)
	height = gridPadding + float64(rows)*(cellH+gridPadding)
	return cells, width, height
}

// visualSize prefers the viewBox dimensions and falls back to the
// declared width and height when the viewBox is unusable.
func visualSize(icon export.SvgIconData) (float64, float64) {
	if _, _, w, h, err := ParseViewBox(icon.ViewBox); err == nil && w > 0 && h > 0 {
		return w, h
	}
	return icon.Width, icon.Height
}

var outerSVGPattern = regexp.MustCompile(`(?s)^\s*<svg[^>]*>(.*)</svg>\s*$`)

// innerMarkup strips an icon's wrapping <svg> element.
func innerMarkup(content string) string {
	if m := outerSVGPattern.FindStringSubmatch(content); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

// formatNumber renders a float without a trailing ".0" for whole values.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
