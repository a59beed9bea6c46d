package packer

import (
	"sort"

	"figsprite/internal/export"
	errs "figsprite/pkg/errors"
)

// Box is one placed, padding-inflated rectangle.
type Box struct {
	ID string
	X  int
	Y  int
	W  int
	H  int
}

// Layout is the result of packing a set of icon rectangles.
type Layout struct {
	Width  int
	Height int
	Fill   float64
	Boxes  []Box
}

// PackedIcon is an exported icon plus the position assigned to its
// unpadded content within the sheet.
type PackedIcon struct {
	export.IconData
	X int
	Y int
}

// Pack arranges the icons' padding-inflated rectangles without overlap.
// Icons are sorted by id first, so the layout depends only on the set of
// (id, width, height) tuples and never on input order.
func Pack(icons []export.IconData, padding int) (*Layout, error) {
	if len(icons) == 0 {
		return nil, &errs.PackingError{Message: "no icons to pack"}
	}

	sorted := make([]export.IconData, len(icons))
	copy(sorted, icons)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	blocks := make([]block, len(sorted))
	for i, icon := range sorted {
		blocks[i] = block{
			id: icon.ID,
			w:  icon.Width + 2*padding,
			h:  icon.Height + 2*padding,
		}
	}

	width, height := fit(blocks)
	if width == 0 || height == 0 {
		return nil, &errs.PackingError{Message: "packing produced a degenerate layout"}
	}

	layout := &Layout{Width: width, Height: height}
	var used int
	for _, b := range blocks {
		layout.Boxes = append(layout.Boxes, Box{ID: b.id, X: b.x, Y: b.y, W: b.w, H: b.h})
		used += b.w * b.h
	}
	layout.Fill = float64(used) / float64(width*height)

	return layout, nil
}

// PackWithPositions packs the icons and returns them with sheet
// positions pointing at each icon's unpadded content origin.
func PackWithPositions(icons []export.IconData, padding int) ([]PackedIcon, *Layout, error) {
	layout, err := Pack(icons, padding)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]Box, len(layout.Boxes))
	for _, b := range layout.Boxes {
		byID[b.ID] = b
	}

	packed := make([]PackedIcon, 0, len(icons))
	for _, icon := range icons {
		b := byID[icon.ID]
		packed = append(packed, PackedIcon{
			IconData: icon,
			X:        b.X + padding,
			Y:        b.Y + padding,
		})
	}

	return packed, layout, nil
}

// CalculateDimensions reports the sheet size and fill ratio a full pack
// of the same input would produce, for pre-flight sizing. It runs the
// packer and discards the positions: the tree has to be built either
// way to know how the sheet grows, and sharing the code keeps the
// projection exactly equal to Pack for the same input.
func CalculateDimensions(icons []export.IconData, padding int) (width, height int, fill float64, err error) {
	layout, err := Pack(icons, padding)
	if err != nil {
		return 0, 0, 0, err
	}
	return layout.Width, layout.Height, layout.Fill, nil
}
