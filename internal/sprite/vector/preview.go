package vector

import (
	"fmt"
	"strings"
)

// GeneratePreview derives a directly renderable document from an
// assembled sheet: the symbols inlined once, then one positioned <use>
// per icon laid out on the same grid the sheet canvas was sized with.
// It is a pure function of the sheet, so repeated calls give identical
// output. Intended for viewers that cannot render bare <symbol> nodes.
func GeneratePreview(sheet *Sheet) string {
	cells, width, height := gridLayout(sheet.Icons)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatNumber(width), formatNumber(height), formatNumber(width), formatNumber(height)))
	sb.WriteString("\n")

	sb.WriteString(innerMarkup(sheet.Content))
	sb.WriteString("\n")

	for i, icon := range sheet.Icons {
		cell := cells[i]
		sb.WriteString(fmt.Sprintf(
			`<use href="#%s" xlink:href="#%s" x="%s" y="%s" width="%s" height="%s"/>`,
			xmlEscape(icon.ID), xmlEscape(icon.ID),
			formatNumber(cell.x), formatNumber(cell.y),
			formatNumber(cell.w), formatNumber(cell.h)))
		sb.WriteString("\n")
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}
