package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"

	"figsprite/internal/sprite"
	"figsprite/internal/sprite/packer"
	errs "figsprite/pkg/errors"
)

// Options configures one compositing pass.
type Options struct {
	// Scale multiplies every dimension and position. 1 composites the
	// source bitmaps verbatim; anything else resamples each icon.
	Scale float64
	// Background is a hex color like "#1e1e1e". Empty means transparent.
	Background string
	// CompressionLevel is the PNG effort knob, 0 (store) to 9 (smallest).
	CompressionLevel int
}

// Sheet is a finished raster sprite sheet.
type Sheet struct {
	Width  int
	Height int
	Icons  []packer.PackedIcon
	Buffer []byte
	Hash   string
}

// Composite renders the packed icons onto one canvas and encodes it as
// PNG. The packer guarantees non-overlap, so composite order does not
// affect the output bytes.
func Composite(icons []packer.PackedIcon, width, height int, opts Options) (*Sheet, error) {
	if len(icons) == 0 {
		return nil, &errs.ImageError{Message: "no icons to composite"}
	}
	if width <= 0 || height <= 0 {
		return nil, &errs.ImageError{Message: fmt.Sprintf("invalid sheet dimensions %dx%d", width, height)}
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	outW := int(float64(width) * scale)
	outH := int(float64(height) * scale)
	canvas := image.NewRGBA(image.Rect(0, 0, outW, outH))

	if opts.Background != "" {
		bg, err := parseHexColor(opts.Background)
		if err != nil {
			return nil, &errs.ImageError{Message: err.Error()}
		}
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}

	for _, icon := range icons {
		img, _, err := image.Decode(bytes.NewReader(icon.Buffer))
		if err != nil {
			return nil, &errs.ImageError{Message: fmt.Sprintf("failed to decode icon %s: %v", icon.ID, err)}
		}

		x := int(float64(icon.X) * scale)
		y := int(float64(icon.Y) * scale)
		if scale == 1 {
			target := image.Rect(x, y, x+img.Bounds().Dx(), y+img.Bounds().Dy())
			draw.Draw(canvas, target, img, img.Bounds().Min, draw.Over)
			continue
		}

		// Each icon is resampled on its own so the filter never bleeds
		// across icon boundaries.
		w := int(float64(icon.Width) * scale)
		h := int(float64(icon.Height) * scale)
		target := image.Rect(x, y, x+w, y+h)
		xdraw.CatmullRom.Scale(canvas, target, img, img.Bounds(), xdraw.Over, nil)
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: compressionLevel(opts.CompressionLevel)}
	if err := encoder.Encode(&buf, canvas); err != nil {
		return nil, &errs.ImageError{Message: fmt.Sprintf("failed to encode sheet: %v", err)}
	}

	return &Sheet{
		Width:  outW,
		Height: outH,
		Icons:  icons,
		Buffer: buf.Bytes(),
		Hash:   sprite.ContentHash(buf.Bytes()),
	}, nil
}

// CompositePair produces a matched base and retina sheet. The retina
// sheet's icon metadata is pre-multiplied by the retina scale so
// consumers never re-derive coordinates.
func CompositePair(icons []packer.PackedIcon, width, height int, retinaScale int, opts Options) (base, retina *Sheet, err error) {
	baseOpts := opts
	baseOpts.Scale = 1
	base, err = Composite(icons, width, height, baseOpts)
	if err != nil {
		return nil, nil, err
	}

	if retinaScale <= 1 {
		return base, nil, nil
	}

	retinaOpts := opts
	retinaOpts.Scale = float64(retinaScale)
	retina, err = Composite(icons, width, height, retinaOpts)
	if err != nil {
		return nil, nil, err
	}

	scaled := make([]packer.PackedIcon, len(icons))
	for i, icon := range icons {
		scaled[i] = icon
		scaled[i].X = icon.X * retinaScale
		scaled[i].Y = icon.Y * retinaScale
		scaled[i].Width = icon.Width * retinaScale
		scaled[i].Height = icon.Height * retinaScale
	}
	retina.Icons = scaled

	return base, retina, nil
}

func compressionLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func parseHexColor(s string) (color.NRGBA, error) {
	hexStr := strings.TrimPrefix(s, "#")
	var r, g, b uint8
	switch len(hexStr) {
	case 3:
		if _, err := fmt.Sscanf(hexStr, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid background color %q", s)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(hexStr, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid background color %q", s)
		}
	default:
		return color.NRGBA{}, fmt.Errorf("invalid background color %q", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
