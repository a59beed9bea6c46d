package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figsprite/internal/export"
	"figsprite/internal/sprite/packer"
	errs "figsprite/pkg/errors"
)

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func packedIcon(t *testing.T, id string, x, y, w, h int, c color.NRGBA) packer.PackedIcon {
	t.Helper()
	return packer.PackedIcon{
		IconData: export.IconData{
			ID:     id,
			Name:   id,
			Width:  w,
			Height: h,
			Buffer: solidPNG(t, w, h, c),
		},
		X: x,
		Y: y,
	}
}

func TestCompositeEmptyInput(t *testing.T) {
	_, err := Composite(nil, 64, 64, Options{})
	require.Error(t, err)

	var imgErr *errs.ImageError
	assert.ErrorAs(t, err, &imgErr)
}

func TestCompositeInvalidDimensions(t *testing.T) {
	icons := []packer.PackedIcon{packedIcon(t, "a", 0, 0, 8, 8, color.NRGBA{R: 255, A: 255})}

	_, err := Composite(icons, 0, 64, Options{})
	assert.Error(t, err)

	_, err = Composite(icons, 64, -1, Options{})
	assert.Error(t, err)
}

func TestCompositePlacesIcons(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	icons := []packer.PackedIcon{
		packedIcon(t, "a", 2, 2, 8, 8, red),
		packedIcon(t, "b", 14, 2, 8, 8, blue),
	}

	sheet, err := Composite(icons, 24, 12, Options{})
	require.NoError(t, err)
	assert.Equal(t, 24, sheet.Width)
	assert.Equal(t, 12, sheet.Height)
	assert.Len(t, sheet.Hash, 8)

	img, err := png.Decode(bytes.NewReader(sheet.Buffer))
	require.NoError(t, err)

	r, _, _, a := img.At(5, 5).RGBA()
	assert.NotZero(t, r)
	assert.NotZero(t, a)

	_, _, b, _ := img.At(17, 5).RGBA()
	assert.NotZero(t, b)

	// Untouched corner stays transparent.
	_, _, _, a = img.At(23, 11).RGBA()
	assert.Zero(t, a)
}

func TestCompositeHashStable(t *testing.T) {
	icons := []packer.PackedIcon{
		packedIcon(t, "a", 0, 0, 8, 8, color.NRGBA{R: 200, A: 255}),
	}

	first, err := Composite(icons, 16, 16, Options{CompressionLevel: 6})
	require.NoError(t, err)
	second, err := Composite(icons, 16, 16, Options{CompressionLevel: 6})
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Buffer, second.Buffer)
}

func TestCompositeHashChangesWithContent(t *testing.T) {
	a := []packer.PackedIcon{packedIcon(t, "a", 0, 0, 8, 8, color.NRGBA{R: 200, A: 255})}
	b := []packer.PackedIcon{packedIcon(t, "a", 0, 0, 8, 8, color.NRGBA{R: 201, A: 255})}

	sheetA, err := Composite(a, 16, 16, Options{})
	require.NoError(t, err)
	sheetB, err := Composite(b, 16, 16, Options{})
	require.NoError(t, err)

	assert.NotEqual(t, sheetA.Hash, sheetB.Hash)
}

func TestCompositeBackground(t *testing.T) {
	icons := []packer.PackedIcon{packedIcon(t, "a", 0, 0, 4, 4, color.NRGBA{R: 255, A: 255})}

	sheet, err := Composite(icons, 16, 16, Options{Background: "#00ff00"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(sheet.Buffer))
	require.NoError(t, err)

	_, g, _, a := img.At(15, 15).RGBA()
	assert.NotZero(t, g)
	assert.NotZero(t, a)
}

func TestCompositeBadBackground(t *testing.T) {
	icons := []packer.PackedIcon{packedIcon(t, "a", 0, 0, 4, 4, color.NRGBA{R: 255, A: 255})}

	_, err := Composite(icons, 16, 16, Options{Background: "chartreuse"})
	require.Error(t, err)
}

func TestCompositePairRetinaMetadata(t *testing.T) {
	icons := []packer.PackedIcon{
		packedIcon(t, "a", 2, 2, 24, 24, color.NRGBA{R: 255, A: 255}),
	}

	base, retina, err := CompositePair(icons, 28, 28, 2, Options{})
	require.NoError(t, err)
	require.NotNil(t, retina)

	assert.Equal(t, 28, base.Width)
	assert.Equal(t, 56, retina.Width)
	assert.Equal(t, 56, retina.Height)

	assert.Equal(t, 2, base.Icons[0].X)
	assert.Equal(t, 24, base.Icons[0].Width)
	assert.Equal(t, 4, retina.Icons[0].X)
	assert.Equal(t, 4, retina.Icons[0].Y)
	assert.Equal(t, 48, retina.Icons[0].Width)
	assert.Equal(t, 48, retina.Icons[0].Height)
}

func TestCompositePairScaleOne(t *testing.T) {
	icons := []packer.PackedIcon{
		packedIcon(t, "a", 0, 0, 8, 8, color.NRGBA{R: 255, A: 255}),
	}

	base, retina, err := CompositePair(icons, 8, 8, 1, Options{})
	require.NoError(t, err)
	assert.NotNil(t, base)
	assert.Nil(t, retina)
}
