package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figsprite/internal/sprite/packer"
	"figsprite/pkg/config"
	errs "figsprite/pkg/errors"
	"figsprite/pkg/figma"
	"figsprite/pkg/logger"
)

type mockFileClient struct {
	file      *figma.FileResponse
	urls      map[figma.Format]map[string]string
	assets    map[string][]byte
	urlErr    map[figma.Format]error
	downloads atomic.Int32
}

func (m *mockFileClient) GetFile(ctx context.Context, fileKey string) (*figma.FileResponse, error) {
	return m.file, nil
}

func (m *mockFileClient) GetExportURLs(ctx context.Context, fileKey string, req figma.ExportRequest) (map[string]string, error) {
	if err := m.urlErr[req.Format]; err != nil {
		return nil, err
	}
	return m.urls[req.Format], nil
}

func (m *mockFileClient) Download(ctx context.Context, url string) ([]byte, error) {
	m.downloads.Add(1)
	data, ok := m.assets[url]
	if !ok {
		return nil, &errs.APIError{Kind: errs.KindNotFound, Message: "missing", Status: 404}
	}
	return data, nil
}

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testDocument() *figma.FileResponse {
	return &figma.FileResponse{
		Name: "Icons",
		Document: figma.Node{
			ID:   "0:0",
			Type: "DOCUMENT",
			Children: []figma.Node{
				{
					ID:   "1:0",
					Type: "CANVAS",
					Children: []figma.Node{
						{ID: "1:1", Type: "COMPONENT", Name: "arrow/up", AbsoluteBoundingBox: &figma.Rect{Width: 24, Height: 24}},
						{ID: "1:2", Type: "COMPONENT", Name: "arrow/down", AbsoluteBoundingBox: &figma.Rect{Width: 24, Height: 24}},
					},
				},
			},
		},
	}
}

func pipelineConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Figma.RequestsPerMinute = 0
	cfg.Retry.MaxRetries = 0
	cfg.Sprite.Retina = true
	cfg.Sprite.RetinaScale = 2
	return cfg
}

func newMock(t *testing.T) *mockFileClient {
	svgA := `<svg viewBox="0 0 24 24" xmlns="http://www.w3.org/2000/svg"><path d="M1 1"/></svg>`
	svgB := `<svg viewBox="0 0 24 24" xmlns="http://www.w3.org/2000/svg"><path d="M2 2"/></svg>`
	return &mockFileClient{
		file: testDocument(),
		urls: map[figma.Format]map[string]string{
			figma.FormatPNG: {"1:1": "https://cdn/1.png", "1:2": "https://cdn/2.png"},
			figma.FormatSVG: {"1:1": "https://cdn/1.svg", "1:2": "https://cdn/2.svg"},
		},
		assets: map[string][]byte{
			"https://cdn/1.png": tinyPNG(t, 24, 24),
			"https://cdn/2.png": tinyPNG(t, 24, 24),
			"https://cdn/1.svg": []byte(svgA),
			"https://cdn/2.svg": []byte(svgB),
		},
		urlErr: map[figma.Format]error{},
	}
}

func TestRunProducesBothSheets(t *testing.T) {
	client := newMock(t)
	p := New(client, pipelineConfig(), logger.NewTestLogger())

	result, err := p.Run(context.Background(), "KEY")
	require.NoError(t, err)

	assert.Equal(t, "Icons", result.FileName)
	require.NotNil(t, result.Raster)
	require.NotNil(t, result.Retina)
	require.NotNil(t, result.Vector)
	assert.NotEmpty(t, result.Preview)
	assert.Empty(t, result.Failures)

	assert.Equal(t, result.Raster.Width*2, result.Retina.Width)
	assert.Len(t, result.Raster.Icons, 2)
	assert.Contains(t, result.Vector.Content, `<symbol id="arrow-down"`)
	assert.Contains(t, result.Vector.Content, `<symbol id="arrow-up"`)
}

func TestRunRasterFailureDoesNotBlockVector(t *testing.T) {
	client := newMock(t)
	client.urlErr[figma.FormatPNG] = &errs.APIError{Kind: errs.KindServerError, Message: "down", Status: 500}
	p := New(client, pipelineConfig(), logger.NewTestLogger())

	result, err := p.Run(context.Background(), "KEY")
	require.NoError(t, err)

	assert.Nil(t, result.Raster)
	require.NotNil(t, result.Vector)

	// Every PNG asset failed; those records must reach the caller even
	// though the raster sheet itself is gone.
	require.Len(t, result.Failures, 2)
	for _, f := range result.Failures {
		assert.Equal(t, figma.FormatPNG, f.Format)
		assert.Contains(t, f.Reason, "down")
	}
}

func TestRunNoIcons(t *testing.T) {
	client := newMock(t)
	client.file = &figma.FileResponse{Name: "Empty", Document: figma.Node{ID: "0:0", Type: "DOCUMENT"}}
	p := New(client, pipelineConfig(), logger.NewTestLogger())

	_, err := p.Run(context.Background(), "KEY")
	assert.Error(t, err)
}

func TestRunSVGOnly(t *testing.T) {
	client := newMock(t)
	cfg := pipelineConfig()
	cfg.Output.Formats = []string{"svg"}
	p := New(client, cfg, logger.NewTestLogger())

	result, err := p.Run(context.Background(), "KEY")
	require.NoError(t, err)

	assert.Nil(t, result.Raster)
	assert.NotNil(t, result.Vector)
	// Only the two SVG assets were fetched.
	assert.Equal(t, int32(2), client.downloads.Load())
}

func TestAssignIconIDs(t *testing.T) {
	nodes := []figma.ParsedIconNode{
		{NodeID: "1:1", Name: "Icons / Arrow Up"},
		{NodeID: "1:2", Name: "Icons / Arrow Up"},
		{NodeID: "1:3", Name: "chevron_left"},
		{NodeID: "1:4", Name: "***"},
	}

	icons := AssignIconIDs(nodes)
	require.Len(t, icons, 4)
	assert.Equal(t, "icons-arrow-up", icons[0].ID)
	assert.Equal(t, "icons-arrow-up-2", icons[1].ID)
	assert.Equal(t, "chevron-left", icons[2].ID)
	assert.Equal(t, "1-4", icons[3].ID)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Arrow Up", "arrow-up"},
		{"icons/32/home", "icons-32-home"},
		{"  spaced  out  ", "spaced-out"},
		{"already-kebab", "already-kebab"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "input %q", tt.in)
	}
}

func TestFindOverlaps(t *testing.T) {
	clean := &packer.Layout{
		Width: 100, Height: 100,
		Boxes: []packer.Box{
			{ID: "a", X: 0, Y: 0, W: 10, H: 10},
			{ID: "b", X: 10, Y: 0, W: 10, H: 10},
		},
	}
	assert.Empty(t, findOverlaps(clean))

	dirty := &packer.Layout{
		Width: 100, Height: 100,
		Boxes: []packer.Box{
			{ID: "a", X: 0, Y: 0, W: 10, H: 10},
			{ID: "b", X: 5, Y: 5, W: 10, H: 10},
		},
	}
	overlaps := findOverlaps(dirty)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "a and b", overlaps[0])
}
