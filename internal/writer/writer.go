// Package writer persists pipeline results to the output directory.
// Each artifact is written to a temporary file and renamed into place so
// a crashed run never leaves a half-written sheet behind.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"figsprite/internal/export"
	"figsprite/internal/pipeline"
	"figsprite/internal/sprite/packer"
	"figsprite/pkg/logger"
)

// File names of the artifacts one run produces.
const (
	RasterFile   = "sprite.png"
	RetinaFile   = "sprite@2x.png"
	VectorFile   = "sprite.svg"
	PreviewFile  = "sprite-preview.svg"
	ManifestFile = "manifest.json"
)

// Manager writes sprite artifacts into one output directory.
type Manager struct {
	outputDir string
	logger    logger.Logger
}

// NewManager creates the output directory if needed.
func NewManager(outputDir string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{outputDir: outputDir, logger: log}, nil
}

// Manifest describes everything a run wrote, for downstream tooling.
type Manifest struct {
	File        string           `json:"file"`
	GeneratedAt time.Time        `json:"generated_at"`
	Raster      *RasterManifest  `json:"raster,omitempty"`
	Retina      *RasterManifest  `json:"retina,omitempty"`
	Vector      *VectorManifest  `json:"vector,omitempty"`
	Preview     string           `json:"preview,omitempty"`
	Failures    []export.Failure `json:"failures,omitempty"`
}

// RasterManifest records one raster sheet and its icon positions.
type RasterManifest struct {
	Path   string         `json:"path"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Hash   string         `json:"hash"`
	Icons  []IconPosition `json:"icons"`
}

// IconPosition is one icon's placement within a raster sheet.
type IconPosition struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// VectorManifest records the vector sheet.
type VectorManifest struct {
	Path    string   `json:"path"`
	Hash    string   `json:"hash"`
	Symbols []string `json:"symbols"`
}

// WriteResult persists every sheet the pipeline produced plus a
// manifest, returning the paths written.
func (m *Manager) WriteResult(result *pipeline.Result) ([]string, error) {
	var written []string
	manifest := &Manifest{
		File:        result.FileName,
		GeneratedAt: time.Now().UTC(),
		Failures:    result.Failures,
	}

	if result.Raster != nil {
		if err := m.writeFile(RasterFile, result.Raster.Buffer); err != nil {
			return written, err
		}
		written = append(written, filepath.Join(m.outputDir, RasterFile))
		manifest.Raster = rasterManifest(RasterFile, result.Raster.Width, result.Raster.Height, result.Raster.Hash, result.Raster.Icons)
	}

	if result.Retina != nil {
		if err := m.writeFile(RetinaFile, result.Retina.Buffer); err != nil {
			return written, err
		}
		written = append(written, filepath.Join(m.outputDir, RetinaFile))
		manifest.Retina = rasterManifest(RetinaFile, result.Retina.Width, result.Retina.Height, result.Retina.Hash, result.Retina.Icons)
	}

	if result.Vector != nil {
		if err := m.writeFile(VectorFile, []byte(result.Vector.Content)); err != nil {
			return written, err
		}
		written = append(written, filepath.Join(m.outputDir, VectorFile))

		symbols := make([]string, len(result.Vector.Icons))
		for i, icon := range result.Vector.Icons {
			symbols[i] = icon.ID
		}
		manifest.Vector = &VectorManifest{Path: VectorFile, Hash: result.Vector.Hash, Symbols: symbols}

		if result.Preview != "" {
			if err := m.writeFile(PreviewFile, []byte(result.Preview)); err != nil {
				return written, err
			}
			written = append(written, filepath.Join(m.outputDir, PreviewFile))
			manifest.Preview = PreviewFile
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return written, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := m.writeFile(ManifestFile, append(data, '\n')); err != nil {
		return written, err
	}
	written = append(written, filepath.Join(m.outputDir, ManifestFile))

	m.logger.InfoWithFields("artifacts written", map[string]interface{}{
		"output": m.outputDir,
		"files":  len(written),
	})

	return written, nil
}

// writeFile writes atomically: temp file in the same directory, then
// rename over the final name.
func (m *Manager) writeFile(name string, data []byte) error {
	final := filepath.Join(m.outputDir, name)
	temp := final + ".tmp"

	out, err := os.Create(temp)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, writeErr := out.Write(data)
	closeErr := out.Close()
	if writeErr != nil {
		os.Remove(temp)
		return fmt.Errorf("failed to write %s: %w", name, writeErr)
	}
	if closeErr != nil {
		os.Remove(temp)
		return fmt.Errorf("failed to close %s: %w", name, closeErr)
	}

	if err := os.Rename(temp, final); err != nil {
		os.Remove(temp)
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	return nil
}

func rasterManifest(path string, width, height int, hash string, icons []packer.PackedIcon) *RasterManifest {
	rm := &RasterManifest{Path: path, Width: width, Height: height, Hash: hash}
	for _, icon := range icons {
		rm.Icons = append(rm.Icons, IconPosition{
			ID:     icon.ID,
			X:      icon.X,
			Y:      icon.Y,
			Width:  icon.Width,
			Height: icon.Height,
		})
	}
	return rm
}
