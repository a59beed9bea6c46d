package pipeline

import (
	"context"
	"fmt"

	"figsprite/internal/export"
	"figsprite/internal/sprite/packer"
	"figsprite/internal/sprite/raster"
	"figsprite/internal/sprite/vector"
	"figsprite/pkg/config"
	errs "figsprite/pkg/errors"
	"figsprite/pkg/figma"
	"figsprite/pkg/logger"
)

// FileClient is the full API surface the pipeline needs: document
// fetching plus everything the exporter uses.
type FileClient interface {
	export.Client
	GetFile(ctx context.Context, fileKey string) (*figma.FileResponse, error)
}

// Result is everything one pipeline run produced. Sheets for formats
// that were not requested, or that failed, are nil; per-asset failures
// are always carried through for reporting.
type Result struct {
	FileName string
	Raster   *raster.Sheet
	Retina   *raster.Sheet
	Vector   *vector.Sheet
	Preview  string
	Failures []export.Failure
}

// Pipeline runs the full export-and-assemble flow for one file.
type Pipeline struct {
	client    FileClient
	exporter  *export.Exporter
	assembler *vector.Assembler
	cfg       *config.Config
	logger    logger.Logger
}

// New wires a pipeline from configuration.
func New(client FileClient, cfg *config.Config, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		client:    client,
		exporter:  export.New(client, cfg, log),
		assembler: vector.New(log),
		cfg:       cfg,
		logger:    log,
	}
}

// Run fetches the file, exports every icon it contains and assembles
// the requested sprite sheets. A terminal failure in one format does
// not block the other; Run errors only when nothing could be produced.
func (p *Pipeline) Run(ctx context.Context, fileKey string) (*Result, error) {
	file, err := p.client.GetFile(ctx, fileKey)
	if err != nil {
		return nil, err
	}

	nodes := figma.CollectIconNodes(&file.Document)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no exportable icon nodes found in %q", file.Name)
	}
	icons := AssignIconIDs(nodes)

	p.logger.InfoWithFields("starting export", map[string]interface{}{
		"file":    file.Name,
		"icons":   len(icons),
		"formats": p.cfg.Output.Formats,
	})

	exported, err := p.exporter.Export(ctx, fileKey, icons, p.cfg.Output.Formats)
	if err != nil {
		return nil, err
	}

	// Aggregated across formats, including one that failed terminally.
	result := &Result{FileName: file.Name, Failures: exported.Failures}

	var rasterErr, vectorErr error
	if exported.Raster != nil {
		result.Raster, result.Retina, rasterErr = p.buildRaster(exported.Raster.Icons)
		if rasterErr != nil {
			p.logger.ErrorWithFields("raster sheet failed", map[string]interface{}{
				"error": rasterErr.Error(),
			})
		}
	}
	if exported.Vector != nil {
		result.Vector, result.Preview, vectorErr = p.buildVector(exported.Vector.Icons)
		if vectorErr != nil {
			p.logger.ErrorWithFields("vector sheet failed", map[string]interface{}{
				"error": vectorErr.Error(),
			})
		}
	}

	if result.Raster == nil && result.Vector == nil {
		if rasterErr != nil {
			return nil, rasterErr
		}
		if vectorErr != nil {
			return nil, vectorErr
		}
		return nil, fmt.Errorf("no sprite sheets produced")
	}

	return result, nil
}

func (p *Pipeline) buildRaster(icons []export.IconData) (*raster.Sheet, *raster.Sheet, error) {
	packed, layout, err := packer.PackWithPositions(icons, p.cfg.Sprite.Padding)
	if err != nil {
		return nil, nil, err
	}

	if overlaps := findOverlaps(layout); len(overlaps) > 0 {
		if p.cfg.Sprite.StrictOverlaps {
			return nil, nil, &errs.PackingError{
				Message: fmt.Sprintf("layout contains %d overlapping boxes: %s", len(overlaps), overlaps[0]),
			}
		}
		for _, o := range overlaps {
			p.logger.WarnWithFields("overlapping packed boxes", map[string]interface{}{
				"overlap": o,
			})
		}
	}

	retinaScale := 1
	if p.cfg.Sprite.Retina {
		retinaScale = p.cfg.Sprite.RetinaScale
	}

	opts := raster.Options{
		Background:       p.cfg.Sprite.Background,
		CompressionLevel: p.cfg.Sprite.CompressionLevel,
	}
	base, retina, err := raster.CompositePair(packed, layout.Width, layout.Height, retinaScale, opts)
	if err != nil {
		return nil, nil, err
	}

	p.logger.InfoWithFields("raster sheet built", map[string]interface{}{
		"width":  base.Width,
		"height": base.Height,
		"fill":   layout.Fill,
		"hash":   base.Hash,
		"retina": retina != nil,
	})

	return base, retina, nil
}

func (p *Pipeline) buildVector(icons []export.SvgIconData) (*vector.Sheet, string, error) {
	sheet, err := p.assembler.Assemble(icons, vector.Options{
		Optimize: p.cfg.Sprite.OptimizeSVG,
	})
	if err != nil {
		return nil, "", err
	}

	preview := vector.GeneratePreview(sheet)

	p.logger.InfoWithFields("vector sheet built", map[string]interface{}{
		"symbols": len(sheet.Icons),
		"hash":    sheet.Hash,
	})

	return sheet, preview, nil
}

// findOverlaps reports every pair of boxes in the layout that intersect.
// The packer should never produce one; the check guards against packer
// regressions and the severity is configurable.
func findOverlaps(layout *packer.Layout) []string {
	var overlaps []string
	for i := 0; i < len(layout.Boxes); i++ {
		for j := i + 1; j < len(layout.Boxes); j++ {
			a, b := layout.Boxes[i], layout.Boxes[j]
			if a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H {
				overlaps = append(overlaps, fmt.Sprintf("%s and %s", a.ID, b.ID))
			}
		}
	}
	return overlaps
}
