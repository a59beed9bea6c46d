package export

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"figsprite/pkg/config"
	errs "figsprite/pkg/errors"
	"figsprite/pkg/figma"
	"figsprite/pkg/logger"
	"figsprite/pkg/ratelimit"
	"figsprite/pkg/retry"
)

// Client is the slice of the Figma API the exporter needs.
type Client interface {
	GetExportURLs(ctx context.Context, fileKey string, req figma.ExportRequest) (map[string]string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Exporter turns icon nodes into downloaded raster and vector assets.
// Batches of export-URL requests run strictly sequentially against a
// per-minute budget; downloads within a batch run under a bounded
// concurrency window.
type Exporter struct {
	client      Client
	budget      ratelimit.Limiter
	retryCfg    *retry.Config
	logger      logger.Logger
	batchSize   int
	concurrency int
}

// New creates an Exporter configured from cfg.
func New(client Client, cfg *config.Config, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}

	retryCfg := &retry.Config{
		MaxRetries: cfg.Retry.MaxRetries,
		Backoff: &retry.ExponentialBackoff{
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.BackoffMultiplier,
			JitterFactor: cfg.Retry.Jitter,
		},
		RetryIf: errs.IsRetryable,
		Logger:  log,
	}

	var budget ratelimit.Limiter
	if cfg.Figma.RequestsPerMinute > 0 {
		budget = ratelimit.NewTokenBucket(cfg.Figma.RequestsPerMinute, time.Minute)
	}

	return &Exporter{
		client:      client,
		budget:      budget,
		retryCfg:    retryCfg,
		logger:      log,
		batchSize:   cfg.Export.BatchSize,
		concurrency: cfg.Export.ConcurrentDownloads,
	}
}

// ExportRaster downloads PNG renders for every icon. Per-asset failures
// are collected in the result; the returned error is non-nil only when
// the context is cancelled or every single asset fails. Even then the
// result is non-nil so its failure records survive.
func (e *Exporter) ExportRaster(ctx context.Context, fileKey string, icons []Icon, scale float64) (*RasterResult, error) {
	start := time.Now()
	if scale <= 0 {
		scale = 1
	}

	groups := GroupByExportID(icons)
	buffers, failures, err := e.downloadAll(ctx, fileKey, groups, figma.ExportRequest{
		Format: figma.FormatPNG,
		Scale:  scale,
	})
	if err != nil {
		return nil, err
	}

	var out []IconData
	for _, icon := range icons {
		src, ok := buffers[exportIDOf(icon)]
		if !ok {
			continue
		}
		buf := make([]byte, len(src))
		copy(buf, src)
		out = append(out, IconData{
			ID:     icon.ID,
			Name:   icon.Node.Name,
			NodeID: icon.Node.NodeID,
			Width:  int(math.Round(icon.Node.Bounds.Width * scale)),
			Height: int(math.Round(icon.Node.Bounds.Height * scale)),
			Buffer: buf,
		})
	}

	stats := Stats{
		Total:      len(icons),
		Successful: len(out),
		Failed:     len(icons) - len(out),
		Duration:   time.Since(start),
	}
	e.logResult(figma.FormatPNG, stats)

	result := &RasterResult{Icons: out, Failures: failures, Stats: stats}
	if len(out) == 0 && len(icons) > 0 {
		// The partial result still carries the per-asset records so
		// callers can report what failed.
		return result, &errs.ExportError{
			Format:  string(figma.FormatPNG),
			Total:   len(icons),
			Failed:  stats.Failed,
			Reasons: sampleReasons(failures, 10),
		}
	}

	return result, nil
}

// ExportVector downloads SVG markup for every icon. The viewBox is taken
// from the markup when declared, otherwise synthesized from node bounds.
func (e *Exporter) ExportVector(ctx context.Context, fileKey string, icons []Icon) (*VectorResult, error) {
	start := time.Now()

	groups := GroupByExportID(icons)
	buffers, failures, err := e.downloadAll(ctx, fileKey, groups, figma.ExportRequest{
		Format: figma.FormatSVG,
	})
	if err != nil {
		return nil, err
	}

	var out []SvgIconData
	for _, icon := range icons {
		src, ok := buffers[exportIDOf(icon)]
		if !ok {
			continue
		}
		content := string(src)
		viewBox := extractViewBox(content)
		if viewBox == "" {
			viewBox = fmt.Sprintf("0 0 %d %d",
				int(math.Round(icon.Node.Bounds.Width)),
				int(math.Round(icon.Node.Bounds.Height)))
		}
		out = append(out, SvgIconData{
			ID:      icon.ID,
			Content: content,
			ViewBox: viewBox,
			Width:   icon.Node.Bounds.Width,
			Height:  icon.Node.Bounds.Height,
		})
	}

	stats := Stats{
		Total:      len(icons),
		Successful: len(out),
		Failed:     len(icons) - len(out),
		Duration:   time.Since(start),
	}
	e.logResult(figma.FormatSVG, stats)

	result := &VectorResult{Icons: out, Failures: failures, Stats: stats}
	if len(out) == 0 && len(icons) > 0 {
		return result, &errs.ExportError{
			Format:  string(figma.FormatSVG),
			Total:   len(icons),
			Failed:  stats.Failed,
			Reasons: sampleReasons(failures, 10),
		}
	}

	return result, nil
}

// Export runs the requested formats independently. A terminal failure in
// one format is logged and does not block the other; the returned error
// is non-nil only when no requested format produced anything. Failure
// records from a terminally failed format are kept in Result.Failures.
func (e *Exporter) Export(ctx context.Context, fileKey string, icons []Icon, formats []string) (*Result, error) {
	result := &Result{}
	var firstErr error

	for _, format := range formats {
		switch format {
		case string(figma.FormatPNG):
			raster, err := e.ExportRaster(ctx, fileKey, icons, 1)
			if raster != nil {
				result.Failures = append(result.Failures, raster.Failures...)
			}
			if err != nil {
				if isContextErr(err) {
					return nil, err
				}
				e.logger.ErrorWithFields("raster export failed", map[string]interface{}{
					"error": err.Error(),
				})
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			result.Raster = raster
		case string(figma.FormatSVG):
			vector, err := e.ExportVector(ctx, fileKey, icons)
			if vector != nil {
				result.Failures = append(result.Failures, vector.Failures...)
			}
			if err != nil {
				if isContextErr(err) {
					return nil, err
				}
				e.logger.ErrorWithFields("vector export failed", map[string]interface{}{
					"error": err.Error(),
				})
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			result.Vector = vector
		}
	}

	if result.Raster == nil && result.Vector == nil {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, &errs.ExportError{Total: len(icons), Failed: len(icons)}
	}

	return result, nil
}

// downloadAll resolves export URLs batch by batch and downloads each
// asset once per export id. The returned map holds one buffer per
// successfully downloaded export id; everything else lands in failures.
func (e *Exporter) downloadAll(ctx context.Context, fileKey string, groups []Group, req figma.ExportRequest) (map[string][]byte, []Failure, error) {
	buffers := make(map[string][]byte, len(groups))
	var failures []Failure

	batches := chunkGroups(groups, e.batchSize)
	for bi, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if e.budget != nil {
			if err := e.budget.Wait(ctx); err != nil {
				return nil, nil, err
			}
		}

		ids := make([]string, len(batch))
		for i, grp := range batch {
			ids[i] = grp.ExportID
		}
		batchReq := req
		batchReq.IDs = ids

		e.logger.DebugWithFields("requesting export URLs", map[string]interface{}{
			"format": string(req.Format),
			"batch":  bi + 1,
			"of":     len(batches),
			"ids":    len(ids),
		})

		urls, _, err := retry.DoWithRateLimit(ctx, func(ctx context.Context) (map[string]string, error) {
			return e.client.GetExportURLs(ctx, fileKey, batchReq)
		}, e.retryCfg)
		if err != nil {
			if isContextErr(err) {
				return nil, nil, err
			}
			// The whole batch failed; record it and move on to the next
			// batch rather than aborting the run.
			e.logger.WarnWithFields("export URL batch failed", map[string]interface{}{
				"format": string(req.Format),
				"batch":  bi + 1,
				"error":  err.Error(),
			})
			for _, grp := range batch {
				failures = append(failures, failureFor(grp, req.Format, err.Error()))
			}
			continue
		}

		batchFailures, err := e.downloadBatch(ctx, batch, urls, req.Format, buffers)
		if err != nil {
			return nil, nil, err
		}
		failures = append(failures, batchFailures...)
	}

	return buffers, failures, nil
}

// downloadBatch fetches every resolved URL in a batch under the
// concurrency ceiling. Results land in disjoint per-group slots, so no
// lock is needed around them; only the shared buffers map is filled in
// after all downloads settle.
func (e *Exporter) downloadBatch(ctx context.Context, batch []Group, urls map[string]string, format figma.Format, buffers map[string][]byte) ([]Failure, error) {
	var failures []Failure

	type slot struct {
		data []byte
		err  error
	}
	results := make([]slot, len(batch))
	started := make([]bool, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, grp := range batch {
		url, ok := urls[grp.ExportID]
		if !ok || url == "" {
			failures = append(failures, failureFor(grp, format, "no image URL returned"))
			continue
		}

		started[i] = true
		i, url := i, url
		g.Go(func() error {
			data, _, err := retry.DoWithRateLimit(gctx, func(ctx context.Context) ([]byte, error) {
				return e.client.Download(ctx, url)
			}, e.retryCfg)
			results[i] = slot{data: data, err: err}
			// Download failures are data, not reasons to cancel siblings.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, grp := range batch {
		if !started[i] {
			continue
		}
		if results[i].err != nil {
			if isContextErr(results[i].err) {
				return nil, results[i].err
			}
			failures = append(failures, failureFor(grp, format, results[i].err.Error()))
			continue
		}
		buffers[grp.ExportID] = results[i].data
	}

	return failures, nil
}

func (e *Exporter) logResult(format figma.Format, stats Stats) {
	e.logger.InfoWithFields("export finished", map[string]interface{}{
		"format":     string(format),
		"total":      stats.Total,
		"successful": stats.Successful,
		"failed":     stats.Failed,
		"duration":   stats.Duration,
	})
}

func exportIDOf(icon Icon) string {
	if icon.Node.ExportID != "" {
		return icon.Node.ExportID
	}
	return icon.Node.NodeID
}

func failureFor(grp Group, format figma.Format, reason string) Failure {
	return Failure{
		Format:   format,
		ExportID: grp.ExportID,
		IconIDs:  grp.IconIDs,
		NodeIDs:  grp.NodeIDs,
		Reason:   reason,
	}
}

func sampleReasons(failures []Failure, max int) []string {
	reasons := make([]string, 0, max)
	for _, f := range failures {
		if len(reasons) == max {
			break
		}
		reasons = append(reasons, f.Reason)
	}
	return reasons
}

func isContextErr(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
