// Package batch orchestrates discovery, per-image processing and the run summary.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/menta2k/image-cutout/internal/config"
	"github.com/menta2k/image-cutout/pkg/cropper"
	"github.com/menta2k/image-cutout/pkg/discovery"
	"github.com/menta2k/image-cutout/pkg/matting"
	"github.com/menta2k/image-cutout/pkg/pathmap"
	"github.com/menta2k/image-cutout/pkg/processing"
	"github.com/menta2k/image-cutout/pkg/types"
)

// Progress receives per-item progress. Enabled reports whether it is visible; when it
// is not, each item gets its own log line instead.
type Progress interface {
	Start(total int)
	Advance()
	Finish()
	Enabled() bool
}

type nopProgress struct{}

func (nopProgress) Start(int)     {}
func (nopProgress) Advance()      {}
func (nopProgress) Finish()       {}
func (nopProgress) Enabled() bool { return false }

// Option configures a Runner.
type Option func(*Runner)

// WithOpener replaces the matting service constructor.
func WithOpener(open matting.Opener) Option {
	return func(r *Runner) {
		r.opener = open
	}
}

// WithProgress attaches a progress display.
func WithProgress(p Progress) Option {
	return func(r *Runner) {
		if p != nil {
			r.progress = p
		}
	}
}

// Runner executes one batch run over a validated configuration.
type Runner struct {
	cfg      *config.Config
	log      *slog.Logger
	opener   matting.Opener
	progress Progress
}

// New creates a Runner. cfg must be normalized and validated.
func New(cfg *config.Config, log *slog.Logger, opts ...Option) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := &Runner{
		cfg:      cfg,
		log:      log,
		opener:   matting.Open,
		progress: nopProgress{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every image under the input root exactly once, in lexicographic order of
// relative path. Per-item failures are collected in the summary. A non-nil error means
// the run could not start: missing input root, failed discovery, or no usable matting
// service. Cancelling ctx, including while the matting service is loading, stops the run
// before the next item and returns a partial summary with Interrupted set.
func (r *Runner) Run(ctx context.Context) (*types.RunSummary, error) {
	start := time.Now()
	root := r.cfg.InputRoot

	if err := discovery.CheckRoot(root); err != nil {
		return nil, err
	}
	outputRoot, err := pathmap.OutputRoot(root, r.cfg.OutputSuffix)
	if err != nil {
		return nil, err
	}
	crop, err := cropper.New(r.cfg.Box())
	if err != nil {
		return nil, err
	}

	r.log.Info("run started",
		"input", root,
		"output", outputRoot,
		"crop_box", crop.Box().String())

	candidates, err := discovery.Discover(root, r.log)
	if err != nil {
		return nil, err
	}

	summary := &types.RunSummary{
		InputRoot:  root,
		OutputRoot: outputRoot,
		Discovered: len(candidates),
		Failures:   []types.Failure{},
	}
	if len(candidates) == 0 {
		r.log.Info("no images found", "input", root)
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	opts := r.cfg.MattingOptions()
	r.log.Info("loading matting model",
		"backend", opts.Backend,
		"mode", opts.Mode,
		"device", string(opts.Device))
	svc, device, err := matting.OpenWithFallback(ctx, opts, r.opener, r.log)
	if err != nil {
		if ctx.Err() != nil {
			r.log.Warn("interrupted while loading matting model", "error", err)
			summary.Interrupted = true
			summary.Elapsed = time.Since(start)
			return summary, nil
		}
		return nil, err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			r.log.Warn("close matting service", "error", err)
		}
	}()
	summary.Device = string(device)
	if device == matting.DeviceAccelerated {
		r.log.Info("accelerated matting enabled")
	} else {
		r.log.Info("matting on fallback device")
	}

	proc := processing.NewItemProcessor(pathmap.New(root, outputRoot), crop, svc, r.cfg.ItemTimeout(), r.log)
	r.log.Info("processing images", "count", len(candidates))

	r.progress.Start(len(candidates))
	r.processAll(ctx, proc, candidates, summary)
	r.progress.Finish()

	summary.Elapsed = time.Since(start)
	r.log.Info("run complete",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed(),
		"interrupted", summary.Interrupted,
		"output", outputRoot,
		"elapsed", summary.Elapsed)
	return summary, nil
}

func (r *Runner) processAll(ctx context.Context, proc *processing.ItemProcessor, candidates []types.Candidate, summary *types.RunSummary) {
	written := make(map[string]string, len(candidates))
	total := len(candidates)

	for i, cand := range candidates {
		if ctx.Err() != nil {
			r.log.Warn("interrupted", "remaining", total-i)
			summary.Interrupted = true
			return
		}

		if out, err := proc.OutputPath(cand); err == nil {
			if prev, ok := written[out]; ok {
				r.log.Warn("output collision, later file overwrites earlier",
					"path", cand.RelPath,
					"previous", prev,
					"output", out)
			}
			written[out] = cand.RelPath
		}

		res, err := proc.Process(ctx, cand)
		if err != nil && ctx.Err() != nil {
			// cancelled mid-item
			r.log.Warn("interrupted", "path", cand.RelPath, "remaining", total-i)
			summary.Interrupted = true
			return
		}
		summary.Processed++
		r.progress.Advance()

		if err != nil {
			failure := failureFor(cand, err)
			summary.Failures = append(summary.Failures, failure)
			r.log.Error("item failed",
				"path", failure.RelPath,
				"stage", string(failure.Stage),
				"error", failure.Cause)
			continue
		}

		summary.Succeeded++
		summary.BytesWritten += res.BytesWritten
		if !r.progress.Enabled() {
			r.log.Info(fmt.Sprintf("[%d/%d] %s", i+1, total, cand.RelPath),
				"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
				"duration", res.Duration)
		}
	}
}

func failureFor(cand types.Candidate, err error) types.Failure {
	var itemErr *processing.ItemError
	if errors.As(err, &itemErr) {
		return itemErr.Failure()
	}
	return types.Failure{
		RelPath: cand.RelPath,
		Name:    filepath.Base(cand.Path),
		Cause:   err.Error(),
	}
}
