package processing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/menta2k/image-cutout/internal/utils"
	"github.com/menta2k/image-cutout/pkg/cropper"
	"github.com/menta2k/image-cutout/pkg/matting"
	"github.com/menta2k/image-cutout/pkg/pathmap"
	"github.com/menta2k/image-cutout/pkg/types"
)

// ItemError is the error returned for a failed item.
type ItemError struct {
	RelPath string
	Name    string
	Stage   types.Stage
	Err     error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.RelPath, e.Stage, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Failure converts the error into a summary entry.
func (e *ItemError) Failure() types.Failure {
	return types.Failure{
		RelPath: e.RelPath,
		Name:    e.Name,
		Stage:   e.Stage,
		Cause:   e.Err.Error(),
	}
}

// MattingError wraps an error returned by the matting service.
type MattingError struct {
	Err error
}

func (e *MattingError) Error() string {
	return fmt.Sprintf("matting failed: %v", e.Err)
}

func (e *MattingError) Unwrap() error { return e.Err }

// ItemProcessor runs the per-image pipeline: map, decode, crop, convert, matte, write.
type ItemProcessor struct {
	mapper      *pathmap.Mapper
	cropper     *cropper.Cropper
	service     matting.Service
	itemTimeout time.Duration
	log         *slog.Logger
}

// NewItemProcessor creates an ItemProcessor. itemTimeout bounds the matting call of a
// single item; zero disables it. log may be nil.
func NewItemProcessor(mapper *pathmap.Mapper, c *cropper.Cropper, service matting.Service, itemTimeout time.Duration, log *slog.Logger) *ItemProcessor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ItemProcessor{
		mapper:      mapper,
		cropper:     c,
		service:     service,
		itemTimeout: itemTimeout,
		log:         log,
	}
}

// OutputPath returns where candidate will be written.
func (p *ItemProcessor) OutputPath(candidate types.Candidate) (string, error) {
	return p.mapper.Map(candidate.Path)
}

// Process runs the pipeline for one candidate. A non-nil error is always an *ItemError.
func (p *ItemProcessor) Process(ctx context.Context, candidate types.Candidate) (types.ItemResult, error) {
	start := time.Now()
	result := types.ItemResult{Candidate: candidate}
	fail := func(stage types.Stage, err error) (types.ItemResult, error) {
		return result, &ItemError{
			RelPath: candidate.RelPath,
			Name:    filepath.Base(candidate.Path),
			Stage:   stage,
			Err:     err,
		}
	}

	outPath, err := p.mapper.Map(candidate.Path)
	if err != nil {
		return fail(types.StageMkdir, err)
	}
	if err := utils.EnsureDir(filepath.Dir(outPath)); err != nil {
		return fail(types.StageMkdir, err)
	}

	img, err := LoadImage(candidate.Path)
	if err != nil {
		return fail(types.StageDecode, err)
	}

	cropped, err := p.cropper.Crop(img)
	if err != nil {
		return fail(types.StageCrop, err)
	}

	rgb, err := ToRGB(cropped)
	if err != nil {
		return fail(types.StageConvert, err)
	}

	mctx := ctx
	if p.itemTimeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, p.itemTimeout)
		defer cancel()
	}
	matted, err := p.service.Process(mctx, rgb)
	if err != nil {
		return fail(types.StageMatte, &MattingError{Err: err})
	}

	n, err := SavePNG(matted, outPath)
	if err != nil {
		return fail(types.StageWrite, err)
	}

	result.OutputPath = outPath
	result.Width = matted.Bounds().Dx()
	result.Height = matted.Bounds().Dy()
	result.BytesWritten = n
	result.Duration = time.Since(start)
	p.log.Debug("item processed",
		"path", candidate.RelPath,
		"output", outPath,
		"size", fmt.Sprintf("%dx%d", result.Width, result.Height),
		"duration", result.Duration)
	return result, nil
}
