// Package imagecutout crops a folder tree of photos to a fixed box and removes their
// backgrounds, writing transparent PNGs into a mirrored sibling directory.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		imagecutout "github.com/menta2k/image-cutout"
//		"github.com/menta2k/image-cutout/pkg/matting"
//		"github.com/menta2k/image-cutout/pkg/types"
//	)
//
//	func main() {
//		summary, err := imagecutout.Run(context.Background(), imagecutout.Options{
//			InputRoot: "/data/Photos/Source",
//			CropBox:   types.CropBox{Left: 420, Top: 0, Right: 1540, Bottom: 1079},
//			Matting: matting.Options{
//				Backend: matting.BackendHTTP,
//				HTTP:    matting.HTTPOptions{URL: "http://127.0.0.1:7860"},
//			},
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%d ok, %d failed, results in %s\n",
//			summary.Succeeded, summary.Failed(), summary.OutputRoot)
//	}
//
// The work is split into small packages:
//
// 1. Discovery (pkg/discovery): finds candidate images under the input root
// 2. Path mapping (pkg/pathmap): mirrors relative paths into the output root
// 3. Matting (pkg/matting): the background-removal service boundary
// 4. Processing (pkg/processing, pkg/cropper): decode, crop, convert, matte, write
// 5. Batch (pkg/batch): runs the pipeline over every candidate and tallies results
//
// A failing image never stops the batch. Only a missing input root or a matting
// service that cannot be started on either device is fatal.
package imagecutout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/menta2k/image-cutout/internal/config"
	"github.com/menta2k/image-cutout/pkg/batch"
	"github.com/menta2k/image-cutout/pkg/matting"
	"github.com/menta2k/image-cutout/pkg/types"
)

// Version of the image-cutout library and CLI
const Version = "1.0.0"

// Options configures a library run.
type Options struct {
	InputRoot string
	CropBox   types.CropBox
	// OutputSuffix defaults to "_Processed".
	OutputSuffix string
	Matting      matting.Options
	// ItemTimeout bounds background removal of a single image; zero disables it.
	ItemTimeout time.Duration
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
	// Opener replaces matting.Open, mainly for tests.
	Opener matting.Opener
}

// Run validates opts and processes every image under opts.InputRoot.
func Run(ctx context.Context, opts Options) (*types.RunSummary, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	var runOpts []batch.Option
	if opts.Opener != nil {
		runOpts = append(runOpts, batch.WithOpener(opts.Opener))
	}
	return batch.New(cfg, opts.Logger, runOpts...).Run(ctx)
}

func (o Options) config() (*config.Config, error) {
	cfg := config.Default()
	cfg.InputRoot = o.InputRoot
	cfg.SetBox(o.CropBox)
	if o.OutputSuffix != "" {
		cfg.OutputSuffix = o.OutputSuffix
	}

	m := o.Matting
	if m.Backend != "" {
		cfg.Matting.Backend = m.Backend
	}
	if m.Mode != "" {
		cfg.Matting.Mode = m.Mode
	}
	if m.Device != "" {
		cfg.Matting.Device = string(m.Device)
	}
	if m.RequestTimeout > 0 {
		cfg.Matting.RequestTimeoutSeconds = int((m.RequestTimeout + time.Second - 1) / time.Second)
	}
	if m.HTTP.URL != "" {
		cfg.Matting.HTTP.URL = m.HTTP.URL
	}
	if m.Exec.Command != "" {
		cfg.Matting.Exec = config.Exec{
			Command:          m.Exec.Command,
			Args:             m.Exec.Args,
			AcceleratedProbe: m.Exec.AcceleratedProbe,
			AcceleratedEnv:   m.Exec.AcceleratedEnv,
			FallbackEnv:      m.Exec.FallbackEnv,
		}
	}
	if o.ItemTimeout > 0 {
		cfg.Run.ItemTimeoutSeconds = int((o.ItemTimeout + time.Second - 1) / time.Second)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}
