package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-cutout/internal/config"
	"github.com/menta2k/image-cutout/internal/logging"
	"github.com/menta2k/image-cutout/internal/report"
	"github.com/menta2k/image-cutout/pkg/batch"
	"github.com/menta2k/image-cutout/pkg/pathmap"
	"github.com/menta2k/image-cutout/pkg/types"
)

type runFlags struct {
	input       string
	crop        string
	suffix      string
	device      string
	backend     string
	mode        string
	mattingURL  string
	itemTimeout time.Duration
	logLevel    string
	logFormat   string
	logFile     string
	progress    string
}

func newRunCommand(configFlag *string) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crop and cut out every image under the input directory",
		Long: `Recursively finds .jpg .jpeg .png .bmp .webp files under the input directory,
crops each one to the configured box, removes the background and writes a PNG
with transparency to <input><suffix>/, mirroring the directory structure.

Files that fail are reported and skipped; the run continues with the next one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applyRunFlags(cmd, cfg, flags); err != nil {
				return err
			}
			if err := cfg.Normalize(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return executeRun(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "Input root directory")
	f.StringVar(&flags.crop, "crop", "", "Crop box as left,top,right,bottom")
	f.StringVar(&flags.suffix, "suffix", "", "Output directory suffix (default _Processed)")
	f.StringVar(&flags.device, "device", "", "Matting device: accelerated or fallback")
	f.StringVar(&flags.backend, "backend", "", "Matting backend: http, exec or opaque")
	f.StringVar(&flags.mode, "mode", "", "Matting model mode")
	f.StringVar(&flags.mattingURL, "matting-url", "", "Matting server URL for the http backend")
	f.DurationVar(&flags.itemTimeout, "item-timeout", 0, "Per-image matting timeout, e.g. 2m (0 disables)")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&flags.logFormat, "log-format", "", "Log format: console or json")
	f.StringVar(&flags.logFile, "log-file", "", "Append JSON logs to this file")
	f.StringVar(&flags.progress, "progress", "", "Progress bar: auto, always or never")
	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags runFlags) error {
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.InputRoot = flags.input
	}
	if changed("crop") {
		box, err := types.ParseCropBox(flags.crop)
		if err != nil {
			return fmt.Errorf("invalid --crop: %w", err)
		}
		cfg.SetBox(box)
	}
	if changed("suffix") {
		cfg.OutputSuffix = flags.suffix
	}
	if changed("device") {
		cfg.Matting.Device = flags.device
	}
	if changed("backend") {
		cfg.Matting.Backend = flags.backend
	}
	if changed("mode") {
		cfg.Matting.Mode = flags.mode
	}
	if changed("matting-url") {
		cfg.Matting.HTTP.URL = flags.mattingURL
	}
	if changed("item-timeout") {
		if flags.itemTimeout < 0 {
			return fmt.Errorf("invalid --item-timeout: must not be negative")
		}
		secs := int((flags.itemTimeout + time.Second - 1) / time.Second)
		cfg.Run.ItemTimeoutSeconds = secs
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = flags.logFormat
	}
	if changed("log-file") {
		cfg.Logging.File = flags.logFile
	}
	if changed("progress") {
		cfg.Run.Progress = flags.progress
	}
	return nil
}

func executeRun(cmd *cobra.Command, cfg *config.Config) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	progress := report.NewProgress(stderr, report.ProgressEnabled(cfg.Run.Progress, stderr))
	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Writer: progress.LogWriter(),
	})
	if err != nil {
		return err
	}
	defer closeLog()
	logger, runID := logging.WithRun(logger)
	logger.Debug("run id assigned", "run_id", runID)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outputRoot, err := pathmap.OutputRoot(cfg.InputRoot, cfg.OutputSuffix)
	if err != nil {
		return err
	}
	if err := report.RenderBanner(stdout, report.Banner{
		InputRoot:  cfg.InputRoot,
		OutputRoot: outputRoot,
		CropBox:    cfg.Box(),
		Backend:    cfg.Matting.Backend,
		Mode:       cfg.Matting.Mode,
		Device:     cfg.Matting.Device,
	}); err != nil {
		return err
	}

	runner := batch.New(cfg, logging.Component(logger, "batch"), batch.WithProgress(progress))
	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	return report.RenderSummary(stdout, summary)
}
