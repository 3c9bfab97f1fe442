package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/menta2k/image-cutout/pkg/matting"
)

// Validate ensures the configuration is usable. It expects a normalized config.
func (c *Config) Validate() error {
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateCropBox(); err != nil {
		return err
	}
	if err := c.validateMatting(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateInput() error {
	if c.InputRoot == "" {
		return errors.New("input_root is required (set it in the config file or pass --input)")
	}
	if c.OutputSuffix == "" {
		return errors.New("output_suffix must not be empty")
	}
	if strings.ContainsAny(c.OutputSuffix, `/\`) {
		return fmt.Errorf("output_suffix %q must not contain a path separator", c.OutputSuffix)
	}
	return nil
}

func (c *Config) validateCropBox() error {
	if len(c.CropBox) == 0 {
		return errors.New("crop_box is required (set it in the config file or pass --crop)")
	}
	if len(c.CropBox) != 4 {
		return fmt.Errorf("crop_box must have 4 values [left, top, right, bottom], got %d", len(c.CropBox))
	}
	if err := c.Box().Validate(); err != nil {
		return fmt.Errorf("crop_box: %w", err)
	}
	return nil
}

func (c *Config) validateMatting() error {
	if !slices.Contains(matting.Backends(), c.Matting.Backend) {
		return fmt.Errorf("matting.backend must be one of %s, got %q", strings.Join(matting.Backends(), ", "), c.Matting.Backend)
	}
	if _, err := matting.ParseDevice(c.Matting.Device); err != nil {
		return fmt.Errorf("matting.device: %w", err)
	}
	if c.Matting.RequestTimeoutSeconds < 0 {
		return errors.New("matting.request_timeout_seconds must be non-negative")
	}
	switch c.Matting.Backend {
	case matting.BackendHTTP:
		if c.Matting.HTTP.URL == "" {
			return errors.New("matting.http.url must be set when matting.backend is http")
		}
	case matting.BackendExec:
		if strings.TrimSpace(c.Matting.Exec.Command) == "" {
			return errors.New("matting.exec.command must be set when matting.backend is exec")
		}
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.ItemTimeoutSeconds < 0 {
		return errors.New("run.item_timeout_seconds must be non-negative")
	}
	switch c.Run.Progress {
	case ProgressAuto, ProgressAlways, ProgressNever:
	default:
		return fmt.Errorf("run.progress must be auto, always or never, got %q", c.Run.Progress)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "text", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
