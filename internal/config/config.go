// Package config loads and validates image-cutout configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/menta2k/image-cutout/internal/utils"
	"github.com/menta2k/image-cutout/pkg/matting"
	"github.com/menta2k/image-cutout/pkg/types"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	DefaultOutputSuffix = "_Processed"
	DefaultMattingURL   = "http://127.0.0.1:7860"

	ProgressAuto   = "auto"
	ProgressAlways = "always"
	ProgressNever  = "never"
)

// HTTP configures the matting sidecar server.
type HTTP struct {
	URL string `toml:"url"`
}

// Exec configures the local matting command.
type Exec struct {
	Command          string   `toml:"command"`
	Args             []string `toml:"args"`
	AcceleratedProbe []string `toml:"accelerated_probe"`
	AcceleratedEnv   []string `toml:"accelerated_env"`
	FallbackEnv      []string `toml:"fallback_env"`
}

// Matting configures the background-removal service.
type Matting struct {
	Backend               string `toml:"backend"`
	Mode                  string `toml:"mode"`
	Device                string `toml:"device"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	HTTP                  HTTP   `toml:"http"`
	Exec                  Exec   `toml:"exec"`
}

// Run contains per-run behaviour.
type Run struct {
	ItemTimeoutSeconds int    `toml:"item_timeout_seconds"`
	Progress           string `toml:"progress"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config holds the application configuration
type Config struct {
	InputRoot    string  `toml:"input_root"`
	CropBox      []int   `toml:"crop_box"`
	OutputSuffix string  `toml:"output_suffix"`
	Matting      Matting `toml:"matting"`
	Run          Run     `toml:"run"`
	Logging      Logging `toml:"logging"`
}

// Default returns a configuration with default values. InputRoot and CropBox have no
// defaults and must be supplied.
func Default() *Config {
	return &Config{
		OutputSuffix: DefaultOutputSuffix,
		Matting: Matting{
			Backend:               matting.BackendHTTP,
			Mode:                  matting.DefaultMode,
			Device:                string(matting.DeviceAccelerated),
			RequestTimeoutSeconds: 300,
			HTTP: HTTP{
				URL: DefaultMattingURL,
			},
			Exec: Exec{
				Command:          "rembg",
				Args:             []string{"i", "-m", "isnet-general-use", "-", "-"},
				AcceleratedProbe: []string{"nvidia-smi"},
				FallbackEnv:      []string{"CUDA_VISIBLE_DEVICES="},
			},
		},
		Run: Run{
			Progress: ProgressAuto,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return utils.ExpandPath("~/.config/image-cutout/config.toml")
}

// LoadFromFile reads a TOML file on top of the defaults.
func LoadFromFile(filename string) (*Config, error) {
	cfg := Default()
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}
	return cfg, nil
}

// Load resolves the config file and reads it. An explicit path must exist. With an empty
// path the default location is used when present, otherwise the defaults are returned.
// The result is not normalized or validated so callers can apply overrides first.
func Load(path string) (*Config, string, bool, error) {
	if path != "" {
		expanded, err := utils.ExpandPath(path)
		if err != nil {
			return nil, "", false, err
		}
		cfg, err := LoadFromFile(expanded)
		if err != nil {
			return nil, "", false, err
		}
		return cfg, expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return nil, "", false, err
	}
	info, err := os.Stat(defaultPath)
	switch {
	case err == nil && !info.IsDir():
		cfg, err := LoadFromFile(defaultPath)
		if err != nil {
			return nil, "", false, err
		}
		return cfg, defaultPath, true, nil
	case err == nil || errors.Is(err, fs.ErrNotExist):
		return Default(), defaultPath, false, nil
	default:
		return nil, "", false, fmt.Errorf("stat config: %w", err)
	}
}

// SaveToFile saves configuration to a TOML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := utils.EnsureDir(dir); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// CreateSample writes the commented sample configuration to path. An existing file is
// only replaced when overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if !overwrite && utils.FileExists(path) {
		return fmt.Errorf("config file %s already exists (use --overwrite)", path)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Normalize cleans up user-supplied values and expands paths.
func (c *Config) Normalize() error {
	var err error
	if c.InputRoot, err = utils.ExpandPath(strings.TrimSpace(c.InputRoot)); err != nil {
		return fmt.Errorf("input_root: %w", err)
	}
	c.OutputSuffix = strings.TrimSpace(c.OutputSuffix)
	c.Matting.Backend = strings.ToLower(strings.TrimSpace(c.Matting.Backend))
	c.Matting.Device = strings.ToLower(strings.TrimSpace(c.Matting.Device))
	c.Matting.Mode = strings.TrimSpace(c.Matting.Mode)
	if c.Matting.Mode == "" {
		c.Matting.Mode = matting.DefaultMode
	}
	c.Matting.HTTP.URL = strings.TrimSpace(c.Matting.HTTP.URL)
	c.Run.Progress = strings.ToLower(strings.TrimSpace(c.Run.Progress))
	if c.Run.Progress == "" {
		c.Run.Progress = ProgressAuto
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.File != "" {
		if c.Logging.File, err = utils.ExpandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

// Box returns the configured crop box. Call Validate first.
func (c *Config) Box() types.CropBox {
	var v [4]int
	copy(v[:], c.CropBox)
	return types.CropBoxFromArray(v)
}

// SetBox stores box in CropBox.
func (c *Config) SetBox(box types.CropBox) {
	v := box.Array()
	c.CropBox = v[:]
}

// ItemTimeout returns the per-item matting timeout, zero when disabled.
func (c *Config) ItemTimeout() time.Duration {
	return time.Duration(c.Run.ItemTimeoutSeconds) * time.Second
}

// MattingOptions converts the matting section into service construction options.
func (c *Config) MattingOptions() matting.Options {
	return matting.Options{
		Backend:        c.Matting.Backend,
		Mode:           c.Matting.Mode,
		Device:         matting.Device(c.Matting.Device),
		Output:         matting.OutputRGBA,
		RequestTimeout: time.Duration(c.Matting.RequestTimeoutSeconds) * time.Second,
		HTTP: matting.HTTPOptions{
			URL: c.Matting.HTTP.URL,
		},
		Exec: matting.ExecOptions{
			Command:          c.Matting.Exec.Command,
			Args:             append([]string(nil), c.Matting.Exec.Args...),
			AcceleratedProbe: append([]string(nil), c.Matting.Exec.AcceleratedProbe...),
			AcceleratedEnv:   append([]string(nil), c.Matting.Exec.AcceleratedEnv...),
			FallbackEnv:      append([]string(nil), c.Matting.Exec.FallbackEnv...),
		},
	}
}
