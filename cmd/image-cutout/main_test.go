package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cutout/pkg/discovery"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "image-cutout ")
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cfg", "config.toml")

	out, _, err := runCLI(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	assert.FileExists(t, target)

	_, _, err = runCLI(t, "config", "init", "--path", target)
	assert.ErrorContains(t, err, "already exists")

	out, _, err = runCLI(t, "config", "validate", "--config", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
}

func TestConfigValidateReportsMissingInput(t *testing.T) {
	out, _, err := runCLI(t, "config", "validate")
	assert.Contains(t, out, "defaults were used")
	assert.ErrorContains(t, err, "input_root is required")
}

func TestRunCommandOpaqueBackend(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "Album")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "day1"), 0o755))
	img := imaging.New(40, 30, color.NRGBA{200, 10, 10, 255})
	require.NoError(t, imaging.Save(img, filepath.Join(root, "day1", "p.jpg")))
	require.NoError(t, imaging.Save(imaging.New(5, 5, color.White), filepath.Join(root, "tiny.png")))

	out, stderr, err := runCLI(t, "run",
		"--input", root,
		"--crop", "5,5,25,20",
		"--backend", "opaque",
		"--device", "fallback",
		"--progress", "never")
	require.NoError(t, err)

	written := filepath.Join(base, "Album_Processed", "day1", "p.png")
	res, err := imaging.Open(written)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Bounds().Dx())
	assert.Equal(t, 15, res.Bounds().Dy())

	assert.Contains(t, out, "(5, 5, 25, 20)")
	assert.Contains(t, out, "tiny.png")
	assert.Contains(t, out, "complete")
	assert.Contains(t, stderr, "item failed")
}

func TestRunCommandMissingInput(t *testing.T) {
	_, _, err := runCLI(t, "run",
		"--input", filepath.Join(t.TempDir(), "nope"),
		"--crop", "0,0,10,10",
		"--backend", "opaque")
	var rootErr *discovery.RootNotFoundError
	assert.ErrorAs(t, err, &rootErr)
}

func TestRunCommandRejectsBadCrop(t *testing.T) {
	_, _, err := runCLI(t, "run", "--input", t.TempDir(), "--crop", "10,0,5,5")
	assert.ErrorContains(t, err, "invalid --crop")

	_, _, err = runCLI(t, "run", "--input", t.TempDir())
	assert.ErrorContains(t, err, "crop_box is required")
}

func TestExitCode(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, exitCode(nil, &buf))
	assert.Empty(t, buf.String())

	buf.Reset()
	assert.Equal(t, 1, exitCode(errors.New("input root missing"), &buf))
	assert.Equal(t, "error: input root missing\n", buf.String())

	buf.Reset()
	canceled := fmt.Errorf("matting service init failed: %w", context.Canceled)
	assert.Equal(t, 0, exitCode(canceled, &buf))
	assert.Equal(t, "interrupted\n", buf.String())
}
