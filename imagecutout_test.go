package imagecutout

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cutout/pkg/matting"
	"github.com/menta2k/image-cutout/pkg/types"
)

func TestRunOpaque(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "in")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	require.NoError(t, imaging.Save(imaging.New(30, 20, color.Black), filepath.Join(root, "a", "x.bmp")))

	summary, err := Run(context.Background(), Options{
		InputRoot:    root,
		CropBox:      types.CropBox{Left: 0, Top: 0, Right: 10, Bottom: 10},
		OutputSuffix: "_out",
		Matting:      matting.Options{Backend: matting.BackendOpaque},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, filepath.Join(base, "in_out"), summary.OutputRoot)
	assert.FileExists(t, filepath.Join(base, "in_out", "a", "x.png"))
}

func TestRunUsesOpener(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, imaging.Save(imaging.New(8, 8, color.White), filepath.Join(root, "x.png")))

	var devices []matting.Device
	opener := func(ctx context.Context, opts matting.Options) (matting.Service, error) {
		devices = append(devices, opts.Device)
		return matting.NewOpaqueService(), nil
	}
	summary, err := Run(context.Background(), Options{
		InputRoot: root,
		CropBox:   types.CropBox{Left: 0, Top: 0, Right: 4, Bottom: 4},
		Matting:   matting.Options{Backend: matting.BackendHTTP, Device: matting.DeviceFallback},
		Opener:    opener,
	})
	require.NoError(t, err)
	assert.Equal(t, []matting.Device{matting.DeviceFallback}, devices)
	assert.Equal(t, "fallback", summary.Device)
}

func TestRunInvalidOptions(t *testing.T) {
	_, err := Run(context.Background(), Options{
		InputRoot: t.TempDir(),
		CropBox:   types.CropBox{Left: 5, Top: 0, Right: 5, Bottom: 10},
	})
	assert.ErrorContains(t, err, "invalid options")

	_, err = Run(context.Background(), Options{
		InputRoot: t.TempDir(),
		CropBox:   types.CropBox{Left: 0, Top: 0, Right: 5, Bottom: 10},
		Matting:   matting.Options{Backend: "torch"},
	})
	assert.ErrorContains(t, err, "matting.backend")
}
