package processing

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-cutout/internal/utils"
)

// LoadImage loads an image from a file path with WebP support.
// EXIF orientation is not applied; the crop box addresses stored pixels.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err == nil {
		return img, nil
	}
	decodeErr := err

	// Fallback: explicit WebP decode for variants the registered decoder rejects
	if utils.GetFileExtension(path) == ".webp" {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		if wimg, err := webp.Decode(f); err == nil {
			return wimg, nil
		}
	}
	return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), decodeErr)
}

// ToRGB flattens img to an opaque RGB image. Any alpha channel or palette is discarded:
// color values are kept as stored and alpha is forced to 255.
func ToRGB(img image.Image) (*image.RGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}
	src := imaging.Clone(img)
	dst := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	copy(dst.Pix, src.Pix)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	return dst, nil
}

// SavePNG writes img to path as PNG. The image is encoded into a temporary file in the
// same directory and renamed over path, so an existing file is replaced whole or not at
// all. It returns the number of bytes written.
func SavePNG(img image.Image, path string) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	cw := &countingWriter{w: tmp}
	bw := bufio.NewWriter(cw)
	if err := imaging.Encode(bw, img, imaging.PNG); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("encode png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return 0, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
