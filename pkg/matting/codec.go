package matting

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// encodeInput serializes the model input as PNG.
func encodeInput(img *image.RGBA) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty input image")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeResult decodes a model response and checks it matches the input size.
func decodeResult(data []byte, want image.Rectangle) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty model response")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		// WebP variants x/image cannot read
		wimg, werr := webp.Decode(bytes.NewReader(data))
		if werr != nil {
			return nil, fmt.Errorf("decode model response: %w", err)
		}
		img = wimg
	}
	got := img.Bounds()
	if got.Dx() != want.Dx() || got.Dy() != want.Dy() {
		return nil, fmt.Errorf("model returned %dx%d image for %dx%d input", got.Dx(), got.Dy(), want.Dx(), want.Dy())
	}
	return imaging.Clone(img), nil
}
