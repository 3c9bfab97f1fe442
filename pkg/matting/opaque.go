package matting

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// OpaqueService performs no matting: the result is the input with alpha fixed at 255.
// It is useful for crop-only runs.
type OpaqueService struct{}

// NewOpaqueService creates an OpaqueService.
func NewOpaqueService() *OpaqueService {
	return &OpaqueService{}
}

// Process returns an opaque NRGBA copy of img.
func (s *OpaqueService) Process(ctx context.Context, img *image.RGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty input image")
	}
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out, nil
}

// Close is a no-op.
func (s *OpaqueService) Close() error { return nil }
