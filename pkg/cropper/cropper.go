package cropper

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-cutout/pkg/types"
)

// CropBoundsError is returned when the crop box does not fit inside the source image.
// The box is never clamped.
type CropBoundsError struct {
	Box    types.CropBox
	Width  int
	Height int
}

func (e *CropBoundsError) Error() string {
	return fmt.Sprintf("crop box %s exceeds image bounds %dx%d", e.Box, e.Width, e.Height)
}

// Cropper applies a fixed crop box to images
type Cropper struct {
	box types.CropBox
}

// New creates a Cropper for box. The box must satisfy CropBox.Validate.
func New(box types.CropBox) (*Cropper, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	return &Cropper{box: box}, nil
}

// Box returns the configured crop box.
func (c *Cropper) Box() types.CropBox {
	return c.box
}

// Fits reports whether the box lies entirely inside an image of the given bounds.
func (c *Cropper) Fits(bounds image.Rectangle) bool {
	return c.box.Rect().Add(bounds.Min).In(bounds)
}

// Crop returns the region of img selected by the box, with its origin at (0, 0).
// Box coordinates are relative to the image's top-left corner.
func (c *Cropper) Crop(img image.Image) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if !c.Fits(bounds) {
		return nil, &CropBoundsError{Box: c.box, Width: bounds.Dx(), Height: bounds.Dy()}
	}
	return imaging.Crop(img, c.box.Rect().Add(bounds.Min)), nil
}
