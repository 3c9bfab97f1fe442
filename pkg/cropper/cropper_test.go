package cropper

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/image-cutout/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Encode the coordinates in the pixel so crops can be checked
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	return img
}

func TestNew(t *testing.T) {
	c, err := New(types.CropBox{Left: 10, Top: 20, Right: 30, Bottom: 40})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if c.Box().Width() != 20 || c.Box().Height() != 20 {
		t.Errorf("Expected 20x20 box, got %dx%d", c.Box().Width(), c.Box().Height())
	}
}

func TestNewRejectsInvalidBox(t *testing.T) {
	invalid := []types.CropBox{
		{Left: 10, Top: 0, Right: 10, Bottom: 5},
		{Left: 0, Top: 5, Right: 10, Bottom: 5},
		{Left: 20, Top: 0, Right: 10, Bottom: 5},
		{Left: -1, Top: 0, Right: 10, Bottom: 5},
		{Left: 0, Top: -1, Right: 10, Bottom: 5},
	}
	for _, box := range invalid {
		if _, err := New(box); err == nil {
			t.Errorf("Expected error for box %s", box)
		}
	}
}

func TestCrop(t *testing.T) {
	c, _ := New(types.CropBox{Left: 50, Top: 10, Right: 150, Bottom: 60})
	img := createTestImage(200, 100)

	cropped, err := c.Crop(img)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	bounds := cropped.Bounds()
	if bounds.Min != (image.Point{}) {
		t.Errorf("Expected origin at (0,0), got %v", bounds.Min)
	}
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Errorf("Expected 100x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	// Test pixel access
	got := cropped.NRGBAAt(0, 0)
	if got.R != 50 || got.G != 10 {
		t.Errorf("Cropped pixel (0,0) should come from source (50,10), got %v", got)
	}
	got = cropped.NRGBAAt(99, 49)
	if got.R != 149 || got.G != 59 {
		t.Errorf("Cropped pixel (99,49) should come from source (149,59), got %v", got)
	}
}

func TestCropExactFit(t *testing.T) {
	c, _ := New(types.CropBox{Left: 0, Top: 0, Right: 100, Bottom: 100})

	cropped, err := c.Crop(createTestImage(100, 100))
	if err != nil {
		t.Fatalf("Crop failed for exact fit: %v", err)
	}
	if cropped.Bounds().Dx() != 100 || cropped.Bounds().Dy() != 100 {
		t.Errorf("Expected 100x100, got %v", cropped.Bounds())
	}
}

func TestCropOutOfBounds(t *testing.T) {
	c, _ := New(types.CropBox{Left: 420, Top: 0, Right: 1540, Bottom: 1079})

	tests := []struct {
		name          string
		width, height int
	}{
		{"too small both ways", 100, 100},
		{"too short", 2000, 1000},
		{"too narrow", 1500, 1200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Crop(createTestImage(tt.width, tt.height))
			var cbe *CropBoundsError
			if !errors.As(err, &cbe) {
				t.Fatalf("Expected CropBoundsError, got %v", err)
			}
			if cbe.Width != tt.width || cbe.Height != tt.height {
				t.Errorf("Expected bounds %dx%d in error, got %dx%d", tt.width, tt.height, cbe.Width, cbe.Height)
			}
		})
	}
}

func TestCropNonZeroOrigin(t *testing.T) {
	src := createTestImage(300, 300).(*image.RGBA)
	sub := src.SubImage(image.Rect(100, 100, 300, 300))

	c, _ := New(types.CropBox{Left: 0, Top: 0, Right: 10, Bottom: 10})
	cropped, err := c.Crop(sub)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	got := cropped.NRGBAAt(0, 0)
	if got.R != 100 || got.G != 100 {
		t.Errorf("Expected box relative to image origin, got pixel %v", got)
	}

	c, _ = New(types.CropBox{Left: 150, Top: 0, Right: 250, Bottom: 10})
	if _, err := c.Crop(sub); err == nil {
		t.Error("Expected error for box past the sub-image width")
	}
}

func BenchmarkCrop(b *testing.B) {
	c, _ := New(types.CropBox{Left: 420, Top: 0, Right: 1540, Bottom: 1079})
	img := createTestImage(1920, 1080)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Crop(img)
	}
}
