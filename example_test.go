package imagecutout_test

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	imagecutout "github.com/menta2k/image-cutout"
	"github.com/menta2k/image-cutout/pkg/matting"
	"github.com/menta2k/image-cutout/pkg/types"
)

func ExampleRun() {
	base, err := os.MkdirTemp("", "cutout-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(base)

	root := filepath.Join(base, "Source")
	if err := os.MkdirAll(filepath.Join(root, "A"), 0o755); err != nil {
		log.Fatal(err)
	}
	_ = imaging.Save(imaging.New(2000, 1200, color.Gray{Y: 128}), filepath.Join(root, "A", "1.jpg"))
	_ = imaging.Save(imaging.New(100, 100, color.Gray{Y: 128}), filepath.Join(root, "A", "2.png"))

	summary, err := imagecutout.Run(context.Background(), imagecutout.Options{
		InputRoot: root,
		CropBox:   types.CropBox{Left: 420, Top: 0, Right: 1540, Bottom: 1079},
		Matting:   matting.Options{Backend: matting.BackendOpaque},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("succeeded=%d failed=%d\n", summary.Succeeded, summary.Failed())
	for _, f := range summary.Failures {
		fmt.Printf("%s: %s\n", filepath.ToSlash(f.RelPath), f.Stage)
	}
	// Output:
	// succeeded=1 failed=1
	// A/2.png: crop
}
