package types

import (
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"
)

// CropBox is a fixed pixel rectangle (left, top, right, bottom) applied to every image
// in a run. Right and Bottom are exclusive.
type CropBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Validate checks 0 <= left < right and 0 <= top < bottom.
func (b CropBox) Validate() error {
	if b.Left < 0 || b.Top < 0 {
		return fmt.Errorf("crop box %s: left and top must be non-negative", b)
	}
	if b.Left >= b.Right {
		return fmt.Errorf("crop box %s: left must be less than right", b)
	}
	if b.Top >= b.Bottom {
		return fmt.Errorf("crop box %s: top must be less than bottom", b)
	}
	return nil
}

// Rect returns the box as an image.Rectangle.
func (b CropBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Width returns right - left.
func (b CropBox) Width() int { return b.Right - b.Left }

// Height returns bottom - top.
func (b CropBox) Height() int { return b.Bottom - b.Top }

func (b CropBox) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", b.Left, b.Top, b.Right, b.Bottom)
}

// ParseCropBox parses "left,top,right,bottom". Whitespace around values is ignored.
func ParseCropBox(s string) (CropBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return CropBox{}, fmt.Errorf("crop box %q: expected 4 comma-separated integers", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return CropBox{}, fmt.Errorf("crop box %q: value %d: %w", s, i+1, err)
		}
		v[i] = n
	}
	box := CropBoxFromArray(v)
	if err := box.Validate(); err != nil {
		return CropBox{}, err
	}
	return box, nil
}

// CropBoxFromArray converts the [left, top, right, bottom] form used in config files.
func CropBoxFromArray(v [4]int) CropBox {
	return CropBox{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}
}

// Array returns the box in [left, top, right, bottom] form.
func (b CropBox) Array() [4]int {
	return [4]int{b.Left, b.Top, b.Right, b.Bottom}
}

// Candidate is a discovered source image.
type Candidate struct {
	// Path is absolute.
	Path string `json:"path"`
	// RelPath is relative to the input root, OS separators.
	RelPath string `json:"rel_path"`
}

// Stage identifies the step of item processing that failed.
type Stage string

const (
	StageMkdir   Stage = "mkdir"
	StageDecode  Stage = "decode"
	StageCrop    Stage = "crop"
	StageConvert Stage = "convert"
	StageMatte   Stage = "matte"
	StageWrite   Stage = "write"
)

// ItemResult describes a successfully processed image.
type ItemResult struct {
	Candidate    Candidate     `json:"candidate"`
	OutputPath   string        `json:"output_path"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	BytesWritten int64         `json:"bytes_written"`
	Duration     time.Duration `json:"duration"`
}

// Failure records one failed item. Failures are keyed by RelPath so that identically
// named files in different directories stay distinguishable.
type Failure struct {
	RelPath string `json:"rel_path"`
	Name    string `json:"name"`
	Stage   Stage  `json:"stage"`
	Cause   string `json:"cause"`
}

// RunSummary is the outcome of a batch run.
type RunSummary struct {
	InputRoot    string        `json:"input_root"`
	OutputRoot   string        `json:"output_root"`
	Device       string        `json:"device"`
	Discovered   int           `json:"discovered"`
	Processed    int           `json:"processed"`
	Succeeded    int           `json:"succeeded"`
	Failures     []Failure     `json:"failures"`
	BytesWritten int64         `json:"bytes_written"`
	Elapsed      time.Duration `json:"elapsed"`
	Interrupted  bool          `json:"interrupted"`
}

// Failed returns the number of failed items.
func (s *RunSummary) Failed() int {
	return len(s.Failures)
}
