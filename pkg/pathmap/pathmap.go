// Package pathmap maps source image paths to their mirrored output paths.
package pathmap

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/menta2k/image-cutout/internal/utils"
)

// OutputExt is the fixed output extension. PNG carries the alpha channel.
const OutputExt = ".png"

// PathEscapeError reports a candidate that does not live under the input root.
type PathEscapeError struct {
	Root string
	Path string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("path %q is not under input root %q", e.Path, e.Root)
}

// OutputRoot returns parent(inputRoot)/(name(inputRoot)+suffix).
func OutputRoot(inputRoot, suffix string) (string, error) {
	if suffix == "" {
		return "", fmt.Errorf("output suffix must not be empty")
	}
	if strings.ContainsAny(suffix, `/\`) {
		return "", fmt.Errorf("output suffix %q must not contain a path separator", suffix)
	}
	clean := filepath.Clean(inputRoot)
	name := filepath.Base(clean)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("input root %q has no directory name", inputRoot)
	}
	return filepath.Join(filepath.Dir(clean), name+suffix), nil
}

// Mapper maps candidates under InputRoot to files under OutputRoot.
type Mapper struct {
	InputRoot  string
	OutputRoot string
}

// New creates a Mapper.
func New(inputRoot, outputRoot string) *Mapper {
	return &Mapper{
		InputRoot:  filepath.Clean(inputRoot),
		OutputRoot: filepath.Clean(outputRoot),
	}
}

// Rel returns candidate's path relative to the input root.
func (m *Mapper) Rel(candidate string) (string, error) {
	rel, err := filepath.Rel(m.InputRoot, filepath.Clean(candidate))
	if err != nil {
		return "", &PathEscapeError{Root: m.InputRoot, Path: candidate}
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", &PathEscapeError{Root: m.InputRoot, Path: candidate}
	}
	return rel, nil
}

// Map returns the output path for candidate: same relative directories, extension
// replaced by OutputExt. It creates nothing on disk.
func (m *Mapper) Map(candidate string) (string, error) {
	rel, err := m.Rel(candidate)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.OutputRoot, utils.ReplaceExtension(rel, OutputExt)), nil
}
