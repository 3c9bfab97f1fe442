// Package discovery enumerates source images under an input root.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/menta2k/image-cutout/internal/utils"
	"github.com/menta2k/image-cutout/pkg/types"
)

// RootNotFoundError reports a missing or non-directory input root.
type RootNotFoundError struct {
	Root string
	Err  error
}

func (e *RootNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input root %q not found: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("input root %q is not a directory", e.Root)
}

func (e *RootNotFoundError) Unwrap() error { return e.Err }

// CheckRoot verifies that root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &RootNotFoundError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return &RootNotFoundError{Root: root}
	}
	return nil
}

// Discover walks root recursively and returns every regular file, or symlink to one, with
// a supported image extension, sorted by relative path. Symlinked directories are not
// followed. Unreadable subdirectories are skipped with a
// warning; an unreadable root is an error. log may be nil.
func Discover(root string, log *slog.Logger) ([]types.Candidate, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var files []types.Candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !utils.IsImageFile(d.Name()) {
			log.Debug("skipping unsupported file", "path", path)
			return nil
		}
		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink == 0 {
				log.Debug("skipping non-regular file", "path", path)
				return nil
			}
			target, err := os.Stat(path)
			if err != nil {
				log.Warn("skipping broken symlink", "path", path, "error", err)
				return nil
			}
			if !target.Mode().IsRegular() {
				log.Debug("skipping symlink to non-regular file", "path", path)
				return nil
			}
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, types.Candidate{Path: path, RelPath: rel})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &RootNotFoundError{Root: root, Err: err}
		}
		return nil, fmt.Errorf("walk %q: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return filepath.ToSlash(files[i].RelPath) < filepath.ToSlash(files[j].RelPath)
	})
	return files, nil
}
