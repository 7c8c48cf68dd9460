package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoImages is returned when an image path resolves to nothing.
var ErrNoImages = errors.New("the input path(s) was not found")

// ResolveImagePaths expands path into individual image files.
//
// A directory yields every supported image directly inside it, sorted by name.
// An existing file yields itself. Anything else is treated as a glob pattern
// (with a leading ~ expanded to the home directory).
func ResolveImagePaths(path string) ([]string, error) {
	if path == "" {
		return nil, ErrNoImages
	}

	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return []string{path}, nil
		}
		return listDirectory(path)
	}

	pattern, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid image pattern %q: %w", path, err)
	}

	var files []string
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && !fi.IsDir() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImages, path)
	}
	sort.Strings(files)
	return files, nil
}

func listDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list image directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s contains no images", ErrNoImages, dir)
	}
	sort.Strings(files)
	return files, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Stem returns the base name of path up to its first dot.
// "dir/IMG_01.v2.jpg" -> "IMG_01".
func Stem(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// MaskPath returns the instance-mask file expected for imagePath.
func MaskPath(maskDir, imagePath, suffix string) string {
	return filepath.Join(maskDir, Stem(imagePath)+suffix)
}
