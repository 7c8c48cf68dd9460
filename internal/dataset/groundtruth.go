package dataset

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// TrimIdentifier drops exactly one leading and one trailing character from a
// ground-truth image identifier ("'IMG_01.jpg'" -> "IMG_01.jpg").
func TrimIdentifier(s string) string {
	r := []rune(s)
	if len(r) < 2 {
		return ""
	}
	return string(r[1 : len(r)-1])
}

// LoadGroundTruth reads a ground-truth CSV (header row, then identifier and
// count) into an identifier -> target mapping. Identifiers are normalised
// with TrimIdentifier; later duplicates overwrite earlier ones.
func LoadGroundTruth(path string) (map[string]float64, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load ground truth: %w", err)
	}
	if len(t.Header) < 2 {
		return nil, fmt.Errorf("ground truth %s needs at least 2 columns, got %d", path, len(t.Header))
	}

	gt := make(map[string]float64, len(t.Rows))
	for i, row := range t.Rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("ground truth row %d: %w", i+1, err)
		}
		gt[TrimIdentifier(row[0])] = v
	}
	return gt, nil
}

// ImageName returns the file name part of an image identifier, accepting
// both slash and OS-specific separators.
func ImageName(id string) string {
	return filepath.Base(path.Base(id))
}

// Join performs an inner join of a feature table with a ground-truth mapping.
// A feature row matches when the file name of its image identifier is a key
// of gt; rows without a match are dropped. The result carries the feature
// columns followed by TargetColumn.
func Join(features *Table, gt map[string]float64) (*Table, error) {
	imgIdx, ok := features.Column(ImageColumn)
	if !ok {
		return nil, fmt.Errorf("feature table has no %q column", ImageColumn)
	}

	joined := NewTable(append(append([]string{}, features.Header...), TargetColumn))
	for _, row := range features.Rows {
		target, ok := gt[ImageName(row[imgIdx])]
		if !ok {
			continue
		}
		rec := append(append([]string{}, row...), FormatFloat(target))
		if err := joined.Append(rec); err != nil {
			return nil, err
		}
	}
	return joined, nil
}
