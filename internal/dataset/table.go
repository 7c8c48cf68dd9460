package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Table is an in-memory CSV table: a header plus string records.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable creates an empty table with the given header.
func NewTable(header []string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{Header: h}
}

// ReadTable loads a CSV file whose first record is the header.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	t, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", path, err)
	}
	return t, nil
}

func readTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty table")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := NewTable(header)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(rec))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// WriteFile writes the table to path, replacing any existing file.
func (t *Table) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return f.Close()
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Values returns every value of the named column.
func (t *Table) Values(name string) ([]string, error) {
	idx, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// AddColumn appends a column. values must hold one entry per row.
func (t *Table) AddColumn(name string, values []string) error {
	if _, exists := t.Column(name); exists {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// Append adds a record. It must match the header width.
func (t *Table) Append(rec []string) error {
	if len(rec) != len(t.Header) {
		return fmt.Errorf("record has %d fields, table has %d columns", len(rec), len(t.Header))
	}
	row := make([]string, len(rec))
	copy(row, rec)
	t.Rows = append(t.Rows, row)
	return nil
}

// Select returns a copy of the table holding only the named columns, in the
// given order.
func (t *Table) Select(names []string) (*Table, error) {
	cols := make([]int, len(names))
	for j, name := range names {
		idx, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		cols[j] = idx
	}

	out := NewTable(names)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = row[c]
		}
		out.Rows[i] = rec
	}
	return out, nil
}

// Matrix parses the named columns into a rows x len(names) matrix.
func (t *Table) Matrix(names []string) (*mat.Dense, error) {
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("table has no rows")
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no columns selected")
	}

	cols := make([]int, len(names))
	for j, name := range names {
		idx, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		cols[j] = idx
	}

	m := mat.NewDense(len(t.Rows), len(names), nil)
	for i, row := range t.Rows {
		for j, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i+1, names[j], err)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// Columns returns every column name except the excluded ones, in file order.
func (t *Table) Columns(exclude ...string) []string {
	var out []string
	for _, h := range t.Header {
		skip := false
		for _, e := range exclude {
			if h == e {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, h)
		}
	}
	return out
}

// AppendFeatureRow appends row to the feature CSV at path, writing the header
// first when the file does not exist or is empty.
func AppendFeatureRow(path string, row FeatureRow) error {
	header := FeatureHeader()

	info, err := os.Stat(path)
	fresh := err != nil || info.Size() == 0
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat feature table: %w", err)
	}
	if !fresh {
		existing, err := readHeader(path)
		if err != nil {
			return err
		}
		if !equalHeaders(existing, header) {
			return fmt.Errorf("feature table %s has header %v, want %v", path, existing, header)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open feature table: %w", err)
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			f.Close()
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(row.Record()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush row: %w", err)
	}
	return f.Close()
}

// readHeader reads only the first record of the CSV at path.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, nil
}

func equalHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
