package collector

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Table is a markdown pipe table: a header row, a separator row and data
// rows. Lines starting with "#" and blank lines are skipped.
type Table struct {
	File   string
	Header []string
	Rows   [][]string
}

// ReadTable parses the markdown table at path.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}
	defer f.Close()

	t := &Table{File: path}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		text := scanner.Text()
		line++
		switch {
		case line == 1:
			t.Header = splitRow(text)
			continue
		case line == 2:
			continue
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		row := splitRow(text)
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(t.Header) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}
	return t, nil
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// Has reports whether the header names column.
func (t *Table) Has(column string) bool {
	return slices.Contains(t.Header, column)
}

// Column returns the cells of column, or a *ColumnError.
func (t *Table) Column(column string) ([]string, error) {
	idx := slices.Index(t.Header, column)
	if idx < 0 {
		return nil, &ColumnError{File: t.File, Column: column}
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Floats returns column converted to float64.
func (t *Table) Floats(column string) ([]float64, error) {
	cells, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d column %q: %q", ErrBadValue, t.File, i+1, column, c)
		}
		out[i] = v
	}
	return out, nil
}

// Select returns the entries of values whose key cell equals want.
func Select[T any](values []T, keys []string, want string) []T {
	var out []T
	for i, k := range keys {
		if k == want {
			out = append(out, values[i])
		}
	}
	return out
}
