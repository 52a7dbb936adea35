package collector

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Polarization is an experimental current-potential curve.
type Polarization struct {
	Potential []float64
	Current   []float64
}

// ReadPolarization reads two numeric columns (potential, current density).
// Columns may be separated by whitespace, commas, semicolons or pipes.
// Leading non-numeric lines are treated as headers; "#" lines are comments.
func ReadPolarization(path string) (*Polarization, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	p := &Polarization{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.FieldsFunc(line, func(r rune) bool {
			return unicode.IsSpace(r) || r == ',' || r == ';' || r == '|'
		})
		if len(parts) != 2 {
			if len(p.Potential) == 0 && !numeric(parts) {
				continue
			}
			return nil, fmt.Errorf("%w: line %q: expected 2 numbers, got %d", ErrBadValue, line, len(parts))
		}
		x, errX := strconv.ParseFloat(parts[0], 64)
		y, errY := strconv.ParseFloat(parts[1], 64)
		if errX != nil || errY != nil {
			if len(p.Potential) == 0 {
				continue
			}
			return nil, fmt.Errorf("%w: line %q", ErrBadValue, line)
		}
		p.Potential = append(p.Potential, x)
		p.Current = append(p.Current, y)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	if len(p.Potential) == 0 {
		return nil, fmt.Errorf("%w: no data points in %s", ErrEmptyTable, path)
	}
	return p, nil
}

func numeric(parts []string) bool {
	for _, s := range parts {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return true
		}
	}
	return false
}

// Scale multiplies potentials and currents in place and returns p.
func (p *Polarization) Scale(potential, current float64) *Polarization {
	for i := range p.Potential {
		p.Potential[i] *= potential
		p.Current[i] *= current
	}
	return p
}
