// Package export writes steady-state sweeps as markdown tables, CSV, JSON
// and SVG curves.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/microkin/internal/steady"
)

// Variable selects the quantity written next to the potential.
type Variable int

const (
	Theta Variable = iota
	Fval
	Current
	CReactants
	CProducts
)

var variableNames = map[Variable]string{
	Theta:      "theta",
	Fval:       "fval",
	Current:    "j",
	CReactants: "c_reactants",
	CProducts:  "c_products",
}

func (v Variable) String() string { return variableNames[v] }

func ParseVariable(s string) (Variable, error) {
	for v, name := range variableNames {
		if strings.EqualFold(s, name) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown variable %q (want theta, fval, j, c_reactants or c_products)", s)
}

type Format int

const (
	Markdown Format = iota
	CSV
	JSON
	SVG
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "md", "markdown":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "svg":
		return SVG, nil
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// FormatFromPath picks the format from a file extension, markdown by default.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return Markdown
}

// Columns returns the labels and per-potential rows of v.
func Columns(res *steady.Result, v Variable) ([]string, [][]float64) {
	switch v {
	case Fval:
		return res.Adsorbed, res.Fval
	case Current:
		rows := make([][]float64, len(res.J))
		for i, j := range res.J {
			rows[i] = []float64{j}
		}
		return []string{"Current (A/cm2)"}, rows
	case CReactants:
		return res.Reactants, res.CReactants
	case CProducts:
		return res.Products, res.CProducts
	}
	return res.Adsorbed, res.Theta
}

// Write dispatches on format.
func Write(w io.Writer, res *steady.Result, v Variable, f Format) error {
	switch f {
	case CSV:
		return WriteCSV(w, res, v)
	case JSON:
		return WriteJSON(w, res)
	case SVG:
		labels, rows := Columns(res, v)
		label := v.String()
		if len(labels) > 0 {
			label = labels[0]
		}
		return CurveToSVG(w, res.Potential, firstColumn(rows), 640, 400, label, v == Current)
	}
	return WriteMarkdown(w, res, v)
}

// WriteFile writes res to path in the format implied by its extension.
func WriteFile(path string, res *steady.Result, v Variable) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := Write(file, res, v, FormatFromPath(path)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func firstColumn(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r) > 0 {
			out[i] = r[0]
		}
	}
	return out
}
