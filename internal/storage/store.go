// Package storage keeps finished sweeps and fits on disk: one directory per
// run with metadata.json and sweep.csv, plus a SQLite index of runs and fit
// generations.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/facette/natsort"
	"github.com/google/uuid"

	"github.com/san-kum/microkin/internal/steady"
)

const (
	MetadataFile = "metadata.json"
	SweepFile    = "sweep.csv"
	IndexFile    = "index.db"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Kind string

const (
	KindSweep Kind = "sweep"
	KindFit   Kind = "fit"
)

// FitSummary is stored with fit runs. Objective is nil when the fit never
// scored a finite value.
type FitSummary struct {
	Names       []string  `json:"names"`
	Initial     []float64 `json:"initial"`
	X           []float64 `json:"x"`
	Objective   *float64  `json:"objective"`
	Generations int       `json:"generations"`
	Evaluations int       `json:"evaluations"`
	Converged   bool      `json:"converged"`
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Kind             Kind               `json:"kind"`
	Timestamp        time.Time          `json:"timestamp"`
	Source           string             `json:"source"`
	Mode             string             `json:"mode"`
	Temperature      float64            `json:"temperature"`
	Points           int                `json:"points"`
	Evaluations      int                `json:"evaluations"`
	NegativeCoverage bool               `json:"negative_coverage"`
	Metrics          map[string]float64 `json:"metrics,omitempty"`
	Fit              *FitSummary        `json:"fit,omitempty"`
}

type Store struct {
	baseDir string
	index   *Index
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the base directory and opens the run index.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	idx, err := OpenIndex(filepath.Join(s.baseDir, IndexFile))
	if err != nil {
		return err
	}
	s.index = idx
	return nil
}

func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

// Index is nil before Init.
func (s *Store) Index() *Index { return s.index }

// Dir returns the directory of a run.
func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

// FiniteOrNil returns &v, or nil when v is NaN or ±Inf.
func FiniteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewID returns name_<timestamp>_<8 hex digits>.
func NewID(name string) string {
	return fmt.Sprintf("%s_%s_%s", name, time.Now().Format("20060102-150405"), uuid.New().String()[:8])
}

// Save writes a run directory and records it in the index. meta.ID and
// meta.Timestamp are filled when empty.
func (s *Store) Save(meta RunMetadata, res *steady.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = NewID(meta.Name)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if res != nil {
		meta.Points = res.Len()
		meta.Evaluations = res.TotalEvaluations()
		meta.NegativeCoverage = res.NegativeCoverage
	}

	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, MetadataFile), meta); err != nil {
		return "", err
	}
	if res != nil {
		if err := writeSweep(filepath.Join(runDir, SweepFile), res); err != nil {
			return "", err
		}
	}
	if s.index != nil {
		if err := s.index.RecordRun(meta); err != nil {
			return "", fmt.Errorf("index run %s: %w", meta.ID, err)
		}
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sweep.csv columns: potential, c_R:<name>..., c_P:<name>..., theta:<name>..., j.
func writeSweep(path string, res *steady.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := []string{"potential"}
	for _, n := range res.Reactants {
		header = append(header, "c_R:"+n)
	}
	for _, n := range res.Products {
		header = append(header, "c_P:"+n)
	}
	for _, n := range res.Adsorbed {
		header = append(header, "theta:"+n)
	}
	header = append(header, "j")
	if err := w.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i, eta := range res.Potential {
		row := []string{format(eta)}
		for _, v := range res.CReactants[i] {
			row = append(row, format(v))
		}
		for _, v := range res.CProducts[i] {
			row = append(row, format(v))
		}
		for _, v := range res.Theta[i] {
			row = append(row, format(v))
		}
		row = append(row, format(res.J[i]))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every run with readable metadata in natural ID order.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return natsort.Compare(runs[i].ID, runs[j].ID)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSweep reads sweep.csv back into a result. Fval and iteration counts
// are not stored.
func (s *Store) LoadSweep(runID string) (*steady.Result, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), SweepFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s has no sweep", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty sweep file", runID)
	}

	res := &steady.Result{}
	var kinds []string
	for _, col := range records[0][1:] {
		kind, name, _ := strings.Cut(col, ":")
		kinds = append(kinds, kind)
		switch kind {
		case "c_R":
			res.Reactants = append(res.Reactants, name)
		case "c_P":
			res.Products = append(res.Products, name)
		case "theta":
			res.Adsorbed = append(res.Adsorbed, name)
		}
	}

	for line, record := range records[1:] {
		values := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", SweepFile, line+2, err)
			}
			values[i] = v
		}
		var cR, cP, theta []float64
		for i, kind := range kinds {
			v := values[i+1]
			switch kind {
			case "c_R":
				cR = append(cR, v)
			case "c_P":
				cP = append(cP, v)
			case "theta":
				theta = append(theta, v)
				if v < 0 {
					res.NegativeCoverage = true
				}
			case "j":
				res.J = append(res.J, v)
			}
		}
		res.Potential = append(res.Potential, values[0])
		res.CReactants = append(res.CReactants, cR)
		res.CProducts = append(res.CProducts, cP)
		res.Theta = append(res.Theta, theta)
	}
	return res, nil
}

// Delete removes a run directory and its index rows.
func (s *Store) Delete(runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	if err := os.RemoveAll(s.Dir(runID)); err != nil {
		return err
	}
	if s.index != nil {
		return s.index.DeleteRun(runID)
	}
	return nil
}
