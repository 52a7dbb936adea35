package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Index is the SQLite catalogue of runs and fit generations.
type Index struct {
	conn *sqlx.DB
}

// RunRow is one indexed run.
type RunRow struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	Kind             string    `db:"kind"`
	CreatedAt        time.Time `db:"created_at"`
	Source           string    `db:"source"`
	Mode             string    `db:"mode"`
	Temperature      float64   `db:"temperature"`
	Points           int       `db:"points"`
	Evaluations      int       `db:"evaluations"`
	NegativeCoverage bool      `db:"negative_coverage"`
	// Objective is NULL for sweeps and for fits that never scored a
	// finite objective.
	Objective sql.NullFloat64 `db:"objective"`
}

// Generation is one optimizer generation of a fit.
type Generation struct {
	RunID       string          `db:"run_id"`
	Generation  int             `db:"generation"`
	Objective   sql.NullFloat64 `db:"objective"`
	Convergence sql.NullFloat64 `db:"convergence"`
	Evaluations int             `db:"evaluations"`
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	idx := &Index{conn: conn}
	if err := idx.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return idx, nil
}

func (idx *Index) Close() error {
	return idx.conn.Close()
}

func (idx *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		source TEXT NOT NULL,
		mode TEXT NOT NULL,
		temperature REAL NOT NULL,
		points INTEGER NOT NULL,
		evaluations INTEGER NOT NULL,
		negative_coverage INTEGER NOT NULL,
		objective REAL
	);

	CREATE TABLE IF NOT EXISTS generations (
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		objective REAL,
		convergence REAL,
		evaluations INTEGER NOT NULL,
		PRIMARY KEY (run_id, generation)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	`
	_, err := idx.conn.Exec(schema)
	return err
}

// RecordRun inserts or replaces the row of meta.
func (idx *Index) RecordRun(meta RunMetadata) error {
	row := RunRow{
		ID:               meta.ID,
		Name:             meta.Name,
		Kind:             string(meta.Kind),
		CreatedAt:        meta.Timestamp.UTC(),
		Source:           meta.Source,
		Mode:             meta.Mode,
		Temperature:      meta.Temperature,
		Points:           meta.Points,
		Evaluations:      meta.Evaluations,
		NegativeCoverage: meta.NegativeCoverage,
	}
	if meta.Fit != nil && meta.Fit.Objective != nil {
		row.Objective = Nullable(*meta.Fit.Objective)
	}
	_, err := idx.conn.NamedExec(`INSERT OR REPLACE INTO runs
		(id, name, kind, created_at, source, mode, temperature, points, evaluations, negative_coverage, objective)
		VALUES (:id, :name, :kind, :created_at, :source, :mode, :temperature, :points, :evaluations, :negative_coverage, :objective)`,
		row)
	return err
}

// RecordGenerations appends fit generations in one transaction.
func (idx *Index) RecordGenerations(gens []Generation) error {
	tx, err := idx.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(`INSERT OR REPLACE INTO generations
		(run_id, generation, objective, convergence, evaluations)
		VALUES (:run_id, :generation, :objective, :convergence, :evaluations)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range gens {
		if _, err := stmt.Exec(g); err != nil {
			return fmt.Errorf("insert generation %d: %w", g.Generation, err)
		}
	}
	return tx.Commit()
}

// Run returns one indexed run.
func (idx *Index) Run(id string) (*RunRow, error) {
	var row RunRow
	err := idx.conn.Get(&row, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Runs lists indexed runs of kind, newest first. An empty kind lists all.
func (idx *Index) Runs(kind Kind) ([]RunRow, error) {
	var rows []RunRow
	var err error
	if kind == "" {
		err = idx.conn.Select(&rows, `SELECT * FROM runs ORDER BY created_at DESC, id`)
	} else {
		err = idx.conn.Select(&rows, `SELECT * FROM runs WHERE kind = ? ORDER BY created_at DESC, id`, string(kind))
	}
	return rows, err
}

// Generations returns the recorded generations of a fit in order.
func (idx *Index) Generations(runID string) ([]Generation, error) {
	var gens []Generation
	err := idx.conn.Select(&gens, `SELECT * FROM generations WHERE run_id = ? ORDER BY generation`, runID)
	return gens, err
}

func (idx *Index) DeleteRun(id string) error {
	tx, err := idx.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM generations WHERE run_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Nullable maps NaN and ±Inf to NULL.
func Nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
