package chem

import "errors"

var (
	// ErrUnknownSpecies indicates a reaction references a species missing from the catalog.
	ErrUnknownSpecies = errors.New("chem: unknown species")

	// ErrBadCoefficient indicates a stoichiometric coefficient that cannot be parsed.
	ErrBadCoefficient = errors.New("chem: malformed stoichiometric coefficient")

	// ErrBadEquation indicates a reaction string without exactly one "<->" arrow.
	ErrBadEquation = errors.New("chem: malformed reaction equation")

	// ErrBadSweep indicates a potential sweep that cannot reach its final value.
	ErrBadSweep = errors.New("chem: invalid potential sweep")

	// ErrDimensionMismatch indicates inconsistent vector or matrix sizes in a dataset.
	ErrDimensionMismatch = errors.New("chem: dimension mismatch")

	// ErrUnknownRole indicates an RPACe value other than R, P, A or C.
	ErrUnknownRole = errors.New("chem: unknown species role")
)
