// Package collector reads a run directory into a [chem.Dataset].
//
// A run directory holds three markdown tables:
//
//   - parameters.md: Parameters | Variables | Value | Units
//   - species.md: Species | RPACe | c0 | Catalyst | Sites | DG_formation
//   - reactions.md: id | Reactions | Beta | k_f | k_b | Ga | DG_reaction
//
// Missing files and missing required columns are fatal. Toggle rows
// (Anode, Experimental, Chemical, ...) are false unless their value is
// exactly "True".
package collector

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/microkin/internal/chem"
	"github.com/san-kum/microkin/internal/constants"
)

const (
	ParametersFile = "parameters.md"
	SpeciesFile    = "species.md"
	ReactionsFile  = "reactions.md"
)

// Collect reads the three input tables from dir.
func Collect(dir string, log logrus.FieldLogger) (*chem.Dataset, error) {
	log.WithField("dir", dir).Info("collecting input data")

	params, err := ReadParameters(filepath.Join(dir, ParametersFile), log)
	if err != nil {
		return nil, err
	}
	species, err := ReadSpecies(filepath.Join(dir, SpeciesFile), params, log)
	if err != nil {
		return nil, err
	}
	reactions, err := ReadReactions(filepath.Join(dir, ReactionsFile), params, species, log)
	if err != nil {
		return nil, err
	}

	ds := &chem.Dataset{Directory: dir, Parameters: params, Species: species, Reactions: reactions}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	log.Info("data collection completed")
	return ds, nil
}

type parameterTable struct {
	file       string
	parameters []string
	variables  []string
	values     []string
	units      []string
}

func (p *parameterTable) lookup(keys []string, name string) (string, string, bool) {
	i := slices.Index(keys, name)
	if i < 0 {
		return "", "", false
	}
	return p.values[i], p.units[i], true
}

func (p *parameterTable) float(name string) (float64, error) {
	v, _, ok := p.lookup(p.variables, name)
	if !ok {
		return 0, fmt.Errorf("%w: %q in %s", ErrMissingValue, name, p.file)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q = %q in %s", ErrBadValue, name, v, p.file)
	}
	return f, nil
}

func (p *parameterTable) toggle(keys []string, name string) bool {
	v, _, ok := p.lookup(keys, name)
	return ok && v == "True"
}

// ReadParameters reads the operating conditions table.
func ReadParameters(path string, log logrus.FieldLogger) (*chem.Parameters, error) {
	log.WithField("file", path).Info("reading parameters")
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	pt := &parameterTable{file: path}
	for _, col := range []struct {
		name string
		dst  *[]string
	}{
		{"Parameters", &pt.parameters},
		{"Variables", &pt.variables},
		{"Value", &pt.values},
		{"Units", &pt.units},
	} {
		if *col.dst, err = t.Column(col.name); err != nil {
			return nil, err
		}
	}

	p := &chem.Parameters{}
	p.Anode = pt.toggle(pt.variables, "Anode")

	temp, err := pt.float("Temperature")
	if err != nil {
		return nil, err
	}
	_, unit, _ := pt.lookup(pt.variables, "Temperature")
	if p.Temperature, err = toKelvin(temp, unit); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if p.InitialPotential, err = pt.float("Initial potential"); err != nil {
		return nil, err
	}
	if p.FinalPotential, err = pt.float("Final potential"); err != nil {
		return nil, err
	}
	if p.StepPotential, err = pt.float("Step potential"); err != nil {
		return nil, err
	}
	if p.Potential, err = chem.SweepPotential(p.InitialPotential, p.FinalPotential, p.StepPotential); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(logrus.Fields{
		"temperature": p.Temperature,
		"initial":     p.InitialPotential,
		"final":       p.FinalPotential,
		"step":        p.StepPotential,
		"anode":       p.Anode,
	}).Info("operating conditions")

	p.TransitionState = pt.toggle(pt.parameters, "Transient state theory")
	p.FluxBased = pt.toggle(pt.variables, "j*")
	p.Experimental = pt.toggle(pt.parameters, "Experimental")
	p.Chemical = pt.toggle(pt.parameters, "Chemical")

	p.PreExponential = 1
	if _, _, ok := pt.lookup(pt.variables, "A"); ok || p.Source() == chem.Fixed {
		if p.PreExponential, err = pt.float("A"); err != nil {
			return nil, err
		}
	}
	if p.FluxBased {
		if p.JStar, err = pt.float("j* (value)"); err != nil {
			return nil, err
		}
	}
	if p.TransitionState {
		if p.Kappa, err = pt.float("kappa"); err != nil {
			return nil, err
		}
		if p.M, err = pt.float("m"); err != nil {
			return nil, err
		}
	}
	log.WithField("source", p.Source()).Info("pre-exponential factor selected")

	if p.Chemical {
		p.DGReactionInput = pt.toggle(pt.variables, "DG_reaction")
		p.GFormationInput = pt.toggle(pt.variables, "G_formation")
		log.WithFields(logrus.Fields{
			"dg_reaction": p.DGReactionInput,
			"g_formation": p.GFormationInput,
		}).Info("thermochemistry enabled")
	}

	if pt.toggle(pt.parameters, "Continuous Stirred-Tank Reactor") {
		p.Mode = chem.Flow
		if p.VolumetricFlow, err = pt.float("Volumetric flux"); err != nil {
			return nil, err
		}
		if p.CatalystArea, err = pt.float("Catalyst Active surface area"); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"volumetric_flux": p.VolumetricFlow,
			"catalyst_area":   p.CatalystArea,
		}).Info("continuous stirred-tank reactor")
	}
	return p, nil
}

func toKelvin(v float64, unit string) (float64, error) {
	switch strings.TrimSpace(unit) {
	case "K", "":
		return v, nil
	case "C", "°C":
		return v + constants.ZeroCelsius, nil
	}
	return 0, fmt.Errorf("%w: temperature unit %q", ErrBadValue, unit)
}

// ReadSpecies reads the species catalog.
func ReadSpecies(path string, params *chem.Parameters, log logrus.FieldLogger) (*chem.Species, error) {
	log.WithField("file", path).Info("reading species")
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	names, err := t.Column("Species")
	if err != nil {
		return nil, err
	}
	roles, err := t.Column("RPACe")
	if err != nil {
		return nil, err
	}
	for i, r := range roles {
		if _, err := chem.ParseRole(r); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
	}
	c0, err := t.Floats("c0")
	if err != nil {
		return nil, err
	}
	catalystOf, err := t.Column("Catalyst")
	if err != nil {
		return nil, err
	}

	s := &chem.Species{
		Reactants:   Select(names, roles, "R"),
		Products:    Select(names, roles, "P"),
		Adsorbed:    Select(names, roles, "A"),
		Catalyst:    Select(names, roles, "C"),
		C0Reactants: Select(c0, roles, "R"),
		C0Products:  Select(c0, roles, "P"),
	}
	log.WithFields(logrus.Fields{
		"reactants": s.Reactants,
		"products":  s.Products,
		"adsorbed":  s.Adsorbed,
		"catalyst":  s.Catalyst,
	}).Info("species lists")

	sites := make([]float64, len(names))
	for i := range sites {
		sites[i] = 1
	}
	if t.Has("Sites") {
		if sites, err = t.Floats("Sites"); err != nil {
			return nil, err
		}
	}
	if len(s.Catalyst) > 0 && len(s.Adsorbed) > 0 {
		s.Occupancy = mat.NewDense(len(s.Catalyst), len(s.Adsorbed), nil)
		for i, cat := range s.Catalyst {
			for row, name := range names {
				if catalystOf[row] != cat {
					continue
				}
				if a := slices.Index(s.Adsorbed, name); a >= 0 {
					s.Occupancy.Set(i, a, sites[row])
				}
			}
		}
	}

	if params.Chemical {
		g, err := t.Floats("DG_formation")
		if err != nil {
			return nil, err
		}
		s.GFormationReactants = Select(g, roles, "R")
		s.GFormationProducts = Select(g, roles, "P")
		s.GFormationAdsorbed = Select(g, roles, "A")
		log.Info("formation energies processed")
	}
	return s, nil
}

// ReadReactions reads the reaction table and builds the stoichiometric
// matrix against species.
func ReadReactions(path string, params *chem.Parameters, species *chem.Species, log logrus.FieldLogger) (*chem.Reactions, error) {
	log.WithField("file", path).Info("reading reactions")
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	ids, err := t.Column("id")
	if err != nil {
		return nil, err
	}
	beta, err := t.Floats("Beta")
	if err != nil {
		return nil, err
	}
	equations, err := t.Column("Reactions")
	if err != nil {
		return nil, err
	}
	r, err := chem.BuildReactions(ids, equations, beta, species)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithField("reactions", r.Len()).Info("reaction matrix processed")

	if params.Experimental {
		if r.KF, err = t.Floats("k_f"); err != nil {
			return nil, err
		}
		if r.KB, err = t.Floats("k_b"); err != nil {
			return nil, err
		}
		log.Info("experimental rate constants processed")
	}
	if params.Chemical {
		if r.Ga, err = t.Floats("Ga"); err != nil {
			return nil, err
		}
		if params.DGReactionInput {
			if r.DGReaction, err = t.Floats("DG_reaction"); err != nil {
				return nil, err
			}
		}
		log.Info("thermochemical parameters processed")
	}
	return r, nil
}
