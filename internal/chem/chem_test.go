package chem

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testSpecies() *Species {
	return &Species{
		Reactants:   []string{"CH3OH", "H2O"},
		Products:    []string{"CO2", "H+"},
		Adsorbed:    []string{"CO*", "OH*"},
		Catalyst:    []string{"*"},
		C0Reactants: []float64{1, 1},
		C0Products:  []float64{0, 0},
		Occupancy:   mat.NewDense(1, 2, []float64{1, 1}),
	}
}

func TestParseSide(t *testing.T) {
	catalog := testSpecies().List()

	tests := []struct {
		name string
		side string
		want []Term
		err  error
	}{
		{"single", "CO*", []Term{{"CO*", 1}}, nil},
		{"integer coefficient", "4H+ + 4e-", []Term{{"H+", 4}, {"e-", 4}}, nil},
		{"fractional coefficient", "0.5H2O + *", []Term{{"H2O", 0.5}, {"*", 1}}, nil},
		{"extra whitespace", "  CO*   +   OH*  ", []Term{{"CO*", 1}, {"OH*", 1}}, nil},
		{"unknown species", "CO + *", nil, ErrUnknownSpecies},
		{"detached coefficient", "2 H+", nil, ErrUnknownSpecies},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSide(tt.side, catalog)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("term %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseEquationArrow(t *testing.T) {
	catalog := testSpecies().List()
	for _, eq := range []string{"CO* + OH*", "CO* <-> OH* <-> *"} {
		if _, _, err := ParseEquation(eq, catalog); !errors.Is(err, ErrBadEquation) {
			t.Errorf("ParseEquation(%q) error = %v, want ErrBadEquation", eq, err)
		}
	}
}

func TestStoichiometryRoundTrip(t *testing.T) {
	species := testSpecies()
	catalog := species.List()
	equations := []string{
		"CH3OH + * <-> CO* + 4H+ + 4e-",
		"H2O + * <-> OH* + H+ + e-",
		"CO* + OH* <-> CO2 + H+ + e- + 2*",
		"0.5H2O + 0.5* <-> 0.5OH* + 0.5H+ + 0.5e-",
	}
	r, err := BuildReactions([]string{"1", "2", "3", "4"}, equations, []float64{0.5, 0.5, 0.5, 0.5}, species)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for i := range equations {
		rebuilt := r.Equation(i, catalog)
		again, err := BuildReactions([]string{"x"}, []string{rebuilt}, []float64{0.5}, species)
		if err != nil {
			t.Fatalf("reparse of %q failed: %v", rebuilt, err)
		}
		want := r.Row(i)
		got := again.Row(0)
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("reaction %d column %s: got %g, want %g (%q)", i, catalog[j], got[j], want[j], rebuilt)
			}
		}
	}

	if r.Ne[0] != 4 {
		t.Errorf("ne[0] = %g, want 4", r.Ne[0])
	}
	if got := r.Nu.At(2, species.Index("*")); got != 2 {
		t.Errorf("nu[3,*] = %g, want 2", got)
	}
}

func TestDatasetViews(t *testing.T) {
	species := testSpecies()
	r, err := BuildReactions([]string{"1"}, []string{"CO* + OH* <-> CO2 + H+ + e- + 2*"}, []float64{0.5}, species)
	if err != nil {
		t.Fatal(err)
	}
	ds := &Dataset{Parameters: &Parameters{Potential: []float64{0}}, Species: species, Reactions: r}

	if _, c := ds.Nuc().Dims(); c != 6 {
		t.Errorf("nuc columns = %d, want 6", c)
	}
	nua := ds.Nua()
	if nua.At(0, 0) != -1 || nua.At(0, 1) != -1 {
		t.Errorf("nua = %v, want [-1 -1]", mat.Formatted(nua))
	}
	if _, c := ds.Nux().Dims(); c != 2 {
		t.Error("static mode should balance adsorbates only")
	}
	ds.Parameters.Mode = Flow
	if _, c := ds.Nux().Dims(); c != 6 {
		t.Errorf("flow nux columns = %d, want 6", c)
	}

	// Views share storage with Nu.
	r.Nu.Set(0, species.Index("CO*"), -3)
	if ds.Nua().At(0, 0) != -3 {
		t.Error("nua drifted from nu")
	}
}

func TestDatasetCloneIsDeep(t *testing.T) {
	species := testSpecies()
	r, err := BuildReactions([]string{"1"}, []string{"CO* + OH* <-> CO2 + H+ + e- + 2*"}, []float64{0.5}, species)
	if err != nil {
		t.Fatal(err)
	}
	r.Ga = []float64{0.4}
	ds := &Dataset{Parameters: &Parameters{Potential: []float64{0, 0.1}}, Species: species, Reactions: r}

	c := ds.Clone()
	c.Reactions.Ga[0] = 9
	c.Reactions.Nu.Set(0, 0, 9)
	c.Species.Occupancy.Set(0, 0, 9)
	c.Species.C0Reactants[0] = 9
	c.Parameters.Potential[0] = 9

	if ds.Reactions.Ga[0] != 0.4 || ds.Reactions.Nu.At(0, 0) != 0 ||
		ds.Species.Occupancy.At(0, 0) != 1 || ds.Species.C0Reactants[0] != 1 ||
		ds.Parameters.Potential[0] != 0 {
		t.Error("clone aliases the original")
	}
}

func TestSweepPotential(t *testing.T) {
	tests := []struct {
		name                 string
		initial, final, step float64
		n                    int
		err                  bool
	}{
		{"hundredths", 0, 0.5, 0.01, 51, false},
		{"single point", 0.2, 0.2, 0.1, 1, false},
		{"descending", 0.5, 0, -0.1, 6, false},
		{"zero step", 0, 1, 0, 0, true},
		{"wrong direction", 0, 1, -0.1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SweepPotential(tt.initial, tt.final, tt.step)
			if tt.err {
				if !errors.Is(err, ErrBadSweep) {
					t.Fatalf("error = %v, want ErrBadSweep", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.n {
				t.Fatalf("len = %d, want %d", len(got), tt.n)
			}
			if math.Abs(got[len(got)-1]-tt.final) > 1e-9 {
				t.Errorf("last = %g, want %g", got[len(got)-1], tt.final)
			}
		})
	}
}

func TestParametersSource(t *testing.T) {
	p := &Parameters{}
	if p.Source() != Fixed {
		t.Error("default source should be fixed")
	}
	p.FluxBased = true
	if p.Source() != FluxBased {
		t.Error("j* should override fixed")
	}
	p.TransitionState = true
	if p.Source() != TransitionState {
		t.Error("tst should override j*")
	}
	if p.Electrode() != -1 {
		t.Error("cathode sign should be -1")
	}
}

func TestParseRole(t *testing.T) {
	for code, want := range map[string]Role{"R": Reactant, "P": Product, "A": Adsorbed, "C": Catalyst} {
		got, err := ParseRole(code)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %v, %v", code, got, err)
		}
	}
	if _, err := ParseRole("X"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}
