package chem

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Arrow separates the two sides of a reaction equation.
const Arrow = "<->"

var termPattern = regexp.MustCompile(`^(\d+(\.\d+)?)?(.+)$`)

// Term is one species of a reaction side with its coefficient.
type Term struct {
	Species string
	Coeff   float64
}

// ParseSide splits one side of an equation into terms. Tokens are separated
// by whitespace, "+" tokens are skipped and a leading number attached to the
// species name is its coefficient (default 1).
func ParseSide(side string, catalog []string) ([]Term, error) {
	known := make(map[string]bool, len(catalog))
	for _, name := range catalog {
		known[name] = true
	}

	var terms []Term
	for _, tok := range strings.Fields(side) {
		if tok == "+" {
			continue
		}
		m := termPattern.FindStringSubmatch(tok)
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrBadCoefficient, tok)
		}
		coeff := 1.0
		if m[1] != "" {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrBadCoefficient, tok)
			}
			coeff = v
		}
		if !known[m[3]] {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownSpecies, m[3], strings.TrimSpace(side))
		}
		terms = append(terms, Term{Species: m[3], Coeff: coeff})
	}
	return terms, nil
}

// ParseEquation parses "lhs <-> rhs".
func ParseEquation(eq string, catalog []string) (left, right []Term, err error) {
	parts := strings.Split(eq, Arrow)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("%w: %q", ErrBadEquation, eq)
	}
	if left, err = ParseSide(parts[0], catalog); err != nil {
		return nil, nil, err
	}
	if right, err = ParseSide(parts[1], catalog); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// FormatEquation renders signed coefficients over catalog back into an
// equation string. Negative coefficients go on the left.
func FormatEquation(coeffs []float64, catalog []string) string {
	var left, right []string
	for i, c := range coeffs {
		switch {
		case c < 0:
			left = append(left, formatTerm(-c, catalog[i]))
		case c > 0:
			right = append(right, formatTerm(c, catalog[i]))
		}
	}
	return strings.Join(left, " + ") + " " + Arrow + " " + strings.Join(right, " + ")
}

func formatTerm(coeff float64, name string) string {
	if coeff == 1 {
		return name
	}
	return strconv.FormatFloat(coeff, 'f', -1, 64) + name
}
