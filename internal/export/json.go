package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/microkin/internal/steady"
)

// Document is the JSON form of a sweep.
type Document struct {
	Reactants        []string    `json:"reactants"`
	Products         []string    `json:"products"`
	Adsorbed         []string    `json:"adsorbed"`
	Potential        []float64   `json:"potential"`
	CReactants       [][]float64 `json:"c_reactants"`
	CProducts        [][]float64 `json:"c_products"`
	Theta            [][]float64 `json:"theta"`
	Fval             [][]float64 `json:"fval"`
	J                []float64   `json:"j"`
	Iterations       []int       `json:"iterations"`
	Evaluations      []int       `json:"evaluations"`
	NegativeCoverage bool        `json:"negative_coverage"`
}

func NewDocument(res *steady.Result) Document {
	return Document{
		Reactants:        res.Reactants,
		Products:         res.Products,
		Adsorbed:         res.Adsorbed,
		Potential:        res.Potential,
		CReactants:       res.CReactants,
		CProducts:        res.CProducts,
		Theta:            res.Theta,
		Fval:             res.Fval,
		J:                res.J,
		Iterations:       res.Iterations,
		Evaluations:      res.Evaluations,
		NegativeCoverage: res.NegativeCoverage,
	}
}

// Result converts the document back to a sweep.
func (d Document) Result() *steady.Result {
	return &steady.Result{
		Reactants:        d.Reactants,
		Products:         d.Products,
		Adsorbed:         d.Adsorbed,
		Potential:        d.Potential,
		CReactants:       d.CReactants,
		CProducts:        d.CProducts,
		Theta:            d.Theta,
		Fval:             d.Fval,
		J:                d.J,
		Iterations:       d.Iterations,
		Evaluations:      d.Evaluations,
		NegativeCoverage: d.NegativeCoverage,
	}
}

func WriteJSON(w io.Writer, res *steady.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res))
}

func ReadJSON(r io.Reader) (*steady.Result, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, err
	}
	return d.Result(), nil
}
