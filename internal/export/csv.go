package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/microkin/internal/steady"
)

func WriteCSV(w io.Writer, res *steady.Result, v Variable) error {
	labels, rows := Columns(res, v)
	cw := csv.NewWriter(w)

	header := append([]string{"potential"}, labels...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, eta := range res.Potential {
		row := []string{strconv.FormatFloat(eta, 'g', -1, 64)}
		for _, x := range rows[i] {
			row = append(row, strconv.FormatFloat(x, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
