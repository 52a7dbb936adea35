package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/microkin/internal/steady"
)

const potentialHeader = "Potential (V)"

// WriteMarkdown writes a pipe table with one row per potential and values
// in %.5e.
func WriteMarkdown(w io.Writer, res *steady.Result, v Variable) error {
	labels, rows := Columns(res, v)
	bw := bufio.NewWriter(w)

	header := append([]string{potentialHeader}, labels...)
	fmt.Fprintf(bw, "| %s |\n", strings.Join(header, " | "))
	fmt.Fprintf(bw, "|%s\n", strings.Repeat("---|", len(header)))

	cells := make([]string, 0, len(header))
	for i, eta := range res.Potential {
		cells = cells[:0]
		cells = append(cells, fmt.Sprintf("%.5e", eta))
		for _, x := range rows[i] {
			cells = append(cells, fmt.Sprintf("%.5e", x))
		}
		fmt.Fprintf(bw, "| %s |\n", strings.Join(cells, " | "))
	}
	return bw.Flush()
}
