package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
)

// WriteResultSet renders a projected result set as comma-separated text per
// spec §6: a header row of column labels, one row per result tuple (values
// via catalog.Value.String(), so BOOL prints TRUE/FALSE, DATE uses the
// fixed template, NULL prints literally, FLOAT keeps six fractional
// digits), a trailing blank line, and an "[Info] N row(s) selected." summary.
func WriteResultSet(w io.Writer, headers []string, rows [][]catalog.Value) error {
	if _, err := fmt.Fprintln(w, strings.Join(headers, ",")); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, ",")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[Info] %d row(s) selected.\n", len(rows))
	return err
}
