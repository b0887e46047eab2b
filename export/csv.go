/*
csv.go - CSV serialization of the flattened table

Standard RFC-4180 output via encoding/csv, with every field quoted: the
downstream spreadsheet import expects values double-quoted and internal
quotes doubled, which csv.Writer only does on demand, so quoting is
forced by writing pre-quoted fields through a raw writer instead.
*/
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/warp/workforce-engine/engine"
)

// WriteCSV writes the flattened result as UTF-8, comma-delimited CSV with
// every value double-quoted and internal quotes doubled.
func WriteCSV(w io.Writer, result *engine.Result) error {
	for _, row := range Table(result) {
		if err := writeQuotedRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSVStandard writes the same rows with minimal (on-demand) quoting,
// for consumers that prefer lean RFC-4180 output.
func WriteCSVStandard(w io.Writer, result *engine.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Table(result)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeQuotedRow(w io.Writer, row []string) error {
	var sb strings.Builder
	for i, field := range row {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
