package report

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the header and rows to w in export column order.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Columns()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
