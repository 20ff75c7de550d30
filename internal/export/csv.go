// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pdiddy/dicom-stats/pkg/types"
)

// WriteCSV writes the header and one line per record. Fields are quoted only
// when they contain the delimiter, a quote or a line break. Lines end in
// CRLF, which spreadsheet imports expect.
func WriteCSV(w io.Writer, table *types.Table, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	cw.UseCRLF = true

	if err := cw.Write(table.Fields); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, rec := range table.Records {
		if err := cw.Write(rec.Row(table.Fields)); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
