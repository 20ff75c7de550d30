// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Record is one output row: the values extracted from a single file.
type Record struct {
	// SourcePath is the file the values were read from.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Checksum is the xxhash of the file content, set when content
	// deduplication is enabled.
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`

	// Values maps field name to rendered value. Absent fields are "".
	Values map[string]string `json:"values" yaml:"values"`
}

// Get returns the value of field, or "" when it was not extracted.
func (r Record) Get(field string) string {
	return r.Values[field]
}

// Row returns the values of r in the order of fields.
func (r Record) Row(fields []string) []string {
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = r.Values[f]
	}
	return row
}

// Table is the result of an extraction run: a header and ordered rows.
type Table struct {
	// Fields is the header, in configured order.
	Fields []string `json:"fields" yaml:"fields"`

	// Records are the rows, in discovery order.
	Records []Record `json:"records" yaml:"records"`
}

// Rows returns every record as a slice ordered by Fields.
func (t *Table) Rows() [][]string {
	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		rows[i] = r.Row(t.Fields)
	}
	return rows
}
