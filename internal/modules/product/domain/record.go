package domain

import (
	"strings"
)

// RawRecord is one parsed CSV data row keyed by normalized header name.
type RawRecord struct {
	Line   int
	Fields map[string]string
}

func NewRawRecord(line int, fields map[string]string) RawRecord {
	return RawRecord{Line: line, Fields: fields}
}

// Get returns the trimmed value for key. Absent keys read as "".
func (r RawRecord) Get(key string) string {
	return strings.TrimSpace(r.Fields[key])
}

// FieldWarning marks a numeric cell that was present but could not be
// parsed and was stored as null.
type FieldWarning struct {
	Line  int    `json:"line"`
	Field string `json:"field"`
	Value string `json:"value"`
}
