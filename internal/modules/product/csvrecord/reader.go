// Package csvrecord turns an uploaded CSV document into raw records keyed by
// normalized header names.
package csvrecord

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/eskrenkovic/csv-import-go/internal/modules/product/domain"
)

const utf8BOM = "\uFEFF"

// NormalizeHeader trims h, lowercases it and collapses every run of
// whitespace into a single underscore, so "Reorder  Level" becomes
// "reorder_level".
func NormalizeHeader(h string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(h)), unicode.IsSpace)
	return strings.Join(fields, "_")
}

// Read parses r. The first line is the header row; every following non-blank
// line becomes one record. Rows shorter than the header leave the trailing
// keys absent and cells beyond the header are ignored. Empty input yields no
// records and no error.
func Read(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.RawRecord{}, nil
	}
	if err != nil {
		return nil, parseError(err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = NormalizeHeader(h)
	}

	records := make([]domain.RawRecord, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}

		line, _ := reader.FieldPos(0)

		fields := make(map[string]string, len(keys))
		for i, value := range row {
			if i >= len(keys) {
				break
			}
			if keys[i] == "" {
				continue
			}
			fields[keys[i]] = value
		}

		records = append(records, domain.NewRawRecord(line, fields))
	}

	return records, nil
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, []byte(utf8BOM)) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

func parseError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &domain.ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &domain.ParseError{Err: err}
}
