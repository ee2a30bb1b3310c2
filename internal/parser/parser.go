// Package parser reads locally downloaded data.gov.in exports (CSV, JSON or
// XLSX) into the same raw records the API returns, so the ETL can run
// without network access.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Parser decodes one export format into raw records keyed by API field name.
type Parser interface {
	CanParse(filename string) bool
	ParseFile(path string) ([]json.RawMessage, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported export format")

// ParseFile selects a parser based on filename and returns the records.
func ParseFile(path string) ([]json.RawMessage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	for _, p := range registry {
		if p.CanParse(path) {
			return p.ParseFile(path)
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}

// headerAliases maps export column headers onto API field names where the
// two differ after normalization.
var headerAliases = map[string]string{
	"area":       "area_",
	"production": "production_",
}

// fieldName normalizes a column header: "State_Name" and "State Name" both
// become "state_name".
func fieldName(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	h = strings.Join(strings.Fields(h), "_")
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}

// rowsToRecords pairs a header row with data rows. Blank and "NA" cells
// become null; short rows are padded with null.
func rowsToRecords(header []string, rows [][]string) ([]json.RawMessage, error) {
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = fieldName(h)
	}
	out := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		rec := make(map[string]*string, len(fields))
		for i, f := range fields {
			if f == "" {
				continue
			}
			var cell *string
			if i < len(row) {
				v := strings.TrimSpace(row[i])
				if v != "" && !strings.EqualFold(v, "NA") {
					cell = &v
				}
			}
			rec[f] = cell
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode row: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func init() {
	Register(csvParser{})
	Register(jsonParser{})
	Register(xlsxParser{})
}
