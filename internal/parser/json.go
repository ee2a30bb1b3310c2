package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type jsonParser struct{}

func (jsonParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

// ParseFile accepts a saved API response ({"records": [...]}) or a bare
// array of records.
func (jsonParser) ParseFile(path string) ([]json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var recs []json.RawMessage
		if err := json.Unmarshal(b, &recs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return recs, nil
	}
	var env struct {
		Records *[]json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if env.Records == nil {
		return nil, fmt.Errorf("%s: no records array", path)
	}
	return *env.Records, nil
}
