package datagov

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a loosely typed JSON scalar as served by the API: the same field
// may arrive as a string, a number, or null.
type Value struct {
	raw   string
	valid bool
}

// NewValue builds a non-null Value (used by tests and callers building
// records by hand).
func NewValue(s string) Value { return Value{raw: s, valid: true} }

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value{raw: s, valid: true}
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", string(b[:1]))
	default:
		*v = Value{raw: string(b), valid: true}
	}
	return nil
}

// MarshalJSON renders the raw text as a JSON string, or null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.raw)
}

// IsNull reports whether the field was absent or null.
func (v Value) IsNull() bool { return !v.valid }

// String returns the raw text ("" for null).
func (v Value) String() string { return v.raw }

// Float parses the value as a finite number. Anything else (null, "NA",
// empty, NaN, Inf) is reported as missing.
func (v Value) Float() (float64, bool) {
	if !v.valid {
		return 0, false
	}
	s := strings.TrimSpace(v.raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AgricultureRecord is one raw row of the district-wise crop production
// resource.
type AgricultureRecord struct {
	// Index is the position in the fetched page.
	Index        int   `json:"-"`
	StateName    Value `json:"state_name"`
	DistrictName Value `json:"district_name"`
	CropYear     Value `json:"crop_year"`
	Season       Value `json:"season"`
	Crop         Value `json:"crop"`
	Area         Value `json:"area_"`
	Production   Value `json:"production_"`
}

// Months lists the monthly rainfall columns in calendar order.
var Months = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// RainfallRecord is one raw row of the sub-divisional monthly rainfall
// resource: one (subdivision, year) with twelve monthly columns.
type RainfallRecord struct {
	Index       int
	Subdivision Value
	Year        Value
	Months      [12]Value
}

// UnmarshalJSON maps subdivision, year and jan..dec; other columns (annual,
// seasonal aggregates) are ignored.
func (r *RainfallRecord) UnmarshalJSON(b []byte) error {
	var fields map[string]Value
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*r = RainfallRecord{
		Subdivision: fields["subdivision"],
		Year:        fields["year"],
	}
	for i, m := range Months {
		r.Months[i] = fields[m]
	}
	return nil
}

// DecodeError is a raw record that could not be decoded into its typed form.
type DecodeError struct {
	Index int
	Err   error
}

func (e DecodeError) Error() string { return fmt.Sprintf("record %d: %v", e.Index, e.Err) }

// DecodeAgriculture decodes raw records; undecodable ones are reported, not
// fatal.
func DecodeAgriculture(raw []json.RawMessage) ([]AgricultureRecord, []DecodeError) {
	out := make([]AgricultureRecord, 0, len(raw))
	var errs []DecodeError
	for i, m := range raw {
		var rec AgricultureRecord
		if err := json.Unmarshal(m, &rec); err != nil {
			errs = append(errs, DecodeError{Index: i, Err: err})
			continue
		}
		rec.Index = i
		out = append(out, rec)
	}
	return out, errs
}

// DecodeRainfall decodes raw records; undecodable ones are reported, not
// fatal.
func DecodeRainfall(raw []json.RawMessage) ([]RainfallRecord, []DecodeError) {
	out := make([]RainfallRecord, 0, len(raw))
	var errs []DecodeError
	for i, m := range raw {
		var rec RainfallRecord
		if err := json.Unmarshal(m, &rec); err != nil {
			errs = append(errs, DecodeError{Index: i, Err: err})
			continue
		}
		rec.Index = i
		out = append(out, rec)
	}
	return out, errs
}
