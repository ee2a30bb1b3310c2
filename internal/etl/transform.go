// Package etl turns raw data.gov.in records into the cleaned rows stored by
// internal/store.
package etl

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/samarth-cli/internal/datagov"
	"github.com/KaramelBytes/samarth-cli/internal/store"
)

// Dataset names used in defects and summaries.
const (
	DatasetAgriculture = "agriculture"
	DatasetClimate     = "climate"
)

// Defect describes a raw record (or one melted month of it) that was dropped.
type Defect struct {
	Dataset string `json:"dataset"`
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Reason  string `json:"reason"`
}

const (
	reasonMissing     = "missing"
	reasonNotNumeric  = "not numeric"
	reasonUndecodable = "undecodable record"
	reasonOutOfRange  = "out of range"
)

// Accepted calendar years; anything else cannot be a crop or rainfall year
// and would not fit the INTEGER year column.
const (
	minYear = 1
	maxYear = 9999
)

func newTitler() cases.Caser { return cases.Title(language.English) }

// normalizeName trims and title-cases a name.
func normalizeName(c cases.Caser, s string) string {
	return c.String(strings.TrimSpace(s))
}

// requireYear parses v as a year, truncating fractions.
func requireYear(dataset string, idx int, field string, v datagov.Value) (int, *Defect) {
	f, d := requireNumber(dataset, idx, field, v)
	if d != nil {
		return 0, d
	}
	f = math.Trunc(f)
	if f < minYear || f > maxYear {
		return 0, &Defect{Dataset: dataset, Index: idx, Field: field, Value: v.String(), Reason: reasonOutOfRange}
	}
	return int(f), nil
}

// requireText returns the trimmed text of v, or a defect when it is null or
// blank.
func requireText(dataset string, idx int, field string, v datagov.Value) (string, *Defect) {
	s := strings.TrimSpace(v.String())
	if v.IsNull() || s == "" {
		return "", &Defect{Dataset: dataset, Index: idx, Field: field, Reason: reasonMissing}
	}
	return s, nil
}

// requireNumber parses v as a number, or returns a defect.
func requireNumber(dataset string, idx int, field string, v datagov.Value) (float64, *Defect) {
	if v.IsNull() || strings.TrimSpace(v.String()) == "" {
		return 0, &Defect{Dataset: dataset, Index: idx, Field: field, Reason: reasonMissing}
	}
	f, ok := v.Float()
	if !ok {
		return 0, &Defect{Dataset: dataset, Index: idx, Field: field, Value: v.String(), Reason: reasonNotNumeric}
	}
	return f, nil
}

// TransformAgriculture cleans crop production records. Rows missing year,
// production, state, district or crop are dropped and reported.
func TransformAgriculture(recs []datagov.AgricultureRecord, sourceURL string) ([]store.CropProduction, []Defect) {
	out := make([]store.CropProduction, 0, len(recs))
	var defects []Defect
	titler := newTitler()
	for _, r := range recs {
		year, d := requireYear(DatasetAgriculture, r.Index, "crop_year", r.CropYear)
		if d != nil {
			defects = append(defects, *d)
			continue
		}
		prod, d := requireNumber(DatasetAgriculture, r.Index, "production_", r.Production)
		if d != nil {
			defects = append(defects, *d)
			continue
		}
		state, d := requireText(DatasetAgriculture, r.Index, "state_name", r.StateName)
		if d != nil {
			defects = append(defects, *d)
			continue
		}
		district, d := requireText(DatasetAgriculture, r.Index, "district_name", r.DistrictName)
		if d != nil {
			defects = append(defects, *d)
			continue
		}
		crop, d := requireText(DatasetAgriculture, r.Index, "crop", r.Crop)
		if d != nil {
			defects = append(defects, *d)
			continue
		}

		row := store.CropProduction{
			State:            normalizeName(titler, state),
			District:         normalizeName(titler, district),
			Crop:             normalizeName(titler, crop),
			Year:             year,
			Season:           strings.TrimSpace(r.Season.String()),
			ProductionTonnes: prod,
			SourceURL:        sourceURL,
		}
		if area, ok := r.Area.Float(); ok {
			row.AreaHectare = &area
		}
		out = append(out, row)
	}
	return out, defects
}

// TransformClimate melts the wide monthly rainfall records into one row per
// (subdivision, year, month). Months without a numeric value are dropped and
// reported individually; a record without a year or subdivision drops all of
// its months.
func TransformClimate(recs []datagov.RainfallRecord, sourceURL string) ([]store.Rainfall, []Defect) {
	out := make([]store.Rainfall, 0, len(recs)*len(datagov.Months))
	var defects []Defect
	titler := newTitler()
	for _, r := range recs {
		y, d := requireYear(DatasetClimate, r.Index, "year", r.Year)
		if d != nil {
			defects = append(defects, *d)
			continue
		}
		sub, d := requireText(DatasetClimate, r.Index, "subdivision", r.Subdivision)
		if d != nil {
			defects = append(defects, *d)
			continue
		}
		sub = normalizeName(titler, sub)
		for i, month := range datagov.Months {
			mm, d := requireNumber(DatasetClimate, r.Index, month, r.Months[i])
			if d != nil {
				defects = append(defects, *d)
				continue
			}
			out = append(out, store.Rainfall{
				Subdivision: sub,
				Year:        y,
				Month:       month,
				RainfallMM:  mm,
				SourceURL:   sourceURL,
			})
		}
	}
	return out, defects
}

// decodeDefects converts decode failures into defects.
func decodeDefects(dataset string, errs []datagov.DecodeError) []Defect {
	out := make([]Defect, 0, len(errs))
	for _, e := range errs {
		out = append(out, Defect{Dataset: dataset, Index: e.Index, Reason: reasonUndecodable + ": " + e.Err.Error()})
	}
	return out
}
