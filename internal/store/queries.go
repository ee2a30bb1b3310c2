package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CropTotal is one crop's production total for a state and year.
type CropTotal struct {
	Crop            string `json:"crop"`
	TotalProduction int64  `json:"total_production"`
	SourceURL       string `json:"source_url"`
}

// RainfallAverage is the mean of the annual rainfall totals of a subdivision
// over a year range. AverageMM is nil when no year matched.
type RainfallAverage struct {
	Subdivision string   `json:"subdivision"`
	StartYear   int      `json:"start_year"`
	EndYear     int      `json:"end_year"`
	AverageMM   *float64 `json:"average_annual_rainfall"`
	Years       int      `json:"years"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// YearlyProduction is one point of a crop production series.
type YearlyProduction struct {
	Year            int     `json:"year"`
	TotalProduction float64 `json:"total_production"`
	SourceURL       string  `json:"source_url"`
}

// YearlyRainfall is one point of an annual rainfall series.
type YearlyRainfall struct {
	Year          int     `json:"year"`
	TotalRainfall float64 `json:"total_annual_rainfall"`
	SourceURL     string  `json:"source_url"`
}

// ClimateSeries holds the two yearly series side by side, unmerged.
type ClimateSeries struct {
	CropProductionTrend []YearlyProduction `json:"crop_production_trend"`
	RainfallTrend       []YearlyRainfall   `json:"rainfall_trend"`
}

const topCropsSQL = `
SELECT
	crop,
	CAST(trunc(SUM(production_tonnes)) AS BIGINT) AS total_production,
	ANY_VALUE(source_url) AS source_url
FROM agriculture_production
WHERE state ILIKE ? AND year = ?
GROUP BY crop
ORDER BY total_production DESC, crop
LIMIT ?`

// TopCrops returns the topM crops of a state in a year by total production,
// highest first. state is matched case-insensitively.
func (s *Store) TopCrops(ctx context.Context, state string, year, topM int) ([]CropTotal, error) {
	rows, err := s.db.QueryContext(ctx, topCropsSQL, state, year, topM)
	if err != nil {
		return nil, fmt.Errorf("top crops: %w", err)
	}
	defer rows.Close()

	var out []CropTotal
	for rows.Next() {
		var (
			c   CropTotal
			src sql.NullString
		)
		if err := rows.Scan(&c.Crop, &c.TotalProduction, &src); err != nil {
			return nil, fmt.Errorf("scan top crops: %w", err)
		}
		c.SourceURL = src.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top crops: %w", err)
	}
	return out, nil
}

const averageRainfallSQL = `
WITH annual AS (
	SELECT year, SUM(rainfall_mm) AS total, ANY_VALUE(source_url) AS source_url
	FROM climate_rainfall
	WHERE subdivision ILIKE ? AND year BETWEEN ? AND ?
	GROUP BY year
)
SELECT AVG(total), ANY_VALUE(source_url), COUNT(*) FROM annual`

// AverageAnnualRainfall averages the per-year rainfall totals of a
// subdivision over [start, end].
func (s *Store) AverageAnnualRainfall(ctx context.Context, subdivision string, start, end int) (*RainfallAverage, error) {
	var (
		avg   sql.NullFloat64
		src   sql.NullString
		years int64
	)
	err := s.db.QueryRowContext(ctx, averageRainfallSQL, subdivision, start, end).Scan(&avg, &src, &years)
	if err != nil {
		return nil, fmt.Errorf("average rainfall: %w", err)
	}
	out := &RainfallAverage{
		Subdivision: subdivision,
		StartYear:   start,
		EndYear:     end,
		Years:       int(years),
		SourceURL:   src.String,
	}
	if avg.Valid {
		v := avg.Float64
		out.AverageMM = &v
	}
	return out, nil
}

const productionSeriesSQL = `
SELECT year, SUM(production_tonnes), ANY_VALUE(source_url)
FROM agriculture_production
WHERE crop ILIKE ? AND state ILIKE ? AND year BETWEEN ? AND ?
GROUP BY year
ORDER BY year`

const rainfallSeriesSQL = `
SELECT year, SUM(rainfall_mm), ANY_VALUE(source_url)
FROM climate_rainfall
WHERE subdivision ILIKE ? AND year BETWEEN ? AND ?
GROUP BY year
ORDER BY year`

// CropClimateSeries returns the yearly production of a crop in a state and
// the yearly rainfall of a subdivision over [start, end].
func (s *Store) CropClimateSeries(ctx context.Context, crop, state, subdivision string, start, end int) (*ClimateSeries, error) {
	out := &ClimateSeries{
		CropProductionTrend: []YearlyProduction{},
		RainfallTrend:       []YearlyRainfall{},
	}

	rows, err := s.db.QueryContext(ctx, productionSeriesSQL, crop, state, start, end)
	if err != nil {
		return nil, fmt.Errorf("production series: %w", err)
	}
	for rows.Next() {
		var (
			p   YearlyProduction
			src sql.NullString
		)
		if err := rows.Scan(&p.Year, &p.TotalProduction, &src); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan production series: %w", err)
		}
		p.SourceURL = src.String
		out.CropProductionTrend = append(out.CropProductionTrend, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("production series: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, rainfallSeriesSQL, subdivision, start, end)
	if err != nil {
		return nil, fmt.Errorf("rainfall series: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r   YearlyRainfall
			src sql.NullString
		)
		if err := rows.Scan(&r.Year, &r.TotalRainfall, &src); err != nil {
			return nil, fmt.Errorf("scan rainfall series: %w", err)
		}
		r.SourceURL = src.String
		out.RainfallTrend = append(out.RainfallTrend, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rainfall series: %w", err)
	}
	return out, nil
}
