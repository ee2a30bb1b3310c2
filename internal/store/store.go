// Package store persists the cleaned datasets in a DuckDB file and runs the
// analytical queries against it.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"
)

// Table names.
const (
	AgricultureTable = "agriculture_production"
	RainfallTable    = "climate_rainfall"

	stagingSuffix = "__staging"
)

// Mode selects how the database file is opened.
type Mode int

const (
	// ReadWrite is used by the ETL job.
	ReadWrite Mode = iota
	// ReadOnly is used by the query layer.
	ReadOnly
)

// CropProduction is one row of agriculture_production.
type CropProduction struct {
	State            string
	District         string
	Crop             string
	Year             int
	Season           string
	AreaHectare      *float64
	ProductionTonnes float64
	SourceURL        string
}

// Rainfall is one row of climate_rainfall.
type Rainfall struct {
	Subdivision string
	Year        int
	Month       string
	RainfallMM  float64
	SourceURL   string
}

// Tables holds the full contents of both tables for one load.
type Tables struct {
	Agriculture []CropProduction
	Rainfall    []Rainfall
}

// Store wraps a DuckDB connection.
type Store struct {
	db     *sql.DB
	path   string
	mode   Mode
	logger *zap.Logger
}

// Open opens the database file at path. ReadOnly requires the file to exist.
func Open(path string, mode Mode) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path cannot be empty")
	}
	dsn := path
	if mode == ReadOnly {
		dsn += "?access_mode=read_only"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}
	// DuckDB allows a single writer per file.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}
	return &Store{db: db, path: path, mode: mode, logger: zap.NewNop()}, nil
}

// WithLogger sets the logger used for load progress.
func (s *Store) WithLogger(l *zap.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func agricultureDDL(name string) string {
	return `CREATE OR REPLACE TABLE ` + name + ` (
		state VARCHAR NOT NULL,
		district VARCHAR NOT NULL,
		crop VARCHAR NOT NULL,
		year INTEGER NOT NULL,
		season VARCHAR,
		area_hectare DOUBLE,
		production_tonnes DOUBLE NOT NULL,
		source_url VARCHAR
	)`
}

func rainfallDDL(name string) string {
	return `CREATE OR REPLACE TABLE ` + name + ` (
		subdivision VARCHAR NOT NULL,
		year INTEGER NOT NULL,
		month VARCHAR NOT NULL,
		rainfall_mm DOUBLE NOT NULL,
		source_url VARCHAR
	)`
}
