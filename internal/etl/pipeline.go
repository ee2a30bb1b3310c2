package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/samarth-cli/internal/datagov"
	"github.com/KaramelBytes/samarth-cli/internal/store"
)

// Fetcher retrieves raw records of one remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, resourceID string, limit int) ([]json.RawMessage, error)
}

// Loader replaces the persisted tables.
type Loader interface {
	ReplaceTables(ctx context.Context, t store.Tables) error
}

// Source identifies one remote dataset.
type Source struct {
	ResourceID string
	SourceURL  string
	Limit      int
}

// Pipeline fetches both datasets, transforms them and loads them together.
type Pipeline struct {
	Fetcher     Fetcher
	Loader      Loader
	Agriculture Source
	Climate     Source
	Logger      *zap.Logger
}

// DatasetSummary counts one dataset through the pipeline.
type DatasetSummary struct {
	Fetched int `json:"fetched"`
	Rows    int `json:"rows"`
	Dropped int `json:"dropped"`
}

// Summary reports a pipeline run.
type Summary struct {
	RunID       string         `json:"run_id"`
	Agriculture DatasetSummary `json:"agriculture"`
	Climate     DatasetSummary `json:"climate"`
	Defects     []Defect       `json:"defects,omitempty"`
	Loaded      bool           `json:"loaded"`
	Took        time.Duration  `json:"took"`
}

// Run executes fetch, transform and load. Any fetch error aborts the run
// before anything is loaded. With a nil Loader the tables are built but not
// persisted.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if p.Fetcher == nil {
		return nil, errors.New("pipeline has no fetcher")
	}
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	sum := &Summary{RunID: uuid.New().String()}
	log = log.With(zap.String("run_id", sum.RunID))

	agriRaw, err := p.Fetcher.Fetch(ctx, p.Agriculture.ResourceID, p.Agriculture.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", DatasetAgriculture, err)
	}
	climRaw, err := p.Fetcher.Fetch(ctx, p.Climate.ResourceID, p.Climate.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", DatasetClimate, err)
	}
	sum.Agriculture.Fetched = len(agriRaw)
	sum.Climate.Fetched = len(climRaw)

	agriRecs, agriErrs := datagov.DecodeAgriculture(agriRaw)
	agriRows, agriDefects := TransformAgriculture(agriRecs, p.Agriculture.SourceURL)
	agriDefects = append(decodeDefects(DatasetAgriculture, agriErrs), agriDefects...)

	climRecs, climErrs := datagov.DecodeRainfall(climRaw)
	climRows, climDefects := TransformClimate(climRecs, p.Climate.SourceURL)
	climDefects = append(decodeDefects(DatasetClimate, climErrs), climDefects...)

	sum.Agriculture.Rows = len(agriRows)
	sum.Agriculture.Dropped = len(agriDefects)
	sum.Climate.Rows = len(climRows)
	sum.Climate.Dropped = len(climDefects)
	sum.Defects = append(agriDefects, climDefects...)
	log.Info("transformed datasets",
		zap.Int("agriculture_rows", len(agriRows)),
		zap.Int("agriculture_dropped", len(agriDefects)),
		zap.Int("climate_rows", len(climRows)),
		zap.Int("climate_dropped", len(climDefects)))

	if p.Loader != nil {
		if err := p.Loader.ReplaceTables(ctx, store.Tables{Agriculture: agriRows, Rainfall: climRows}); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		sum.Loaded = true
	}
	sum.Took = time.Since(start)
	log.Info("pipeline finished", zap.Bool("loaded", sum.Loaded), zap.Duration("took", sum.Took))
	return sum, nil
}
