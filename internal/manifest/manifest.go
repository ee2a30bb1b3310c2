// Package manifest records the last successful load next to the database
// file so `samarth status` can report where the data came from.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/KaramelBytes/samarth-cli/internal/etl"
	"github.com/KaramelBytes/samarth-cli/internal/utils"
)

const suffix = ".manifest.json"

// Dataset describes where one table's rows came from.
type Dataset struct {
	ResourceID string `json:"resource_id"`
	SourceURL  string `json:"source_url"`
	// Origin is "api" or the local export file the rows were read from.
	Origin  string `json:"origin"`
	Fetched int    `json:"fetched"`
	Rows    int    `json:"rows"`
	Dropped int    `json:"dropped"`
}

// Manifest describes one completed load.
type Manifest struct {
	RunID       string        `json:"run_id"`
	LoadedAt    time.Time     `json:"loaded_at"`
	Took        time.Duration `json:"took"`
	Agriculture Dataset       `json:"agriculture"`
	Climate     Dataset       `json:"climate"`
}

// Path returns the manifest location for a database file.
func Path(dbPath string) string { return dbPath + suffix }

// FromSummary builds a manifest for a finished pipeline run.
func FromSummary(sum *etl.Summary, agri, clim etl.Source, agriOrigin, climOrigin string) *Manifest {
	return &Manifest{
		RunID:    sum.RunID,
		LoadedAt: time.Now().UTC(),
		Took:     sum.Took,
		Agriculture: Dataset{
			ResourceID: agri.ResourceID, SourceURL: agri.SourceURL, Origin: agriOrigin,
			Fetched: sum.Agriculture.Fetched, Rows: sum.Agriculture.Rows, Dropped: sum.Agriculture.Dropped,
		},
		Climate: Dataset{
			ResourceID: clim.ResourceID, SourceURL: clim.SourceURL, Origin: climOrigin,
			Fetched: sum.Climate.Fetched, Rows: sum.Climate.Rows, Dropped: sum.Climate.Dropped,
		},
	}
}

// Save writes the manifest for dbPath atomically.
func (m *Manifest) Save(dbPath string) error {
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(Path(dbPath), data)
}

// Load reads the manifest for dbPath. A missing manifest returns an error
// wrapping fs.ErrNotExist.
func Load(dbPath string) (*Manifest, error) {
	path := Path(dbPath)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
