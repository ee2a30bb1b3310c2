package parser

import (
	"context"
	"encoding/json"
	"fmt"
)

// Files serves local exports in place of the remote API. It maps resource
// ids to file paths.
type Files map[string]string

// Fetch parses the file registered for resourceID and returns at most limit
// records.
func (f Files) Fetch(ctx context.Context, resourceID string, limit int) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := f[resourceID]
	if !ok {
		return nil, fmt.Errorf("no local file for resource %s", resourceID)
	}
	recs, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
