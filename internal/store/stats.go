package store

import (
	"context"
	"database/sql"
	"fmt"
)

// TableStats summarizes one table for `samarth status`.
type TableStats struct {
	Name    string
	Exists  bool
	Rows    int64
	MinYear int
	MaxYear int
}

// Stats reports row counts and year ranges of both tables. Missing tables are
// reported with Exists=false rather than as an error.
func (s *Store) Stats(ctx context.Context) ([]TableStats, error) {
	out := make([]TableStats, 0, 2)
	for _, name := range []string{AgricultureTable, RainfallTable} {
		st := TableStats{Name: name}
		var n int64
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`, name).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", name, err)
		}
		if n == 0 {
			out = append(out, st)
			continue
		}
		st.Exists = true
		var lo, hi sql.NullInt64
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(year), MAX(year) FROM `+name).Scan(&st.Rows, &lo, &hi)
		if err != nil {
			return nil, fmt.Errorf("stats %s: %w", name, err)
		}
		st.MinYear = int(lo.Int64)
		st.MaxYear = int(hi.Int64)
		out = append(out, st)
	}
	return out, nil
}
