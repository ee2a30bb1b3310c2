package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// insertBatch is the number of rows bound per INSERT statement.
const insertBatch = 200

// sqlExecutor is satisfied by both *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// ReplaceTables replaces the contents of both tables. Rows are first written
// to staging tables; the live tables are then swapped in a single
// transaction, so readers see either the previous generation or the new one.
func (s *Store) ReplaceTables(ctx context.Context, t Tables) error {
	if s.mode == ReadOnly {
		return errors.New("store opened read-only")
	}
	start := time.Now()
	agriStage := AgricultureTable + stagingSuffix
	rainStage := RainfallTable + stagingSuffix

	if err := s.stage(ctx, t, agriStage, rainStage); err != nil {
		s.dropStaging(agriStage, rainStage)
		return err
	}
	if err := s.swap(ctx, []string{AgricultureTable, RainfallTable}, []string{agriStage, rainStage}); err != nil {
		s.dropStaging(agriStage, rainStage)
		return err
	}
	s.logger.Info("tables replaced",
		zap.Int(AgricultureTable, len(t.Agriculture)),
		zap.Int(RainfallTable, len(t.Rainfall)),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Store) stage(ctx context.Context, t Tables, agriStage, rainStage string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staging: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, agricultureDDL(agriStage)); err != nil {
		return fmt.Errorf("create %s: %w", agriStage, err)
	}
	if _, err := tx.ExecContext(ctx, rainfallDDL(rainStage)); err != nil {
		return fmt.Errorf("create %s: %w", rainStage, err)
	}

	agriCols := []string{"state", "district", "crop", "year", "season", "area_hectare", "production_tonnes", "source_url"}
	err = insertRows(ctx, tx, agriStage, agriCols, len(t.Agriculture), func(i int) []any {
		r := t.Agriculture[i]
		var area any
		if r.AreaHectare != nil {
			area = *r.AreaHectare
		}
		return []any{r.State, r.District, r.Crop, r.Year, r.Season, area, r.ProductionTonnes, r.SourceURL}
	})
	if err != nil {
		return err
	}
	s.logger.Debug("staged rows", zap.String("table", agriStage), zap.Int("rows", len(t.Agriculture)))

	rainCols := []string{"subdivision", "year", "month", "rainfall_mm", "source_url"}
	err = insertRows(ctx, tx, rainStage, rainCols, len(t.Rainfall), func(i int) []any {
		r := t.Rainfall[i]
		return []any{r.Subdivision, r.Year, r.Month, r.RainfallMM, r.SourceURL}
	})
	if err != nil {
		return err
	}
	s.logger.Debug("staged rows", zap.String("table", rainStage), zap.Int("rows", len(t.Rainfall)))

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staging: %w", err)
	}
	return nil
}

func (s *Store) swap(ctx context.Context, live, staged []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap: %w", err)
	}
	defer tx.Rollback()
	for i := range live {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+live[i]); err != nil {
			return fmt.Errorf("drop %s: %w", live[i], err)
		}
		if _, err := tx.ExecContext(ctx, `ALTER TABLE `+staged[i]+` RENAME TO `+live[i]); err != nil {
			return fmt.Errorf("rename %s: %w", staged[i], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap: %w", err)
	}
	return nil
}

func (s *Store) dropStaging(names ...string) {
	// The request context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, n := range names {
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+n); err != nil {
			s.logger.Warn("drop staging table", zap.String("table", n), zap.Error(err))
		}
	}
}

// insertRows writes n rows in batches through prepared multi-row INSERTs.
// All values are bound; row(i) must return len(cols) values.
func insertRows(ctx context.Context, exec sqlExecutor, table string, cols []string, n int, row func(i int) []any) error {
	if n == 0 {
		return nil
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	prefix := `INSERT INTO ` + table + ` (` + strings.Join(cols, ", ") + `) VALUES `

	var full *sql.Stmt
	defer func() {
		if full != nil {
			full.Close()
		}
	}()
	args := make([]any, 0, insertBatch*len(cols))
	for lo := 0; lo < n; lo += insertBatch {
		hi := min(lo+insertBatch, n)
		args = args[:0]
		for i := lo; i < hi; i++ {
			args = append(args, row(i)...)
		}
		size := hi - lo
		if size == insertBatch {
			if full == nil {
				stmt, err := exec.PrepareContext(ctx, prefix+repeatJoin(placeholder, insertBatch))
				if err != nil {
					return fmt.Errorf("prepare insert %s: %w", table, err)
				}
				full = stmt
			}
			if _, err := full.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s rows %d-%d: %w", table, lo, hi-1, err)
			}
			continue
		}
		if _, err := exec.ExecContext(ctx, prefix+repeatJoin(placeholder, size), args...); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", table, lo, hi-1, err)
		}
	}
	return nil
}

func repeatJoin(s string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s)
	}
	return b.String()
}
