package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samarth-cli/internal/manifest"
	"github.com/KaramelBytes/samarth-cli/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show loaded tables, row counts and year ranges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if _, err := os.Stat(c.DBPath); errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(out, "⚠ No database at %s. Run 'samarth etl' to create it.\n", c.DBPath)
			return nil
		}
		st, err := store.Open(c.DBPath, store.ReadOnly)
		if err != nil {
			return err
		}
		defer st.Close()
		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(stats))
		for _, ts := range stats {
			if !ts.Exists {
				rows = append(rows, []string{ts.Name, "missing", "-", "-"})
				continue
			}
			years := "-"
			if ts.Rows > 0 {
				years = fmt.Sprintf("%d-%d", ts.MinYear, ts.MaxYear)
			}
			rows = append(rows, []string{ts.Name, "loaded", fmt.Sprint(ts.Rows), years})
		}
		fmt.Fprintf(out, "Database: %s\n", st.Path())
		renderTable(out, []string{"table", "state", "rows", "years"}, rows)
		m, err := manifest.Load(c.DBPath)
		switch {
		case err == nil:
			fmt.Fprintf(out, "Last load: %s (run %s)\n", m.LoadedAt.Local().Format("2006-01-02 15:04:05"), m.RunID)
			for _, d := range []struct {
				name string
				ds   manifest.Dataset
			}{{"agriculture", m.Agriculture}, {"climate", m.Climate}} {
				fmt.Fprintf(out, "  %s: %s (%d rows, %d dropped) from %s\n", d.name, d.ds.SourceURL, d.ds.Rows, d.ds.Dropped, d.ds.Origin)
			}
		case !errors.Is(err, fs.ErrNotExist):
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
