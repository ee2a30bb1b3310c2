package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samarth-cli/internal/datagov"
	"github.com/KaramelBytes/samarth-cli/internal/etl"
	"github.com/KaramelBytes/samarth-cli/internal/manifest"
	"github.com/KaramelBytes/samarth-cli/internal/parser"
	"github.com/KaramelBytes/samarth-cli/internal/store"
	"github.com/KaramelBytes/samarth-cli/internal/utils"
)

var (
	etlAgriLimit    int
	etlClimateLimit int
	etlDefectsFile  string
	etlDryRun       bool
	etlBaseURL      string
	etlAgriFile     string
	etlClimateFile  string
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Fetch both datasets from data.gov.in and rebuild the local database",
	Long: `Fetches the crop production and sub-divisional rainfall resources, cleans
them, and atomically replaces both tables in the DuckDB file. Existing tables
are left untouched if any step fails.`,
	Example: `  samarth etl
  samarth etl --agri-limit 1000 --climate-limit 500 --dry-run
  samarth etl --defects defects.json
  samarth etl --agri-file crop_production.csv --climate-file rainfall.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		local := etlAgriFile != "" || etlClimateFile != ""
		if local && (etlAgriFile == "" || etlClimateFile == "") {
			return fmt.Errorf("--agri-file and --climate-file must be given together")
		}
		if !local && c.DataGovAPIKey == "" {
			return fmt.Errorf("data.gov.in API key missing: set DATA_GOV_API_KEY or 'samarth config set data_gov_api_key ...'")
		}
		agri := etl.Source{ResourceID: c.Agriculture.ResourceID, SourceURL: c.Agriculture.SourceURL, Limit: c.Agriculture.Limit}
		clim := etl.Source{ResourceID: c.Climate.ResourceID, SourceURL: c.Climate.SourceURL, Limit: c.Climate.Limit}
		if cmd.Flags().Changed("agri-limit") {
			agri.Limit = etlAgriLimit
		}
		if cmd.Flags().Changed("climate-limit") {
			clim.Limit = etlClimateLimit
		}
		base := c.DataGovBaseURL
		if etlBaseURL != "" {
			base = etlBaseURL
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p := &etl.Pipeline{
			Agriculture: agri,
			Climate:     clim,
			Logger:      logger,
		}
		agriOrigin, climOrigin := "api", "api"
		if local {
			p.Fetcher = parser.Files{agri.ResourceID: etlAgriFile, clim.ResourceID: etlClimateFile}
			agriOrigin, climOrigin = etlAgriFile, etlClimateFile
		} else {
			p.Fetcher = datagov.NewClientWithBaseURL(c.DataGovAPIKey, time.Duration(c.FetchTimeoutSec)*time.Second, base, logger)
		}
		if !etlDryRun {
			if err := utils.EnsureDir(c.DBPath); err != nil {
				return err
			}
			st, err := store.Open(c.DBPath, store.ReadWrite)
			if err != nil {
				return err
			}
			defer st.Close()
			p.Loader = st.WithLogger(logger)
		}

		sum, err := p.Run(ctx)
		if err != nil {
			return fmt.Errorf("etl failed, existing tables unchanged: %w", err)
		}
		if sum.Loaded {
			m := manifest.FromSummary(sum, agri, clim, agriOrigin, climOrigin)
			if err := m.Save(c.DBPath); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: could not write load manifest: %v\n", err)
			}
		}
		return reportETL(cmd, sum, c.DBPath)
	},
}

func reportETL(cmd *cobra.Command, sum *etl.Summary, db string) error {
	out := cmd.OutOrStdout()
	renderTable(out, []string{"dataset", "fetched", "rows", "dropped"}, [][]string{
		{etl.DatasetAgriculture, fmt.Sprint(sum.Agriculture.Fetched), fmt.Sprint(sum.Agriculture.Rows), fmt.Sprint(sum.Agriculture.Dropped)},
		{etl.DatasetClimate, fmt.Sprint(sum.Climate.Fetched), fmt.Sprint(sum.Climate.Rows), fmt.Sprint(sum.Climate.Dropped)},
	})
	if etlDefectsFile != "" {
		data, err := utils.PrettyJSON(sum.Defects)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(etlDefectsFile, data); err != nil {
			return fmt.Errorf("write defects: %w", err)
		}
		fmt.Fprintf(out, "✓ Wrote %d defects to %s\n", len(sum.Defects), etlDefectsFile)
	}
	if sum.Loaded {
		fmt.Fprintf(out, "✓ Loaded %s in %s (run %s)\n", db, sum.Took.Round(time.Millisecond), sum.RunID)
	} else {
		fmt.Fprintf(out, "✓ Dry run finished in %s; database not modified\n", sum.Took.Round(time.Millisecond))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(etlCmd)
	etlCmd.Flags().IntVar(&etlAgriLimit, "agri-limit", 0, "max agriculture records to fetch (overrides config)")
	etlCmd.Flags().IntVar(&etlClimateLimit, "climate-limit", 0, "max rainfall records to fetch (overrides config)")
	etlCmd.Flags().StringVar(&etlDefectsFile, "defects", "", "write dropped-record details as JSON to this file")
	etlCmd.Flags().BoolVar(&etlDryRun, "dry-run", false, "fetch and transform without touching the database")
	etlCmd.Flags().StringVar(&etlBaseURL, "base-url", "", "override the data.gov.in resource base URL")
	etlCmd.Flags().StringVar(&etlAgriFile, "agri-file", "", "read crop production from a local CSV/JSON/XLSX export instead of the API")
	etlCmd.Flags().StringVar(&etlClimateFile, "climate-file", "", "read rainfall from a local CSV/JSON/XLSX export instead of the API")
}
