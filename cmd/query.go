package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samarth-cli/internal/store"
	"github.com/KaramelBytes/samarth-cli/internal/tools"
)

var (
	queryJSON        bool
	queryState       string
	queryYear        int
	queryTopM        int
	querySubdivision string
	queryFrom        int
	queryTo          int
	queryCrop        string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the question-answering tools directly, without a language model",
	Example: `  samarth query top-crops --state Punjab --year 2010 --top 5
  samarth query rainfall --subdivision "Haryana Delhi & Chandigarh" --from 2001 --to 2010
  samarth query correlate --crop Rice --state Punjab --subdivision Punjab --from 2000 --to 2014 --json
  samarth query subdivisions --state Maharashtra`,
}

var queryTopCropsCmd = &cobra.Command{
	Use:   "top-crops",
	Short: "Top crops of a state in a year by production (tonnes)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, tools.TopCropsTool, map[string]any{
			"state": queryState, "year": queryYear, "top_m": queryTopM,
		})
	},
}

var queryRainfallCmd = &cobra.Command{
	Use:   "rainfall",
	Short: "Average annual rainfall of a subdivision over a year range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, tools.AvgRainfallTool, map[string]any{
			"subdivision": querySubdivision, "start_year": queryFrom, "end_year": queryTo,
		})
	},
}

var queryCorrelateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Yearly crop production next to yearly rainfall, with a correlation summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, tools.CorrelateTool, map[string]any{
			"crop_name": queryCrop, "state": queryState, "subdivision": querySubdivision,
			"start_year": queryFrom, "end_year": queryTo,
		})
	},
}

var querySubdivisionsCmd = &cobra.Command{
	Use:   "subdivisions",
	Short: "Meteorological subdivisions covering a state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, tools.SubdivisionsTool, map[string]any{"state": queryState})
	},
}

// runTool sends the flags through the same registry the agent uses.
func runTool(cmd *cobra.Command, name string, args map[string]any) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	svc := &tools.Service{DBPath: c.DBPath, Logger: logger}
	res := svc.NewRegistry().Call(cmd.Context(), name, string(raw))
	out := cmd.OutOrStdout()
	switch res.Kind {
	case tools.KindFailure:
		return errors.New(res.Reason)
	case tools.KindNoData:
		fmt.Fprintf(out, "⚠ %s\n", res.Reason)
		return nil
	}
	if queryJSON {
		return writeJSON(out, res.Data)
	}
	return printResult(out, res.Data)
}

func printResult(out io.Writer, data any) error {
	switch v := data.(type) {
	case []store.CropTotal:
		rows := make([][]string, 0, len(v))
		for i, ct := range v {
			rows = append(rows, []string{strconv.Itoa(i + 1), ct.Crop, strconv.FormatInt(ct.TotalProduction, 10)})
		}
		renderTable(out, []string{"#", "crop", "production (tonnes)"}, rows)
		if len(v) > 0 {
			fmt.Fprintf(out, "Source: %s\n", v[0].SourceURL)
		}
	case []*store.RainfallAverage:
		rows := make([][]string, 0, len(v))
		for _, ra := range v {
			rows = append(rows, []string{
				ra.Subdivision,
				fmt.Sprintf("%d-%d", ra.StartYear, ra.EndYear),
				strconv.Itoa(ra.Years),
				formatFloat(ra.AverageMM, 2),
			})
		}
		renderTable(out, []string{"subdivision", "years", "n", "avg annual rainfall (mm)"}, rows)
		if len(v) > 0 && v[0].SourceURL != "" {
			fmt.Fprintf(out, "Source: %s\n", v[0].SourceURL)
		}
	case tools.Correlation:
		printCorrelation(out, v)
	case tools.SubdivisionMatch:
		fmt.Fprintf(out, "%s: %s\n", v.State, strings.Join(v.Subdivisions, "; "))
	default:
		return writeJSON(out, data)
	}
	return nil
}

func printCorrelation(out io.Writer, c tools.Correlation) {
	prod := map[int]float64{}
	rain := map[int]float64{}
	var years []int
	seen := map[int]bool{}
	for _, p := range c.CropProductionTrend {
		prod[p.Year] += p.TotalProduction
		if !seen[p.Year] {
			seen[p.Year] = true
			years = append(years, p.Year)
		}
	}
	for _, r := range c.RainfallTrend {
		rain[r.Year] += r.TotalRainfall
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)
	cell := func(m map[int]float64, y int) string {
		v, ok := m[y]
		if !ok {
			return "-"
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	rows := make([][]string, 0, len(years))
	for _, y := range years {
		rows = append(rows, []string{strconv.Itoa(y), cell(prod, y), cell(rain, y)})
	}
	renderTable(out, []string{"year", "production (tonnes)", "rainfall (mm)"}, rows)
	if c.Summary == nil {
		fmt.Fprintln(out, "Fewer than two years present in both series; no correlation computed.")
	} else if c.Summary.PearsonR == nil {
		fmt.Fprintf(out, "Aligned years: %d; correlation undefined (constant series).\n", c.Summary.AlignedYears)
	} else {
		fmt.Fprintf(out, "Aligned years: %d; Pearson r = %.3f\n", c.Summary.AlignedYears, *c.Summary.PearsonR)
	}
	if len(c.CropProductionTrend) > 0 {
		fmt.Fprintf(out, "Source (production): %s\n", c.CropProductionTrend[0].SourceURL)
	}
	if len(c.RainfallTrend) > 0 {
		fmt.Fprintf(out, "Source (rainfall): %s\n", c.RainfallTrend[0].SourceURL)
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.PersistentFlags().BoolVar(&queryJSON, "json", false, "print the tool payload as JSON")

	queryTopCropsCmd.Flags().StringVar(&queryState, "state", "", "state name (required)")
	queryTopCropsCmd.Flags().IntVar(&queryYear, "year", 0, "crop year (required)")
	queryTopCropsCmd.Flags().IntVar(&queryTopM, "top", 3, "how many crops to list (1-100)")
	_ = queryTopCropsCmd.MarkFlagRequired("state")
	_ = queryTopCropsCmd.MarkFlagRequired("year")

	queryRainfallCmd.Flags().StringVar(&querySubdivision, "subdivision", "", "meteorological subdivision (required)")
	queryRainfallCmd.Flags().IntVar(&queryFrom, "from", 0, "first year (required)")
	queryRainfallCmd.Flags().IntVar(&queryTo, "to", 0, "last year (required)")
	_ = queryRainfallCmd.MarkFlagRequired("subdivision")
	_ = queryRainfallCmd.MarkFlagRequired("from")
	_ = queryRainfallCmd.MarkFlagRequired("to")

	queryCorrelateCmd.Flags().StringVar(&queryCrop, "crop", "", "crop name (required)")
	queryCorrelateCmd.Flags().StringVar(&queryState, "state", "", "state name (required)")
	queryCorrelateCmd.Flags().StringVar(&querySubdivision, "subdivision", "", "meteorological subdivision (required)")
	queryCorrelateCmd.Flags().IntVar(&queryFrom, "from", 0, "first year (required)")
	queryCorrelateCmd.Flags().IntVar(&queryTo, "to", 0, "last year (required)")
	for _, f := range []string{"crop", "state", "subdivision", "from", "to"} {
		_ = queryCorrelateCmd.MarkFlagRequired(f)
	}

	querySubdivisionsCmd.Flags().StringVar(&queryState, "state", "", "state name (required)")
	_ = querySubdivisionsCmd.MarkFlagRequired("state")

	queryCmd.AddCommand(queryTopCropsCmd, queryRainfallCmd, queryCorrelateCmd, querySubdivisionsCmd)
}
