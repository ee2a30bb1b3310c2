package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/samarth-cli/internal/analysis"
	"github.com/KaramelBytes/samarth-cli/internal/store"
	"github.com/KaramelBytes/samarth-cli/internal/subdivision"
)

// Tool names.
const (
	TopCropsTool     = "get_top_crops_by_production"
	AvgRainfallTool  = "get_average_annual_rainfall"
	CorrelateTool    = "correlate_crop_and_climate"
	SubdivisionsTool = "lookup_subdivisions"
)

const defaultTopM = 3

// Service implements the tool handlers. Each call opens its own read-only
// connection to the database file and closes it before returning.
type Service struct {
	DBPath string
	Logger *zap.Logger
}

func (s *Service) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) open() (*store.Store, error) {
	return store.Open(s.DBPath, store.ReadOnly)
}

// NewRegistry returns a registry holding every tool backed by s.
func (s *Service) NewRegistry() *Registry {
	r := NewRegistry()
	s.Register(r)
	return r
}

// Register adds the service's tools to r.
func (s *Service) Register(r *Registry) {
	r.Register(&Definition{
		Name:        TopCropsTool,
		Description: "Finds the top M most produced crops (by volume in tonnes) in a given Indian state for a specific year.",
		Parameters: objectSchema(map[string]any{
			"state": stringProp("State name, e.g. Punjab. Matched case-insensitively."),
			"year":  intProp("Crop year, e.g. 2010."),
			"top_m": map[string]any{"type": "integer", "minimum": 1, "maximum": MaxTopM, "description": "How many crops to return."},
		}, "state", "year", "top_m"),
		Handler: s.TopCrops,
	})
	r.Register(&Definition{
		Name:        AvgRainfallTool,
		Description: "Calculates the average annual rainfall (in mm) for a meteorological subdivision over a range of years.",
		Parameters: objectSchema(map[string]any{
			"subdivision": stringProp("IMD meteorological subdivision, e.g. Vidarbha. Use lookup_subdivisions to map a state."),
			"start_year":  intProp("First year of the range (inclusive)."),
			"end_year":    intProp("Last year of the range (inclusive)."),
		}, "subdivision", "start_year", "end_year"),
		Handler: s.AverageRainfall,
	})
	r.Register(&Definition{
		Name:        CorrelateTool,
		Description: "Returns the yearly production of a crop in a state and the yearly rainfall of a subdivision side by side over a range of years, with a Pearson coefficient over the years present in both.",
		Parameters: objectSchema(map[string]any{
			"crop_name":   stringProp("Crop name, e.g. Rice."),
			"state":       stringProp("State name for the production series."),
			"subdivision": stringProp("Meteorological subdivision for the rainfall series."),
			"start_year":  intProp("First year of the range (inclusive)."),
			"end_year":    intProp("Last year of the range (inclusive)."),
		}, "crop_name", "state", "subdivision", "start_year", "end_year"),
		Handler: s.Correlate,
	})
	r.Register(&Definition{
		Name:        SubdivisionsTool,
		Description: "Lists the IMD meteorological subdivisions that cover an Indian state, as named in the rainfall data.",
		Parameters: objectSchema(map[string]any{
			"state": stringProp("State or union territory name."),
		}, "state"),
		Handler: s.LookupSubdivisions,
	})
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func invalid(tool string, err error) Result {
	return Failuref("Invalid arguments for %s: %v.", tool, err)
}

type topCropsArgs struct {
	State string `json:"state"`
	Year  Int    `json:"year"`
	TopM  Int    `json:"top_m"`
}

// TopCrops handles get_top_crops_by_production.
func (s *Service) TopCrops(ctx context.Context, raw json.RawMessage) Result {
	var a topCropsArgs
	if err := decodeArgs(raw, &a); err != nil {
		return invalid(TopCropsTool, err)
	}
	state, err := ValidateName("state", a.State)
	if err != nil {
		return invalid(TopCropsTool, err)
	}
	year, err := requireInt("year", a.Year)
	if err != nil {
		return invalid(TopCropsTool, err)
	}
	if !a.TopM.Set {
		a.TopM = Int{V: defaultTopM, Set: true}
	}
	topM, err := validateTopM(a.TopM)
	if err != nil {
		return invalid(TopCropsTool, err)
	}
	s.log().Info("tool called", zap.String("tool", TopCropsTool),
		zap.String("state", state), zap.Int("year", year), zap.Int("top_m", topM))

	dbErr := func(err error) Result {
		s.log().Warn("tool query failed", zap.String("tool", TopCropsTool), zap.Error(err))
		return Failuref("An error occurred while running the database query: %v. Check state name spelling or data availability.", err)
	}
	st, err := s.open()
	if err != nil {
		return dbErr(err)
	}
	defer st.Close()
	rows, err := st.TopCrops(ctx, state, year, topM)
	if err != nil {
		return dbErr(err)
	}
	if len(rows) == 0 {
		return NoData(fmt.Sprintf("No production data found for %s in %d.", state, year))
	}
	return Success(rows)
}

type rainfallArgs struct {
	Subdivision string `json:"subdivision"`
	StartYear   Int    `json:"start_year"`
	EndYear     Int    `json:"end_year"`
}

// AverageRainfall handles get_average_annual_rainfall.
func (s *Service) AverageRainfall(ctx context.Context, raw json.RawMessage) Result {
	var a rainfallArgs
	if err := decodeArgs(raw, &a); err != nil {
		return invalid(AvgRainfallTool, err)
	}
	sub, err := ValidateName("subdivision", a.Subdivision)
	if err != nil {
		return invalid(AvgRainfallTool, err)
	}
	start, end, err := validateYearRange(a.StartYear, a.EndYear)
	if err != nil {
		return invalid(AvgRainfallTool, err)
	}
	s.log().Info("tool called", zap.String("tool", AvgRainfallTool),
		zap.String("subdivision", sub), zap.Int("start_year", start), zap.Int("end_year", end))

	st, err := s.open()
	if err != nil {
		return s.queryFailure(AvgRainfallTool, err)
	}
	defer st.Close()
	avg, err := st.AverageAnnualRainfall(ctx, sub, start, end)
	if err != nil {
		return s.queryFailure(AvgRainfallTool, err)
	}
	if avg.AverageMM == nil {
		return NoData(fmt.Sprintf("No rainfall data found for %s between %d and %d.", sub, start, end))
	}
	return Success([]*store.RainfallAverage{avg})
}

func (s *Service) queryFailure(tool string, err error) Result {
	s.log().Warn("tool query failed", zap.String("tool", tool), zap.Error(err))
	return Failuref("Error executing query: %v", err)
}

type correlateArgs struct {
	CropName    string `json:"crop_name"`
	State       string `json:"state"`
	Subdivision string `json:"subdivision"`
	StartYear   Int    `json:"start_year"`
	EndYear     Int    `json:"end_year"`
}

// CorrelationSummary describes the years present in both series.
type CorrelationSummary struct {
	AlignedYears int                 `json:"aligned_years"`
	Years        []int               `json:"years"`
	PearsonR     *float64            `json:"pearson_r,omitempty"`
	Production   analysis.NumSummary `json:"production"`
	Rainfall     analysis.NumSummary `json:"rainfall"`
}

// Correlation is the correlate_crop_and_climate payload.
type Correlation struct {
	*store.ClimateSeries
	Summary *CorrelationSummary `json:"summary,omitempty"`
}

// Correlate handles correlate_crop_and_climate.
func (s *Service) Correlate(ctx context.Context, raw json.RawMessage) Result {
	var a correlateArgs
	if err := decodeArgs(raw, &a); err != nil {
		return invalid(CorrelateTool, err)
	}
	crop, err := ValidateName("crop_name", a.CropName)
	if err != nil {
		return invalid(CorrelateTool, err)
	}
	state, err := ValidateName("state", a.State)
	if err != nil {
		return invalid(CorrelateTool, err)
	}
	sub, err := ValidateName("subdivision", a.Subdivision)
	if err != nil {
		return invalid(CorrelateTool, err)
	}
	start, end, err := validateYearRange(a.StartYear, a.EndYear)
	if err != nil {
		return invalid(CorrelateTool, err)
	}
	s.log().Info("tool called", zap.String("tool", CorrelateTool),
		zap.String("crop", crop), zap.String("state", state), zap.String("subdivision", sub),
		zap.Int("start_year", start), zap.Int("end_year", end))

	st, err := s.open()
	if err != nil {
		return s.queryFailure(CorrelateTool, err)
	}
	defer st.Close()
	series, err := st.CropClimateSeries(ctx, crop, state, sub, start, end)
	if err != nil {
		return s.queryFailure(CorrelateTool, err)
	}
	if len(series.CropProductionTrend) == 0 && len(series.RainfallTrend) == 0 {
		return NoData(fmt.Sprintf("No production or rainfall data found for %s in %s / %s between %d and %d.", crop, state, sub, start, end))
	}
	return Success(Correlation{ClimateSeries: series, Summary: summarize(series)})
}

// summarize aligns the two series by year. It returns nil when fewer than
// two years are present in both.
func summarize(cs *store.ClimateSeries) *CorrelationSummary {
	prod := make([]analysis.YearValue, len(cs.CropProductionTrend))
	for i, p := range cs.CropProductionTrend {
		prod[i] = analysis.YearValue{Year: p.Year, Value: p.TotalProduction}
	}
	rain := make([]analysis.YearValue, len(cs.RainfallTrend))
	for i, r := range cs.RainfallTrend {
		rain[i] = analysis.YearValue{Year: r.Year, Value: r.TotalRainfall}
	}
	xs, ys, years := analysis.AlignByYear(prod, rain)
	if len(years) < 2 {
		return nil
	}
	sum := &CorrelationSummary{
		AlignedYears: len(years),
		Years:        years,
		Production:   analysis.Summarize(xs),
		Rainfall:     analysis.Summarize(ys),
	}
	if r, ok := analysis.Pearson(xs, ys); ok {
		sum.PearsonR = &r
	}
	return sum
}

type subdivisionArgs struct {
	State string `json:"state"`
}

// SubdivisionMatch is the lookup_subdivisions payload.
type SubdivisionMatch struct {
	State        string   `json:"state"`
	Subdivisions []string `json:"subdivisions"`
}

// LookupSubdivisions handles lookup_subdivisions. It does not touch the
// database.
func (s *Service) LookupSubdivisions(_ context.Context, raw json.RawMessage) Result {
	var a subdivisionArgs
	if err := decodeArgs(raw, &a); err != nil {
		return invalid(SubdivisionsTool, err)
	}
	state, err := ValidateName("state", a.State)
	if err != nil {
		return invalid(SubdivisionsTool, err)
	}
	s.log().Info("tool called", zap.String("tool", SubdivisionsTool), zap.String("state", state))
	canonical, subs, ok := subdivision.Lookup(state)
	if !ok {
		return NoData(fmt.Sprintf("No subdivision mapping known for %s. Known states: %s.", state, strings.Join(subdivision.States(), ", ")))
	}
	return Success(SubdivisionMatch{State: canonical, Subdivisions: subs})
}
