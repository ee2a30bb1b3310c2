package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetCommandState clears sticky flag values and cached config between runs.
func resetCommandState() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		reset := func(fl *pflag.Flag) {
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
	cfg = nil
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommandState()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// isolate points HOME at a temp dir and clears credentials from the environment.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"DATA_GOV_API_KEY", "SAMARTH_DATA_GOV_API_KEY",
		"OPENAI_API_KEY", "OPENROUTER_API_KEY", "SAMARTH_API_KEY",
		"OLLAMA_HOST", "SAMARTH_OLLAMA_HOST", "SAMARTH_MODELS_FILE",
	} {
		t.Setenv(k, "")
	}
	return home
}

type ipv4Server struct {
	URL string
	srv *http.Server
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	s := &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv}
	t.Cleanup(func() { _ = s.srv.Close() })
	return s
}

const agriPage = `{"records":[
 {"state_name":"Punjab","district_name":"Ludhiana","crop_year":"2010","season":"Kharif     ","crop":"Rice","area_":"100","production_":"500"},
 {"state_name":"Punjab","district_name":"Amritsar","crop_year":"2010","season":"Kharif","crop":"Rice","area_":"80","production_":"301"},
 {"state_name":"PUNJAB","district_name":"Amritsar","crop_year":"2010","season":"Rabi","crop":"wheat","area_":"90","production_":"700"},
 {"state_name":"Punjab","district_name":"Patiala","crop_year":"2010","season":"Kharif","crop":"Maize","area_":null,"production_":"50"},
 {"state_name":"Punjab","district_name":"Patiala","crop_year":"2010","season":"Kharif","crop":"Bajra","area_":"5","production_":"="}
]}`

const rainPage = `{"records":[
 {"subdivision":"PUNJAB","year":"2010","jan":"10","feb":"10","mar":"10","apr":"10","may":"10","jun":"10","jul":"10","aug":"10","sep":"10","oct":"10","nov":"10","dec":"10","annual":"120"},
 {"subdivision":"PUNJAB","year":"2011","jan":"12","feb":"12","mar":"12","apr":"12","may":"12","jun":"12","jul":"12","aug":"12","sep":"12","oct":"12","nov":"12","dec":"12"}
]}`

func dataGovServer(t *testing.T, failClimate *atomic.Bool) *ipv4Server {
	t.Helper()
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api-key") != "test-key" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/agri":
			_, _ = w.Write([]byte(agriPage))
		case "/rain":
			if failClimate != nil && failClimate.Load() {
				http.Error(w, "upstream down", http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(rainPage))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCLI_ETL_Status_Query(t *testing.T) {
	home := isolate(t)
	t.Setenv("DATA_GOV_API_KEY", "test-key")
	t.Setenv("SAMARTH_AGRICULTURE_RESOURCE_ID", "agri")
	t.Setenv("SAMARTH_CLIMATE_RESOURCE_ID", "rain")
	var fail atomic.Bool
	srv := dataGovServer(t, &fail)
	db := filepath.Join(home, "data", "samarth.db")
	defects := filepath.Join(home, "defects.json")

	out := mustRun(t, "etl", "--db", db, "--base-url", srv.URL, "--defects", defects)
	if !strings.Contains(out, "✓ Loaded") {
		t.Fatalf("expected load confirmation, got:\n%s", out)
	}
	b, err := os.ReadFile(defects)
	if err != nil {
		t.Fatalf("read defects: %v", err)
	}
	if !strings.Contains(string(b), `"field": "production_"`) {
		t.Fatalf("expected production defect, got %s", b)
	}

	out = mustRun(t, "status", "--db", db)
	if !strings.Contains(out, "agriculture_production") || !strings.Contains(out, "2010-2011") {
		t.Fatalf("unexpected status output:\n%s", out)
	}
	if !strings.Contains(out, "Last load:") || !strings.Contains(out, "from api") {
		t.Fatalf("expected load manifest in status:\n%s", out)
	}

	out = mustRun(t, "query", "top-crops", "--db", db, "--state", "punjab", "--year", "2010", "--json")
	rice := strings.Index(out, `"Rice"`)
	wheat := strings.Index(out, `"Wheat"`)
	if rice < 0 || wheat < 0 || rice > wheat {
		t.Fatalf("expected Rice (801) before Wheat (700):\n%s", out)
	}
	if !strings.Contains(out, `"total_production": 801`) {
		t.Fatalf("expected summed rice production:\n%s", out)
	}

	out = mustRun(t, "query", "rainfall", "--db", db, "--subdivision", "Punjab", "--from", "2010", "--to", "2011")
	if !strings.Contains(out, "132.00") {
		t.Fatalf("expected average of 120 and 144:\n%s", out)
	}

	out = mustRun(t, "query", "top-crops", "--db", db, "--state", "Kerala", "--year", "2010")
	if !strings.Contains(out, "No production data found for Kerala in 2010.") {
		t.Fatalf("expected no-data sentence:\n%s", out)
	}

	// A failing refresh must leave the previous tables in place.
	fail.Store(true)
	if _, err := runCmd(t, "etl", "--db", db, "--base-url", srv.URL); err == nil {
		t.Fatalf("expected etl failure when climate fetch fails")
	}
	out = mustRun(t, "query", "top-crops", "--db", db, "--state", "Punjab", "--year", "2010", "--top", "1", "--json")
	if !strings.Contains(out, `"Rice"`) || strings.Contains(out, `"Wheat"`) {
		t.Fatalf("expected previous data, top 1 only:\n%s", out)
	}
}

func TestCLI_ETL_DryRunLeavesNoDatabase(t *testing.T) {
	home := isolate(t)
	t.Setenv("DATA_GOV_API_KEY", "test-key")
	t.Setenv("SAMARTH_AGRICULTURE_RESOURCE_ID", "agri")
	t.Setenv("SAMARTH_CLIMATE_RESOURCE_ID", "rain")
	srv := dataGovServer(t, nil)
	db := filepath.Join(home, "dry.db")

	out := mustRun(t, "etl", "--db", db, "--base-url", srv.URL, "--dry-run")
	if !strings.Contains(out, "Dry run") {
		t.Fatalf("expected dry-run notice:\n%s", out)
	}
	if _, err := os.Stat(db); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create %s (stat err=%v)", db, err)
	}
}

func TestCLI_ETL_FromLocalFiles(t *testing.T) {
	home := isolate(t)
	agri := filepath.Join(home, "crops.csv")
	rain := filepath.Join(home, "rain.json")
	csv := "State_Name,District_Name,Crop_Year,Season,Crop,Area,Production\n" +
		"Kerala,Kollam,2005,Whole Year,Coconut,10,900\n" +
		"Kerala,Kollam,2005,Kharif,Rice,5,300\n"
	if err := os.WriteFile(agri, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rain, []byte(rainPage), 0o644); err != nil {
		t.Fatal(err)
	}
	db := filepath.Join(home, "local.db")

	if _, err := runCmd(t, "etl", "--db", db, "--agri-file", agri); err == nil {
		t.Fatalf("expected error when only one local file is given")
	}
	mustRun(t, "etl", "--db", db, "--agri-file", agri, "--climate-file", rain)
	out := mustRun(t, "query", "top-crops", "--db", db, "--state", "Kerala", "--year", "2005")
	if !strings.Contains(out, "Coconut") || !strings.Contains(out, "900") {
		t.Fatalf("unexpected top crops:\n%s", out)
	}
	out = mustRun(t, "status", "--db", db)
	if !strings.Contains(out, agri) {
		t.Fatalf("expected local origin in status:\n%s", out)
	}
}

func TestCLI_ETL_RequiresAPIKey(t *testing.T) {
	home := isolate(t)
	_, err := runCmd(t, "etl", "--db", filepath.Join(home, "x.db"))
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected missing API key error, got %v", err)
	}
}

func TestCLI_StatusWithoutDatabase(t *testing.T) {
	home := isolate(t)
	out := mustRun(t, "status", "--db", filepath.Join(home, "missing.db"))
	if !strings.Contains(out, "No database") {
		t.Fatalf("expected hint, got:\n%s", out)
	}
}

func TestCLI_QuerySubdivisions(t *testing.T) {
	isolate(t)
	out := mustRun(t, "query", "subdivisions", "--state", "maharashtra")
	if !strings.Contains(out, "Maharashtra:") || !strings.Contains(out, "Vidarbha") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := runCmd(t, "query", "subdivisions", "--state", "  "); err == nil {
		t.Fatalf("expected invalid argument error for blank state")
	}
}

func TestCLI_QueryMissingDatabaseFails(t *testing.T) {
	home := isolate(t)
	_, err := runCmd(t, "query", "rainfall", "--db", filepath.Join(home, "none.db"),
		"--subdivision", "Punjab", "--from", "2000", "--to", "2001")
	if err == nil || !strings.Contains(err.Error(), "Error executing query") {
		t.Fatalf("expected query failure, got %v", err)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	isolate(t)
	mustRun(t, "config", "set", "default_provider", "local")
	mustRun(t, "config", "set", "data_gov_api_key", "abcdefghijkl")
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "default_provider: ollama") {
		t.Fatalf("expected normalized provider:\n%s", out)
	}
	if !strings.Contains(out, "data_gov_api_key: abc****jkl") {
		t.Fatalf("expected masked key:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if _, err := runCmd(t, "config", "set", "max_tool_rounds", "0"); err == nil {
		t.Fatalf("expected invalid int error")
	}
}

func TestCLI_AskRequiresDatabase(t *testing.T) {
	home := isolate(t)
	_, err := runCmd(t, "ask", "--db", filepath.Join(home, "none.db"), "top crops in Punjab 2010?")
	if err == nil || !strings.Contains(err.Error(), "samarth etl") {
		t.Fatalf("expected etl hint, got %v", err)
	}
}

func TestCLI_ModelsShow(t *testing.T) {
	isolate(t)
	out := mustRun(t, "models", "show")
	if !strings.Contains(out, "gpt-4o-mini") || !strings.Contains(strings.ToLower(out), "tools") {
		t.Fatalf("unexpected catalog table:\n%s", out)
	}
}
