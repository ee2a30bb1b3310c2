package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samarth-cli/internal/ai"
	"github.com/KaramelBytes/samarth-cli/internal/utils"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect or replace the model catalog (tool support, pricing)",
	Example: `  samarth models show
  samarth models show --json
  samarth models sync --file ./models.json --merge
  samarth models fetch --url https://example.com/models.json --output models.json`,
}

var modelsShowJSON bool

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if modelsShowJSON {
			return writeJSON(out, ai.Catalog())
		}
		cat := ai.Catalog()
		rows := make([][]string, 0, len(cat))
		for _, name := range ai.CatalogNames() {
			mi := cat[name]
			tools := "no"
			if mi.Tools {
				tools = "yes"
			}
			rows = append(rows, []string{
				name,
				mi.Provider,
				strconv.Itoa(mi.ContextTokens),
				tools,
				strconv.FormatFloat(mi.InputPerK, 'f', -1, 64),
				strconv.FormatFloat(mi.OutputPerK, 'f', -1, 64),
			})
		}
		renderTable(out, []string{"model", "provider", "context", "tools", "in $/1k", "out $/1k"}, rows)
		return nil
	},
}

var (
	syncPath  string
	syncMerge bool
)

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load model catalog/pricing from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		applyCatalog(m, syncMerge)
		if syncMerge {
			fmt.Println("Merged model catalog from file")
		} else {
			fmt.Println("Replaced model catalog from file")
		}
		return nil
	},
}

var (
	fetchURL    string
	fetchOutput string
	fetchMerge  bool
)

var modelsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch model catalog/pricing JSON from a URL and apply it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchURL == "" {
			return fmt.Errorf("--url is required")
		}
		m, err := fetchCatalog(fetchURL)
		if err != nil {
			return err
		}
		if fetchOutput != "" {
			data, err := utils.PrettyJSON(m)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(fetchOutput, data); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			fmt.Printf("Saved catalog to %s\n", fetchOutput)
		}
		applyCatalog(m, fetchMerge)
		if fetchMerge {
			fmt.Println("Merged fetched catalog into in-memory catalog")
		} else {
			fmt.Println("Replaced in-memory catalog with fetched catalog")
		}
		return nil
	},
}

func applyCatalog(m map[string]ai.ModelInfo, merge bool) {
	if merge {
		ai.MergeCatalog(m)
	} else {
		ai.OverrideCatalog(m)
	}
}

// fetchCatalog downloads a JSON catalog.
func fetchCatalog(url string) (map[string]ai.ModelInfo, error) {
	client := &http.Client{Timeout: 20 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch: unexpected status %s: %s", resp.Status, string(b))
	}
	var m map[string]ai.ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return m, nil
}

// loadCatalogOverride applies SAMARTH_MODELS_FILE when set.
func loadCatalogOverride() {
	path := os.Getenv("SAMARTH_MODELS_FILE")
	if path == "" {
		return
	}
	m, err := ai.LoadCatalogFromJSON(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: models file ignored: %v\n", err)
		return
	}
	ai.MergeCatalog(m)
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.AddCommand(modelsFetchCmd)

	modelsShowCmd.Flags().BoolVar(&modelsShowJSON, "json", false, "print the catalog as JSON")

	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
	modelsSyncCmd.Flags().BoolVar(&syncMerge, "merge", false, "merge into existing catalog instead of replacing")

	modelsFetchCmd.Flags().StringVar(&fetchURL, "url", "", "URL to JSON catalog file")
	modelsFetchCmd.Flags().StringVar(&fetchOutput, "output", "", "optional path to save the fetched JSON")
	modelsFetchCmd.Flags().BoolVar(&fetchMerge, "merge", false, "merge into existing catalog instead of replacing")
}
