package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Model metadata and simple pricing helpers for UX warnings.
// Prices are illustrative and should be verified against provider docs.

type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
	Tools         bool    // supports function/tool calling
}

var models = map[string]ModelInfo{
	// OpenAI direct
	"gpt-4o": {
		Name: "gpt-4o", Provider: ProviderOpenAI,
		ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01, Tools: true,
	},
	"gpt-4o-mini": {
		Name: "gpt-4o-mini", Provider: ProviderOpenAI,
		ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006, Tools: true,
	},
	"gpt-4.1-mini": {
		Name: "gpt-4.1-mini", Provider: ProviderOpenAI,
		ContextTokens: 1000000, InputPerK: 0.0004, OutputPerK: 0.0016, Tools: true,
	},
	// OpenRouter
	"openai/gpt-4o": {
		Name: "openai/gpt-4o", Provider: ProviderOpenRouter,
		ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01, Tools: true,
	},
	"openai/gpt-4o-mini": {
		Name: "openai/gpt-4o-mini", Provider: ProviderOpenRouter,
		ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006, Tools: true,
	},
	"anthropic/claude-3.5-sonnet": {
		Name: "anthropic/claude-3.5-sonnet", Provider: ProviderOpenRouter,
		ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015, Tools: true,
	},
	"anthropic/claude-3-haiku": {
		Name: "anthropic/claude-3-haiku", Provider: ProviderOpenRouter,
		ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125, Tools: true,
	},
	"google/gemini-1.5-flash": {
		Name: "google/gemini-1.5-flash", Provider: ProviderOpenRouter,
		ContextTokens: 1000000, InputPerK: 0.0002, OutputPerK: 0.0008, Tools: true,
	},
	"meta-llama/llama-3.1-70b-instruct": {
		Name: "meta-llama/llama-3.1-70b-instruct", Provider: ProviderOpenRouter,
		ContextTokens: 131072, Tools: true,
	},
	"deepseek/deepseek-r1:free": {
		Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter,
		ContextTokens: 128000,
	},
	// Common local (Ollama) tags
	"llama3.1:8b": {
		Name: "llama3.1:8b", Provider: ProviderOllama,
		ContextTokens: 131072, Tools: true,
	},
	"qwen2.5:7b": {
		Name: "qwen2.5:7b", Provider: ProviderOllama,
		ContextTokens: 32768, Tools: true,
	},
	"mistral-nemo:latest": {
		Name: "mistral-nemo:latest", Provider: ProviderOllama,
		ContextTokens: 128000, Tools: true,
	},
	"llama3:latest": {
		Name: "llama3:latest", Provider: ProviderOllama,
		ContextTokens: 8192,
	},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// CheckToolSupport returns an error when the catalog knows the model and
// marks it as lacking tool calling. Unknown models pass.
func CheckToolSupport(name string) error {
	mi, ok := LookupModel(name)
	if ok && !mi.Tools {
		return fmt.Errorf("model %s does not support tool calling", name)
	}
	return nil
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// ---- Sync/override helpers ----

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
// Example JSON entry:
// { "gpt-4o-mini": {"Name":"gpt-4o-mini","Provider":"openai","ContextTokens":128000,"InputPerK":0.00015,"OutputPerK":0.0006,"Tools":true} }
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m map[string]ModelInfo
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return m, nil
}

// OverrideCatalog replaces the in-memory catalog entirely.
func OverrideCatalog(m map[string]ModelInfo) {
	if m == nil {
		return
	}
	models = m
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	if m == nil {
		return
	}
	for k, v := range m {
		models[k] = v
	}
}

// Catalog returns a shallow copy of the current model catalog.
func Catalog() map[string]ModelInfo {
	out := make(map[string]ModelInfo, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}

// CatalogNames returns the catalog keys, sorted.
func CatalogNames() []string {
	out := make([]string, 0, len(models))
	for k := range models {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
