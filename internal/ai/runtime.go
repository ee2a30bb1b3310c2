package ai

import (
	"context"
	"strings"
)

// Runtime produces one model turn for a conversation that may carry tool
// definitions. The OpenAI-compatible client and the Ollama client implement it.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider names accepted by --provider and the default_provider setting.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderLocal      = "local"
)

// vendorAliases are model vendors reachable only through OpenRouter.
var vendorAliases = map[string]string{
	"anthropic": ProviderOpenRouter,
	"google":    ProviderOpenRouter,
	"gemini":    ProviderOpenRouter,
	"meta":      ProviderOpenRouter,
	"llama":     ProviderOpenRouter,
	"mistral":   ProviderOpenRouter,
	"qwen":      ProviderOpenRouter,
}

// NormalizeProvider lowercases name and folds aliases onto a registered
// provider. Empty input yields OpenAI; unknown names pass through so the
// registry can report them.
func NormalizeProvider(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "":
		return ProviderOpenAI
	case ProviderLocal:
		return ProviderOllama
	}
	if p, ok := vendorAliases[n]; ok {
		return p
	}
	return n
}
