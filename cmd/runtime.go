package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/samarth-cli/internal/agent"
	"github.com/KaramelBytes/samarth-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/samarth-cli/internal/config"
	"github.com/KaramelBytes/samarth-cli/internal/tools"
)

type runtimeOptions struct {
	ProviderFlag string
	OllamaHost   string
	Model        string
}

// resolveProvider picks the --provider flag over the configured default.
func resolveProvider(cfg *cfgpkg.Global, flag string) string {
	name := flag
	if strings.TrimSpace(name) == "" && cfg != nil {
		name = cfg.DefaultProvider
	}
	return ai.NormalizeProvider(name)
}

func buildRuntime(cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	httpTimeout := 60 * time.Second
	retryMax := 3
	baseDelay := 500 * time.Millisecond
	maxDelay := 4 * time.Second
	if cfg != nil {
		if cfg.HTTPTimeoutSec > 0 {
			httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		}
		if cfg.RetryMaxAttempts > 0 {
			retryMax = cfg.RetryMaxAttempts
		}
		if cfg.RetryBaseDelayMs > 0 {
			baseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		}
		if cfg.RetryMaxDelayMs > 0 {
			maxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		}
	}

	providerName := resolveProvider(cfg, opts.ProviderFlag)
	rc := ai.RuntimeConfig{
		HTTPTimeout: httpTimeout,
		RetryMax:    retryMax,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
	if cfg != nil {
		rc.APIKey = cfg.APIKey
	}

	if providerName == ai.ProviderOllama {
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" && cfg != nil {
			host = cfg.OllamaHost
		}
		if host == "" {
			host = "http://127.0.0.1:11434"
		}
		rc.Host = host
		if cfg != nil && cfg.OllamaTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.OllamaTimeoutSec) * time.Second
		}
	} else if rc.APIKey == "" {
		return nil, providerName, fmt.Errorf("%w: set OPENAI_API_KEY / OPENROUTER_API_KEY or 'samarth config set api_key ...'", ai.ErrMissingAPIKey)
	}

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (available: %s)", providerName, strings.Join(ai.Providers(), ", "))
	}
	return client, providerName, nil
}

func selectModel(cfg *cfgpkg.Global, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	return "gpt-4o"
}

// buildAgent wires runtime, tools and options for ask/chat.
func buildAgent(cfg *cfgpkg.Global, opts runtimeOptions) (*agent.Agent, string, error) {
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return nil, "", fmt.Errorf("database %s not found; run 'samarth etl' first: %w", cfg.DBPath, err)
	}
	model := selectModel(cfg, opts.Model)
	if err := ai.CheckToolSupport(model); err != nil {
		return nil, "", fmt.Errorf("%w; choose a model with tool calling (see 'samarth models show')", err)
	}
	rt, provider, err := buildRuntime(cfg, opts)
	if err != nil {
		return nil, provider, err
	}
	svc := &tools.Service{DBPath: cfg.DBPath, Logger: logger}
	a := agent.New(rt, svc.NewRegistry(), agent.Options{
		Model:             model,
		MaxTokens:         cfg.MaxTokens,
		Temperature:       cfg.Temperature,
		MaxToolRounds:     cfg.MaxToolRounds,
		HistoryTokenLimit: cfg.HistoryTokens,
	}, logger)
	logger.Debug("agent ready")
	return a, provider, nil
}

// explainAgentError turns runtime failures into actionable messages.
func explainAgentError(err error, provider, model string) error {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		toolErr *ai.ToolsUnsupportedError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.Is(err, agent.ErrTooManyToolRounds):
		return fmt.Errorf("the model kept calling tools without answering; try rephrasing or raise max_tool_rounds: %w", err)
	case errors.As(err, &unreach):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("Ollama not reachable at %s. Ensure Ollama is running and the host is correct (config 'ollama_host' or OLLAMA_HOST). Detail: %w", unreach.Host, err)
		}
		return fmt.Errorf("endpoint unreachable. Check your network and provider settings: %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: set OPENAI_API_KEY / OPENROUTER_API_KEY or add api_key in config (~/.samarth/config.yaml): %w", err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, please retry: %w", err)
	case errors.As(err, &nfErr):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("local model not available (%s). Install it with 'ollama pull %s' or choose another model. %w", model, model, err)
		}
		return fmt.Errorf("model not found (%s). Verify the model name via 'samarth models show': %w", model, err)
	case errors.As(err, &toolErr):
		return fmt.Errorf("model %s cannot call tools; pick one marked as tool-capable in 'samarth models show': %w", model, err)
	case errors.As(err, &brErr):
		return fmt.Errorf("request rejected by provider; the history may be too long (try /reset): %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	default:
		return fmt.Errorf("answer failed: %w", err)
	}
}
