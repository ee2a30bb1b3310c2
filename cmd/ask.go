package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/samarth-cli/internal/agent"
	"github.com/KaramelBytes/samarth-cli/internal/ai"
)

var (
	askModel      string
	askProvider   string
	askOllamaHost string
	askShowTools  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question about crop production and rainfall",
	Example: `  samarth ask "What were the top 3 crops in Punjab in 2010?"
  samarth ask --provider ollama --model qwen2.5:7b "Average rainfall in Vidarbha 2001-2010?"
  samarth ask --show-tools "Compare rice production in Punjab with rainfall 2000-2010"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question cannot be empty")
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		a, provider, err := buildAgent(c, agentFlags())
		if err != nil {
			return err
		}
		ans, err := a.Ask(cmd.Context(), nil, question)
		if err != nil {
			return explainAgentError(err, provider, a.Options().Model)
		}
		printAnswer(cmd.OutOrStdout(), a.Options().Model, ans, askShowTools)
		return nil
	},
}

func agentFlags() runtimeOptions {
	return runtimeOptions{ProviderFlag: askProvider, OllamaHost: askOllamaHost, Model: askModel}
}

func printAnswer(out io.Writer, model string, ans *agent.Answer, showTools bool) {
	if showTools {
		for _, tc := range ans.ToolCalls {
			fmt.Fprintf(out, "→ %s %s [%s, %s]\n", tc.Name, tc.Arguments, tc.Kind, tc.Took.Round(time.Millisecond))
		}
		if len(ans.ToolCalls) > 0 {
			fmt.Fprintln(out)
		}
	}
	fmt.Fprintln(out, strings.TrimSpace(ans.Content))
	fields := []zap.Field{
		zap.String("model", model),
		zap.Int("rounds", ans.Rounds),
		zap.Int("prompt_tokens", ans.Usage.PromptTokens),
		zap.Int("completion_tokens", ans.Usage.CompletionTokens),
	}
	if cost, ok := ai.EstimateCostUSD(model, ans.Usage.PromptTokens, ans.Usage.CompletionTokens); ok {
		fields = append(fields, zap.Float64("est_cost_usd", cost))
	}
	logger.Debug("answer usage", fields...)
}

func addAgentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&askModel, "model", "", "model name (defaults to config default_model)")
	cmd.Flags().StringVar(&askProvider, "provider", "", "provider: openai, openrouter or ollama (defaults to config)")
	cmd.Flags().StringVar(&askOllamaHost, "ollama-host", "", "Ollama base URL (defaults to config ollama_host)")
	cmd.Flags().BoolVar(&askShowTools, "show-tools", false, "print each tool call made while answering")
}

func init() {
	rootCmd.AddCommand(askCmd)
	addAgentFlags(askCmd)
}
