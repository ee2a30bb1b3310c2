package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samarth-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/samarth-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Samarth configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data_gov_api_key: %s\n", mask(c.DataGovAPIKey))
		fmt.Fprintf(out, "data_gov_base_url: %s\n", c.DataGovBaseURL)
		fmt.Fprintf(out, "agriculture.resource_id: %s\n", c.Agriculture.ResourceID)
		fmt.Fprintf(out, "agriculture.limit: %d\n", c.Agriculture.Limit)
		fmt.Fprintf(out, "climate.resource_id: %s\n", c.Climate.ResourceID)
		fmt.Fprintf(out, "climate.limit: %d\n", c.Climate.Limit)
		fmt.Fprintf(out, "db_path: %s\n", c.DBPath)
		fmt.Fprintf(out, "api_key: %s\n", mask(c.APIKey))
		fmt.Fprintf(out, "default_model: %s\n", c.DefaultModel)
		fmt.Fprintf(out, "default_provider: %s\n", c.DefaultProvider)
		fmt.Fprintf(out, "max_tokens: %d\n", c.MaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", c.Temperature)
		fmt.Fprintf(out, "max_tool_rounds: %d\n", c.MaxToolRounds)
		fmt.Fprintf(out, "history_tokens: %d\n", c.HistoryTokens)
		if c.DefaultProvider == ai.ProviderOllama || c.DefaultProvider == ai.ProviderLocal {
			fmt.Fprintf(out, "ollama_host: %s\n", c.OllamaHost)
		}
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := applySetting(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "data_gov_api_key":
		c.DataGovAPIKey = val
	case "data_gov_base_url":
		c.DataGovBaseURL = val
	case "agriculture.resource_id":
		c.Agriculture.ResourceID = val
	case "agriculture.limit":
		return setPositiveInt(&c.Agriculture.Limit, key, val)
	case "climate.resource_id":
		c.Climate.ResourceID = val
	case "climate.limit":
		return setPositiveInt(&c.Climate.Limit, key, val)
	case "db_path":
		c.DBPath = val
	case "api_key":
		c.APIKey = val
	case "default_model":
		c.DefaultModel = val
	case "default_provider":
		switch strings.ToLower(val) {
		case ai.ProviderOpenAI:
			c.DefaultProvider = ai.ProviderOpenAI
		case ai.ProviderOpenRouter:
			c.DefaultProvider = ai.ProviderOpenRouter
		case ai.ProviderOllama, ai.ProviderLocal:
			c.DefaultProvider = ai.ProviderOllama
		default:
			return fmt.Errorf("invalid default_provider: %s (use openai, openrouter or ollama)", val)
		}
	case "max_tokens":
		return setPositiveInt(&c.MaxTokens, key, val)
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %v (0..2)", val)
		}
		c.Temperature = f
	case "max_tool_rounds":
		return setPositiveInt(&c.MaxToolRounds, key, val)
	case "history_tokens":
		return setPositiveInt(&c.HistoryTokens, key, val)
	case "ollama_host":
		c.OllamaHost = val
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setPositiveInt(dst *int, key, val string) error {
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return fmt.Errorf("invalid positive int for %s: %v", key, val)
	}
	*dst = i
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
