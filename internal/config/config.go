package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Dataset describes one remote open-data resource.
type Dataset struct {
	ResourceID string `mapstructure:"resource_id" yaml:"resource_id"`
	SourceURL  string `mapstructure:"source_url" yaml:"source_url"`
	Limit      int    `mapstructure:"limit" yaml:"limit"`
}

// Global configuration structure.
type Global struct {
	// Data source (data.gov.in)
	DataGovAPIKey   string  `mapstructure:"data_gov_api_key" yaml:"data_gov_api_key"`
	DataGovBaseURL  string  `mapstructure:"data_gov_base_url" yaml:"data_gov_base_url"`
	FetchTimeoutSec int     `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`
	Agriculture     Dataset `mapstructure:"agriculture" yaml:"agriculture"`
	Climate         Dataset `mapstructure:"climate" yaml:"climate"`

	// Analytical database file
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// Language model
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxToolRounds   int     `mapstructure:"max_tool_rounds" yaml:"max_tool_rounds"`
	HistoryTokens   int     `mapstructure:"history_tokens" yaml:"history_tokens"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Dir returns the directory holding config.yaml (~/.samarth).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".samarth"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.samarth/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SAMARTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names used by the upstream tooling.
	_ = v.BindEnv("data_gov_api_key", "SAMARTH_DATA_GOV_API_KEY", "DATA_GOV_API_KEY")
	_ = v.BindEnv("api_key", "SAMARTH_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("ollama_host", "SAMARTH_OLLAMA_HOST", "OLLAMA_HOST")

	// Defaults
	v.SetDefault("data_gov_base_url", "https://api.data.gov.in/resource")
	v.SetDefault("fetch_timeout_sec", 60)
	v.SetDefault("agriculture.resource_id", "35be999b-0208-4354-b557-f6ca9a5355de")
	v.SetDefault("agriculture.source_url", "https://data.gov.in/resource/district-wise-season-wise-crop-production-statistics-1997")
	v.SetDefault("agriculture.limit", 50000)
	v.SetDefault("climate.resource_id", "8e0bd482-4aba-4d99-9cb9-ff124f6f1c2f")
	v.SetDefault("climate.source_url", "https://www.data.gov.in/resource/sub-divisional-monthly-rainfall-1901-2017")
	v.SetDefault("climate.limit", 5000)
	v.SetDefault("db_path", "samarth.db")
	v.SetDefault("default_model", "gpt-4o")
	v.SetDefault("default_provider", "openai")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tool_rounds", 6)
	v.SetDefault("history_tokens", 6000)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 120)
	v.SetDefault("log_level", "info")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
