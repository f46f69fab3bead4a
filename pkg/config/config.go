package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type LLMConfig struct {
	Provider    string  `json:"provider" env:"TICKERSCOUT_LLM_PROVIDER"`
	Model       string  `json:"model" env:"TICKERSCOUT_LLM_MODEL"`
	APIKey      string  `json:"api_key" env:"TICKERSCOUT_LLM_API_KEY"`
	BaseURL     string  `json:"base_url" env:"TICKERSCOUT_LLM_BASE_URL"`
	MaxTokens   int     `json:"max_tokens" env:"TICKERSCOUT_LLM_MAX_TOKENS"`
	Temperature float64 `json:"temperature" env:"TICKERSCOUT_LLM_TEMPERATURE"`
}

type MarketConfig struct {
	BaseURL           string `json:"base_url" env:"TICKERSCOUT_MARKET_BASE_URL"`
	APIKey            string `json:"api_key" env:"TICKERSCOUT_MARKET_API_KEY"`
	RequestsPerMinute int    `json:"requests_per_minute" env:"TICKERSCOUT_MARKET_RPM"`
	MaxRetries        int    `json:"max_retries" env:"TICKERSCOUT_MARKET_MAX_RETRIES"`
	LookbackDays      int    `json:"lookback_days" env:"TICKERSCOUT_MARKET_LOOKBACK_DAYS"`
}

type AgentConfig struct {
	MaxIterations       int `json:"max_iterations" env:"TICKERSCOUT_AGENT_MAX_ITERATIONS"`
	ModelTimeoutSeconds int `json:"model_timeout_seconds" env:"TICKERSCOUT_AGENT_MODEL_TIMEOUT"`
	TurnTimeoutSeconds  int `json:"turn_timeout_seconds" env:"TICKERSCOUT_AGENT_TURN_TIMEOUT"`
}

type ServerConfig struct {
	Host string `json:"host" env:"TICKERSCOUT_SERVER_HOST"`
	Port int    `json:"port" env:"TICKERSCOUT_SERVER_PORT"`
}

type LogConfig struct {
	Level string `json:"level" env:"TICKERSCOUT_LOG_LEVEL"`
	File  string `json:"file" env:"TICKERSCOUT_LOG_FILE"`
}

type Config struct {
	LLM    LLMConfig    `json:"llm"`
	Market MarketConfig `json:"market"`
	Agent  AgentConfig  `json:"agent"`
	Server ServerConfig `json:"server"`
	Log    LogConfig    `json:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		Market: MarketConfig{
			BaseURL:           "https://api.polygon.io",
			RequestsPerMinute: 30,
			MaxRetries:        3,
			LookbackDays:      30,
		},
		Agent: AgentConfig{
			MaxIterations:       5,
			ModelTimeoutSeconds: 60,
			TurnTimeoutSeconds:  300,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the JSON config at path (missing file is fine, the
// defaults apply) and then applies TICKERSCOUT_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// DefaultConfigPath is the config location used when no --config flag
// is given.
func DefaultConfigPath() string {
	if p := os.Getenv("TICKERSCOUT_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "tickerscout.json"
	}
	return filepath.Join(home, ".tickerscout", "config.json")
}
