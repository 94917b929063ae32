// Package llm provides the text-completion collaborator used by the agents.
// The orchestration core only ever sees the Client interface; provider
// selection, transport and request construction stay in here.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

const defaultRequestTimeout = 60 * time.Second

// Client performs one completion call: a system prompt plus a user prompt in,
// free text out.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider    string        `json:"provider"    mapstructure:"provider"`
	Model       string        `json:"model"       mapstructure:"model"`
	APIKey      string        `json:"api_key"     mapstructure:"api_key"`
	BaseURL     string        `json:"base_url"    mapstructure:"base_url"`
	Temperature float64       `json:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `json:"timeout"     mapstructure:"timeout"`
}

// OpenAI-compatible provider base URLs. The custom provider requires an
// explicit base URL.
var providerBaseURLs = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"perplexity": "https://api.perplexity.ai",
	"deepseek":   "https://api.deepseek.com/v1",
	"iflow":      "https://apis.iflow.cn/v1",
}

var providerKeyEnvVars = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"perplexity": "PERPLEXITY_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"iflow":      "IFLOW_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"custom":     "CUSTOM_API_KEY",
}

// Providers lists the supported provider identifiers.
func Providers() []string {
	return []string{"openai", "perplexity", "deepseek", "iflow", "gemini", "custom"}
}

// New constructs a client for the configured provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	if cfg.Provider == "gemini" {
		return newGeminiClient(ctx, cfg)
	}
	return newOpenAIClient(cfg)
}

// resolve fills in the base URL and API key, validating the provider.
func (c Config) resolve() (Config, error) {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if _, ok := providerKeyEnvVars[provider]; !ok {
		return c, fmt.Errorf("unsupported provider %q (supported: %s)",
			c.Provider, strings.Join(Providers(), ", "))
	}
	c.Provider = provider

	if strings.TrimSpace(c.Model) == "" {
		return c, fmt.Errorf("model is required")
	}

	if c.BaseURL == "" {
		if provider == "custom" {
			return c, fmt.Errorf("custom provider requires an explicit base URL")
		}
		c.BaseURL = providerBaseURLs[provider]
	}

	if strings.TrimSpace(c.APIKey) == "" {
		envVar := providerKeyEnvVars[provider]
		c.APIKey = strings.TrimSpace(os.Getenv(envVar))
		if c.APIKey == "" {
			return c, fmt.Errorf("api key not found: set %s or pass --api-key", envVar)
		}
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultRequestTimeout
	}
	return c, nil
}
