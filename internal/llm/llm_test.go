package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DefaultsBaseURLPerProvider(t *testing.T) {
	cfg := Config{Provider: "deepseek", Model: "deepseek-chat", APIKey: "key"}

	resolved, err := cfg.resolve()
	require.NoError(t, err)
	assert.Equal(t, "https://api.deepseek.com/v1", resolved.BaseURL)
	assert.Equal(t, defaultRequestTimeout, resolved.Timeout)
}

func TestResolve_ExplicitBaseURLWins(t *testing.T) {
	cfg := Config{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "key",
		BaseURL:  "http://localhost:8080/v1",
		Timeout:  10 * time.Second,
	}

	resolved, err := cfg.resolve()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1", resolved.BaseURL)
	assert.Equal(t, 10*time.Second, resolved.Timeout)
}

func TestResolve_ProviderNameIsCaseInsensitive(t *testing.T) {
	cfg := Config{Provider: " OpenAI ", Model: "gpt-4o", APIKey: "key"}

	resolved, err := cfg.resolve()
	require.NoError(t, err)
	assert.Equal(t, "openai", resolved.Provider)
	assert.Equal(t, "https://api.openai.com/v1", resolved.BaseURL)
}

func TestResolve_UnknownProvider(t *testing.T) {
	cfg := Config{Provider: "mistral", Model: "x", APIKey: "key"}

	_, err := cfg.resolve()
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestResolve_ModelRequired(t *testing.T) {
	cfg := Config{Provider: "openai", APIKey: "key"}

	_, err := cfg.resolve()
	assert.ErrorContains(t, err, "model is required")
}

func TestResolve_CustomProviderNeedsBaseURL(t *testing.T) {
	cfg := Config{Provider: "custom", Model: "local-model", APIKey: "key"}

	_, err := cfg.resolve()
	assert.ErrorContains(t, err, "explicit base URL")
}

func TestResolve_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("IFLOW_API_KEY", "env-key")

	cfg := Config{Provider: "iflow", Model: "some-model"}
	resolved, err := cfg.resolve()
	require.NoError(t, err)
	assert.Equal(t, "env-key", resolved.APIKey)
}

func TestResolve_MissingAPIKey(t *testing.T) {
	t.Setenv("PERPLEXITY_API_KEY", "")

	cfg := Config{Provider: "perplexity", Model: "sonar"}
	_, err := cfg.resolve()
	assert.ErrorContains(t, err, "PERPLEXITY_API_KEY")
}

func TestProviders_CoversAllKeyEnvVars(t *testing.T) {
	t.Parallel()

	for _, p := range Providers() {
		_, ok := providerKeyEnvVars[p]
		assert.True(t, ok, "provider %s has no key env var", p)
	}
}
