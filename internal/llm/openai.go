package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// openAIClient talks to any OpenAI-compatible endpoint through the Responses
// API, one oneshot call per agent invocation.
type openAIClient struct {
	cfg    Config
	client openai.Client
}

func newOpenAIClient(cfg Config) (*openAIClient, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(cfg.Timeout),
	}
	return &openAIClient{
		cfg:    cfg,
		client: openai.NewClient(opts...),
	}, nil
}

// Complete executes a single Responses API request.
func (c *openAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        c.cfg.Model,
		Instructions: openai.String(system),
		Temperature:  openai.Float(c.cfg.Temperature),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai responses.create: %w", err)
	}
	if msg := strings.TrimSpace(resp.Error.Message); msg != "" {
		return "", fmt.Errorf("openai response failed: %s", msg)
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return "", fmt.Errorf("openai response did not contain output text")
	}
	return output, nil
}
