package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// defaultTemperature keeps analysis output stable across retries.
const defaultTemperature = 0.3

// OpenAIClient implements Client against an OpenAI-compatible completion API.
type OpenAIClient struct {
	model   llms.Model
	timeout time.Duration
}

// NewOpenAIClient creates a client for the given credentials. baseURL may be
// empty for the default endpoint; any OpenAI-compatible gateway works.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) (*OpenAIClient, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	return &OpenAIClient{model: m, timeout: timeout}, nil
}

// Complete issues one completion call with a bounded timeout. A timeout is a
// definite failure; retries are the caller's concern.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithTemperature(defaultTemperature))
	if err != nil {
		return "", fmt.Errorf("completion call failed: %w", err)
	}
	return out, nil
}
