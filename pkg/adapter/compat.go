package adapter

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// Well-known OpenAI-compatible endpoints.
const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	OllamaBaseURL   = "http://localhost:11434/v1"
)

// CompatAdapter talks to any OpenAI-compatible chat completions endpoint,
// such as DeepSeek or a local Ollama server.
type CompatAdapter struct {
	name   string
	client *goopenai.Client
	models []string
}

// NewCompatAdapter creates an adapter for an OpenAI-compatible endpoint.
// An empty apiKey is accepted only for local endpoints that do not require one.
func NewCompatAdapter(name, baseURL, apiKey string, models ...string) (*CompatAdapter, error) {
	if name == "" {
		return nil, fmt.Errorf("compat adapter requires a name")
	}
	if baseURL == "" {
		return nil, unavailable(name, "base URL is required")
	}
	if len(models) == 0 {
		return nil, unavailable(name, "at least one model is required")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &CompatAdapter{name: name, client: goopenai.NewClientWithConfig(cfg), models: models}, nil
}

// NewDeepSeekAdapter creates a DeepSeek adapter.
func NewDeepSeekAdapter(apiKey string, models ...string) (*CompatAdapter, error) {
	if apiKey == "" {
		return nil, unavailable("deepseek", "API key is required")
	}
	if len(models) == 0 {
		models = []string{"deepseek-chat", "deepseek-reasoner"}
	}
	return NewCompatAdapter("deepseek", DeepSeekBaseURL, apiKey, models...)
}

// Name returns the adapter identifier.
func (a *CompatAdapter) Name() string {
	return a.name
}

// Models returns the configured models.
func (a *CompatAdapter) Models() []string {
	return a.models
}

// Generate sends a chat completion request.
func (a *CompatAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel(a)
	}

	var messages []goopenai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	params := goopenai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens(req),
	}
	if req.Temperature != nil {
		params.Temperature = float32(*req.Temperature)
	}

	resp, err := a.client.CreateChatCompletion(ctx, params)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return nil, wrapStatus(a.name, apiErr.HTTPStatusCode, err)
		}
		var reqErr *goopenai.RequestError
		if errors.As(err, &reqErr) {
			return nil, wrapStatus(a.name, reqErr.HTTPStatusCode, err)
		}
		return nil, fmt.Errorf("%s API error: %w", a.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", a.name)
	}

	usage := &Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	return &Response{Text: resp.Choices[0].Message.Content, Adapter: a.name, Model: model, Usage: usage}, nil
}
