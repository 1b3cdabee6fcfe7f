package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

const defaultSystemPrompt = "You are a senior front-end engineer generating production-ready Next.js and TypeScript code."

// OpenAIGenerator talks to an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	system string
	apiKey string
}

// OpenAIConfig configures an OpenAIGenerator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	System  string
}

// NewOpenAIGenerator creates a generator for the chat completion API.
// Empty fields fall back to OPENAI_API_KEY, OPENAI_BASE_URL and OPENAI_MODEL.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv("OPENAI_MODEL")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.System == "" {
		cfg.System = defaultSystemPrompt
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		system: cfg.System,
		apiKey: cfg.APIKey,
	}
}

// Name returns the backend identifier.
func (o *OpenAIGenerator) Name() string {
	return "openai"
}

// IsAvailable checks that an API key is configured.
func (o *OpenAIGenerator) IsAvailable() error {
	if o.apiKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	return nil
}

// Generate sends the request as a single user message.
func (o *OpenAIGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	if err := o.IsAvailable(); err != nil {
		return "", &FatalError{Backend: o.Name(), Err: err, Hint: AuthHint("openai")}
	}

	chatReq := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.system},
			{Role: openai.ChatMessageRoleUser, Content: req.FullPrompt()},
		},
	}
	if req.Shape == ShapeStructured {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", o.classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", Retryable(o.Name(), ErrEmptyResponse)
	}
	return finishResponse(o.Name(), resp.Choices[0].Message.Content, req.Shape)
}

// classify maps API errors onto the retryable/fatal split.
func (o *OpenAIGenerator) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &FatalError{Backend: o.Name(), Err: err, Hint: AuthHint("openai")}
	case status == http.StatusBadRequest || status == http.StatusNotFound:
		return Fatal(o.Name(), fmt.Errorf("request rejected: %w", err))
	default:
		return Retryable(o.Name(), err)
	}
}
