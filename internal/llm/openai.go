package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ferrolab/researchd/internal/config"
)

var tracer = otel.Tracer("researchd.llm")

// OpenAIClient implements Client via langchaingo's OpenAI bindings.
type OpenAIClient struct {
	llm   *openai.LLM
	model string
}

// NewOpenAIClient creates a client from config.
func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model required", ErrInvalidConfig)
	}

	apiKey := cfg.APIKey.Value()
	if apiKey == "" {
		apiKey = "placeholder"
	}

	llmClient, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &OpenAIClient{llm: llmClient, model: cfg.Model}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete runs a single-prompt chat completion and extracts token
// usage from the response metadata.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.Complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("model", c.model),
		attribute.Bool("json_mode", req.JSONMode),
	)

	if req.Prompt == "" {
		return nil, ErrEmptyPrompt
	}

	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("generating completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		span.SetStatus(codes.Error, "empty response")
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	result := &Result{
		Text:  choice.Content,
		Usage: usageFromGenerationInfo(choice.GenerationInfo),
	}

	span.SetAttributes(attribute.Int("total_tokens", result.Usage.TotalTokens))
	span.SetStatus(codes.Ok, "success")
	return result, nil
}

func usageFromGenerationInfo(info map[string]any) Usage {
	return Usage{
		PromptTokens:     intFromInfo(info, "PromptTokens"),
		CompletionTokens: intFromInfo(info, "CompletionTokens"),
		TotalTokens:      intFromInfo(info, "TotalTokens"),
	}
}

func intFromInfo(info map[string]any, key string) int {
	if info == nil {
		return 0
	}
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

var _ Client = (*OpenAIClient)(nil)
