package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const systemInstruction = "Respond ONLY with valid JSON matching the requested schema. No additional text."

// OpenAIProvider calls the OpenAI chat completions API in JSON mode.
type OpenAIProvider struct {
	client  *openai.Client
	modelID string
	retries int
}

// NewOpenAIProvider constructs a provider for the given model. An empty model
// defaults to gpt-4o-mini.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client:  openai.NewClient(apiKey),
		modelID: model,
		retries: 1,
	}
}

// Name identifies the provider on call records.
func (p *OpenAIProvider) Name() string { return "openai" }

// ModelID returns the configured model identifier.
func (p *OpenAIProvider) ModelID() string { return p.modelID }

// Generate sends the prompt and unmarshals the JSON reply into out. One retry
// with backoff on transport failure; parse failures are not retried.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, out any, opts GenerateOptions) (Usage, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Usage{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		resp, err = p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.modelID,
			Temperature: opts.Temperature,
			MaxTokens:   maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err == nil {
			break
		}
	}
	if err != nil {
		return Usage{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Usage{}, fmt.Errorf("openai completion: empty choices")
	}

	usage := Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}

	raw := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return usage, fmt.Errorf("parse completion: %w", err)
	}
	return usage, nil
}

// stripCodeFence removes a surrounding markdown code block if the model
// wrapped its JSON despite the JSON response format.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
