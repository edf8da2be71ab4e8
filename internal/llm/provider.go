// Package llm defines the language-model capability used by the enrichment
// steps, a real OpenAI-backed implementation, and a deterministic provider
// for tests and offline demos.
package llm

import "context"

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Usage reports token counts for a call. Zero values mean the provider did
// not report usage; callers then estimate from the prompt.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Provider generates a structured result from a prompt. Implementations
// unmarshal the model's JSON output into out, which must be a pointer to one
// of the result types in internal/models. Any transport, auth, rate-limit, or
// parse failure is returned as an error; callers never inspect subtypes.
type Provider interface {
	Name() string
	ModelID() string
	Generate(ctx context.Context, prompt string, out any, opts GenerateOptions) (Usage, error)
}
