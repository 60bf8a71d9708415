// Package genai wraps langchaingo behind the small text-generation
// surface the pipeline needs.
package genai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Options selects and configures the backing LLM provider.
type Options struct {
	Provider   string // "googleai", "openai" or "ollama"
	Model      string
	APIKey     string
	OllamaHost string
}

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates an LLM model for the configured provider.
func NewModel(ctx context.Context, opts Options) (*Model, error) {
	var model llms.Model
	var err error

	switch opts.Provider {
	case "googleai":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("google ai api key required")
		}
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(opts.APIKey),
			googleai.WithDefaultModel(opts.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai model: %w", err)
		}

	case "openai":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai api key required")
		}
		model, err = openai.New(
			openai.WithToken(opts.APIKey),
			openai.WithModel(opts.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case "ollama":
		model, err = ollama.New(
			ollama.WithModel(opts.Model),
			ollama.WithServerURL(opts.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", opts.Provider)
	}

	return &Model{llm: model, modelName: opts.Model}, nil
}

// Generate generates text based on a single prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return response, nil
}

// GenerateWithSystem generates text with a system instruction.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// ModelName returns the configured model name.
func (m *Model) ModelName() string {
	return m.modelName
}
