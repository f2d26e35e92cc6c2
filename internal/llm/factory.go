package llm

import (
	"context"
	"fmt"
	"strings"
)

// Supported providers.
const (
	ProviderCopilot  = "copilot"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderLMStudio = "lmstudio"
	ProviderGemini   = "gemini"
)

// Providers lists the accepted provider names.
func Providers() []string {
	return []string{ProviderCopilot, ProviderOpenAI, ProviderOllama, ProviderLMStudio, ProviderGemini}
}

// NormalizeProvider maps aliases to a canonical provider name.
func NormalizeProvider(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	switch p {
	case "":
		return ProviderCopilot
	case "lm-studio", "llmstudio":
		return ProviderLMStudio
	case "google":
		return ProviderGemini
	default:
		return p
	}
}

// NewClient creates an LLM client based on provider configuration.
func NewClient(ctx context.Context, provider, model, baseURL string) (Client, error) {
	var (
		client Client
		err    error
	)

	switch NormalizeProvider(provider) {
	case ProviderCopilot:
		client, err = asClient(NewCopilotClient(ctx, model))
	case ProviderOpenAI:
		client, err = asClient(NewOpenAIClient(model, baseURL))
	case ProviderOllama:
		var c *OllamaClient
		if c, err = NewOllamaClient(model, baseURL); err == nil {
			client = c
		}
	case ProviderLMStudio:
		client, err = asClient(NewLMStudioClient(model, baseURL))
	case ProviderGemini:
		var c *GeminiClient
		if c, err = NewGeminiClient(ctx, model); err == nil {
			client = c
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	if err != nil {
		return nil, err
	}
	return client, nil
}

// asClient avoids returning a typed nil *OpenAIClient inside a Client.
func asClient(c *OpenAIClient, err error) (Client, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
