package llm

import (
	"context"
	"testing"
)

func TestNewClient_Ollama(t *testing.T) {
	client, err := NewClient(context.Background(), "ollama", "llama3", "")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	ollamaClient, ok := client.(*OllamaClient)
	if !ok {
		t.Fatalf("expected OllamaClient, got %T", client)
	}
	if ollamaClient.baseURL != defaultOllamaBaseURL {
		t.Errorf("baseURL = %q, want %q", ollamaClient.baseURL, defaultOllamaBaseURL)
	}
}

func TestNewClient_LMStudio(t *testing.T) {
	for _, alias := range []string{"lmstudio", "LM-Studio", "llmstudio"} {
		client, err := NewClient(context.Background(), alias, "llama3", "")
		if err != nil {
			t.Fatalf("%s: expected nil error, got %v", alias, err)
		}
		c, ok := client.(*OpenAIClient)
		if !ok {
			t.Fatalf("%s: expected OpenAIClient, got %T", alias, client)
		}
		if c.baseURL != defaultLMStudioBaseURL || c.name != ProviderLMStudio {
			t.Errorf("%s: baseURL = %q, name = %q", alias, c.baseURL, c.name)
		}
	}
}

func TestNewClient_OpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	client, err := NewClient(context.Background(), "openai", "", "http://localhost:9999/v1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	c, ok := client.(*OpenAIClient)
	if !ok {
		t.Fatalf("expected OpenAIClient, got %T", client)
	}
	if c.model != defaultOpenAIModel {
		t.Errorf("model = %q, want %q", c.model, defaultOpenAIModel)
	}
}

func TestNewClient_MissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	for _, provider := range []string{"openai", "gemini"} {
		client, err := NewClient(context.Background(), provider, "", "")
		if err == nil {
			t.Errorf("%s: expected error without API key", provider)
		}
		if client != nil {
			t.Errorf("%s: client = %v, want nil interface", provider, client)
		}
	}
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient(context.Background(), "unknown", "model", "")
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNormalizeProvider(t *testing.T) {
	tests := map[string]string{
		"":           ProviderCopilot,
		" Ollama ":   ProviderOllama,
		"lm-studio":  ProviderLMStudio,
		"google":     ProviderGemini,
		"OPENAI":     ProviderOpenAI,
		"mystery-ai": "mystery-ai",
	}
	for in, want := range tests {
		if got := NormalizeProvider(in); got != want {
			t.Errorf("NormalizeProvider(%q) = %q, want %q", in, got, want)
		}
	}
}
