package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClient implements the Client interface using Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client. The key is read from
// GEMINI_API_KEY or GOOGLE_API_KEY.
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	apiKey := firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Chat sends messages to Gemini and returns the concatenated streamed text.
// System messages become the model's system instruction; earlier turns become
// chat history.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.generate(ctx, messages)
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) generate(ctx context.Context, messages []Message) (string, error) {
	model := c.client.GenerativeModel(c.model)

	var system []genai.Part
	var turns []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, genai.Text(msg.Content))
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(turns) == 0 {
		return "", errors.New("no user message to send")
	}

	session := model.StartChat()
	session.History = turns[:len(turns)-1]
	last := turns[len(turns)-1]

	iter := session.SendMessageStream(ctx, last.Parts...)
	var sb strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("gemini chat: %w", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if txt, ok := part.(genai.Text); ok {
					sb.WriteString(string(txt))
				}
			}
			break // first candidate only
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return sb.String(), nil
}
