package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/Squareczm/DocumentationTool/internal/common"
)

// geminiClient implements the Client interface using Google's Gemini API.
type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiClient{
		client:      client,
		model:       model,
		temperature: float32(cfg.temperature()),
		maxTokens:   int32(cfg.maxTokens()),
	}, nil
}

// Complete generates content for prompt.
func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := c.temperature
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temperature,
		MaxOutputTokens:   c.maxTokens,
	})
	if err != nil {
		return "", common.Transient(fmt.Errorf("gemini: %w", err))
	}

	text := resp.Text()
	if text == "" {
		return "", common.Permanent(fmt.Errorf("gemini: %w: empty response", common.ErrInvalidResponse))
	}
	return text, nil
}
