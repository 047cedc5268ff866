package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"school-management-platform/internal/domain/ports/adapter"
)

var _ adapter.MarkingAdapter = (*GeminiMarker)(nil)

// GeminiMarker produces marking feedback through the Gemini API.
type GeminiMarker struct {
	client *genai.Client
	model  string
}

func NewGeminiMarker(ctx context.Context, apiKey, model string) (*GeminiMarker, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiMarker{client: c, model: model}, nil
}

func (g *GeminiMarker) Name() string { return "gemini" }

func (g *GeminiMarker) MarkFeedback(ctx context.Context, attempt adapter.AttemptSummary) (string, error) {
	chat, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		MaxOutputTokens: 256,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: markingSystemPrompt}},
		},
	}, nil)
	if err != nil {
		return "", err
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: markingPrompt(attempt)})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}
	if t := resp.Candidates[0].Content.Parts[0].Text; t != "" {
		return t, nil
	}
	return "", errors.New("gemini: no text part")
}
