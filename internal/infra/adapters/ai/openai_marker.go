package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"school-management-platform/internal/domain/ports/adapter"
)

var _ adapter.MarkingAdapter = (*OpenAIMarker)(nil)

// OpenAIMarker produces marking feedback through the Chat Completions API.
type OpenAIMarker struct {
	client openai.Client
	model  string
}

func NewOpenAIMarker(apiKey, model string) (*OpenAIMarker, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIMarker{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIMarker) Name() string { return "openai" }

func (o *OpenAIMarker) MarkFeedback(ctx context.Context, attempt adapter.AttemptSummary) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(markingSystemPrompt),
			openai.UserMessage(markingPrompt(attempt)),
		},
	})
	if err != nil {
		return "", err
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("openai: no choice content")
}
