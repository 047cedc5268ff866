package ai

import (
	"context"

	"github.com/pkoukk/tiktoken-go"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/ports/adapter"
)

var _ adapter.MarkingAdapter = (*limitedMarker)(nil)

// limitedMarker bounds concurrent provider calls with a semaphore and
// refuses prompts over the configured token budget, so one burst of
// submissions cannot exhaust the provider quota.
type limitedMarker struct {
	inner     adapter.MarkingAdapter
	sem       chan struct{}
	maxTokens int
	enc       *tiktoken.Tiktoken
}

func NewLimitedMarker(inner adapter.MarkingAdapter, maxConcurrent, maxPromptTokens int) adapter.MarkingAdapter {
	if maxConcurrent <= 0 && maxPromptTokens <= 0 {
		return inner
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil // token budget becomes a no-op, concurrency cap still holds
	}
	var sem chan struct{}
	if maxConcurrent > 0 {
		sem = make(chan struct{}, maxConcurrent)
	}
	return &limitedMarker{inner: inner, sem: sem, maxTokens: maxPromptTokens, enc: enc}
}

func (l *limitedMarker) Name() string { return l.inner.Name() }

func (l *limitedMarker) MarkFeedback(ctx context.Context, attempt adapter.AttemptSummary) (string, error) {
	if l.maxTokens > 0 && l.enc != nil {
		tokens := l.enc.Encode(markingSystemPrompt+markingPrompt(attempt), nil, nil)
		if len(tokens) > l.maxTokens {
			return "", domain.ErrInvalidArgument
		}
	}
	if l.sem != nil {
		select {
		case l.sem <- struct{}{}:
			defer func() { <-l.sem }()
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return l.inner.MarkFeedback(ctx, attempt)
}
