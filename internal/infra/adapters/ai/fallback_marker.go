package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"school-management-platform/internal/domain/ports/adapter"
	"school-management-platform/internal/infra/metrics"
)

var _ adapter.MarkingAdapter = (*FallbackMarker)(nil)

// FallbackMarker tries each configured provider in order and returns the
// first feedback produced. Provider outages degrade feedback quality, not
// submission handling; grading never waits on this chain.
type FallbackMarker struct {
	markers []adapter.MarkingAdapter
}

func NewFallbackMarker(markers ...adapter.MarkingAdapter) *FallbackMarker {
	return &FallbackMarker{markers: markers}
}

func (f *FallbackMarker) Name() string {
	names := make([]string, 0, len(f.markers))
	for _, m := range f.markers {
		names = append(names, m.Name())
	}
	return strings.Join(names, ",")
}

func (f *FallbackMarker) MarkFeedback(ctx context.Context, attempt adapter.AttemptSummary) (string, error) {
	var lastErr error
	for _, m := range f.markers {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		start := time.Now()
		feedback, err := m.MarkFeedback(ctx, attempt)
		metrics.ObserveMarkingLatency(m.Name(), err == nil, float64(time.Since(start).Milliseconds()))
		if err == nil {
			return feedback, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no marking provider configured")
	}
	return "", lastErr
}
