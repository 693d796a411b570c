package storage

import (
	"context"
	"time"

	"chaincodec/internal/model"
)

// RetrySink retries failed batch writes with exponential backoff.
type RetrySink struct {
	Sink       Sink
	MaxRetries int
	BaseDelay  time.Duration
}

var _ Sink = (*RetrySink)(nil)

func (r *RetrySink) PutEventBatch(ctx context.Context, events []*model.DecodedEvent) error {
	return withRetry(ctx, r.MaxRetries, r.BaseDelay, func(ctx context.Context) error {
		return r.Sink.PutEventBatch(ctx, events)
	})
}

func (r *RetrySink) Close() error {
	return r.Sink.Close()
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || ctx.Err() != nil {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
