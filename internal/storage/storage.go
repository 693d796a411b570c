package storage

import (
	"context"

	"chaincodec/internal/model"
)

// Sink persists decoded events.
type Sink interface {
	PutEventBatch(ctx context.Context, events []*model.DecodedEvent) error
	Close() error
}
