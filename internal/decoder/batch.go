package decoder

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"chaincodec/internal/model"
	"chaincodec/internal/registry"
)

// add applies the error mode to one outcome. Under Throw it returns the
// batch-level error that must abort the batch.
func (r *BatchResult) add(index int, event *model.DecodedEvent, err error, mode ErrorMode) error {
	if err == nil {
		r.Events = append(r.Events, event)
		return nil
	}
	switch mode {
	case Throw:
		return &model.BatchItemError{Index: index, Err: err}
	case Collect:
		r.Errors = append(r.Errors, &model.BatchItemError{Index: index, Err: err})
	default:
		r.Skipped++
	}
	return nil
}

// DecodeBatch decodes events in order. Cancellation is checked between items.
func DecodeBatch(ctx context.Context, dec ChainDecoder, reg registry.Registry, events []model.RawEvent, opts Options) (BatchResult, error) {
	total := len(events)
	result := BatchResult{Events: make([]*model.DecodedEvent, 0, total)}
	for i, raw := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		event, err := DecodeOne(dec, reg, raw)
		if batchErr := result.add(i, event, err, opts.Mode); batchErr != nil {
			return BatchResult{}, batchErr
		}
		if opts.Progress != nil {
			opts.Progress(len(result.Events), total)
		}
	}
	return result, nil
}

type outcome struct {
	event *model.DecodedEvent
	err   error
}

// DecodeBatchParallel decodes contiguous partitions concurrently and merges
// them in input order, so Skip and Collect results equal DecodeBatch's.
// Under Throw the lowest failing index is reported. Partitions run to
// completion once started; progress callbacks are ignored.
func DecodeBatchParallel(ctx context.Context, dec ChainDecoder, reg registry.Registry, events []model.RawEvent, opts Options) (BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(events) {
		workers = len(events)
	}

	outcomes := make([]outcome, len(events))
	if workers > 0 {
		size := (len(events) + workers - 1) / workers
		var g errgroup.Group
		g.SetLimit(workers)
		for start := 0; start < len(events); start += size {
			end := start + size
			if end > len(events) {
				end = len(events)
			}
			from, to := start, end
			g.Go(func() error {
				for i := from; i < to; i++ {
					event, err := DecodeOne(dec, reg, events[i])
					outcomes[i] = outcome{event: event, err: err}
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	result := BatchResult{Events: make([]*model.DecodedEvent, 0, len(events))}
	for i, o := range outcomes {
		if batchErr := result.add(i, o.event, o.err, opts.Mode); batchErr != nil {
			return BatchResult{}, batchErr
		}
	}
	return result, nil
}
