package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"chaincodec/internal/model"
)

type flakySink struct {
	failures int
	calls    int
	written  int
	closed   bool
}

func (f *flakySink) PutEventBatch(_ context.Context, events []*model.DecodedEvent) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("database is locked")
	}
	f.written += len(events)
	return nil
}

func (f *flakySink) Close() error {
	f.closed = true
	return nil
}

func TestRetrySinkRecovers(t *testing.T) {
	inner := &flakySink{failures: 2}
	sink := &RetrySink{Sink: inner, MaxRetries: 3, BaseDelay: time.Millisecond}

	events := []*model.DecodedEvent{{Schema: "A"}, {Schema: "B"}}
	if err := sink.PutEventBatch(context.Background(), events); err != nil {
		t.Fatalf("put: %v", err)
	}
	if inner.calls != 3 || inner.written != 2 {
		t.Fatalf("unexpected calls=%d written=%d", inner.calls, inner.written)
	}
	if err := sink.Close(); err != nil || !inner.closed {
		t.Fatalf("close not forwarded: %v", err)
	}
}

func TestRetrySinkGivesUp(t *testing.T) {
	inner := &flakySink{failures: 10}
	sink := &RetrySink{Sink: inner, MaxRetries: 2, BaseDelay: time.Millisecond}

	if err := sink.PutEventBatch(context.Background(), nil); err == nil {
		t.Fatalf("expected error after retries")
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetrySinkStopsOnCancel(t *testing.T) {
	inner := &flakySink{failures: 10}
	sink := &RetrySink{Sink: inner, MaxRetries: 5, BaseDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := sink.PutEventBatch(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
