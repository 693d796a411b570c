package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"chaincodec/internal/cosmos"
	"chaincodec/internal/decoder"
	"chaincodec/internal/evm"
	"chaincodec/internal/metrics"
	"chaincodec/internal/model"
	"chaincodec/internal/registry"
	"chaincodec/internal/solana"
)

// DefaultChunkSize bounds how many events are handed to a decoder at once.
const DefaultChunkSize = 10000

// Engine routes batches to the decoder registered for their chain.
type Engine struct {
	registry registry.Registry
	byChain  map[string]decoder.ChainDecoder
	byFamily map[model.ChainFamily]decoder.ChainDecoder
	logger   *zap.Logger
	metrics  *metrics.Metrics
	workers  int
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithWorkers bounds the parallel path; zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// NewEngine returns an engine with no decoders registered.
func NewEngine(reg registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		byChain:  make(map[string]decoder.ChainDecoder),
		byFamily: make(map[model.ChainFamily]decoder.ChainDecoder),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefaultEngine registers the EVM, Solana and Cosmos decoders by family.
func NewDefaultEngine(reg registry.Registry, opts ...Option) *Engine {
	e := NewEngine(reg, opts...)
	e.Register(evm.NewDecoder())
	e.Register(solana.NewDecoder())
	e.Register(cosmos.NewDecoder())
	return e
}

// Register makes dec the fallback for every chain of its family.
func (e *Engine) Register(dec decoder.ChainDecoder) {
	e.byFamily[dec.Family()] = dec
}

// RegisterChain binds dec to one chain slug, overriding the family decoder.
func (e *Engine) RegisterChain(slug string, dec decoder.ChainDecoder) {
	e.byChain[strings.ToLower(slug)] = dec
}

// DecoderFor returns the decoder for chain, by slug first and then by family.
func (e *Engine) DecoderFor(chain model.ChainID) (decoder.ChainDecoder, error) {
	slug := strings.ToLower(chain.Slug)
	if dec, ok := e.byChain[slug]; ok {
		return dec, nil
	}
	family := chain.Family
	if family == "" {
		if known, ok := model.KnownChain(slug); ok {
			family = known.Family
		}
	}
	if dec, ok := e.byFamily[family]; ok {
		return dec, nil
	}
	return nil, fmt.Errorf("no decoder registered for chain %q (family %q)", chain.Slug, family)
}

// Request is one batch decode call.
type Request struct {
	Chain  model.ChainID
	Events []model.RawEvent
	// ChunkSize defaults to DefaultChunkSize.
	ChunkSize int
	Mode      decoder.ErrorMode
	// OnProgress receives cumulative counts and forces the sequential path.
	OnProgress decoder.ProgressFunc
	Parallel   bool
}

// Decode decodes req.Events chunk by chunk. Indices in the result refer to
// positions in req.Events.
func (e *Engine) Decode(ctx context.Context, req Request) (decoder.BatchResult, error) {
	dec, err := e.DecoderFor(req.Chain)
	if err != nil {
		return decoder.BatchResult{}, err
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunks, err := SplitChunks(len(req.Events), chunkSize)
	if err != nil {
		return decoder.BatchResult{}, err
	}

	chain := req.Chain.Slug
	total := len(req.Events)
	e.metrics.ObserveBatch(total)
	e.logger.Info("batch decode started",
		zap.String("chain", chain),
		zap.Int("total", total),
		zap.Int("chunk_size", chunkSize),
		zap.String("mode", req.Mode.String()),
	)

	result := decoder.BatchResult{Events: make([]*model.DecodedEvent, 0, total)}
	for _, chunk := range chunks {
		opts := decoder.Options{Mode: req.Mode, Workers: e.workers}
		if req.OnProgress != nil {
			done := len(result.Events)
			opts.Progress = func(decoded, _ int) {
				req.OnProgress(done+decoded, total)
			}
		}

		started := time.Now()
		part, err := e.decodeChunk(ctx, dec, req.Events[chunk.From:chunk.To+1], opts, req.Parallel)
		e.metrics.ObserveLatency(chain, time.Since(started))
		if err != nil {
			var itemErr *model.BatchItemError
			if errors.As(err, &itemErr) {
				itemErr.Index += chunk.From
				e.metrics.DecodeError(chain, model.ErrorType(itemErr.Err))
				e.logger.Warn("batch decode aborted",
					zap.String("chain", chain),
					zap.Int("index", itemErr.Index),
					zap.Error(itemErr.Err),
				)
			}
			return decoder.BatchResult{}, err
		}

		for _, event := range part.Events {
			e.metrics.EventDecoded(chain, event.Schema)
		}
		for _, itemErr := range part.Errors {
			itemErr.Index += chunk.From
			e.metrics.DecodeError(chain, model.ErrorType(itemErr.Err))
			e.logger.Debug("event decode failed",
				zap.String("chain", chain),
				zap.Int("index", itemErr.Index),
				zap.Error(itemErr.Err),
			)
		}
		e.metrics.EventsSkipped(chain, part.Skipped)

		result.Events = append(result.Events, part.Events...)
		result.Errors = append(result.Errors, part.Errors...)
		result.Skipped += part.Skipped
	}

	e.logger.Info("batch decode completed",
		zap.String("chain", chain),
		zap.Int("decoded", len(result.Events)),
		zap.Int("errors", len(result.Errors)),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (e *Engine) decodeChunk(ctx context.Context, dec decoder.ChainDecoder, events []model.RawEvent, opts decoder.Options, parallel bool) (decoder.BatchResult, error) {
	if bd, ok := dec.(decoder.BatchDecoder); ok {
		return bd.DecodeBatch(ctx, events, e.registry, opts)
	}
	if parallel && opts.Progress == nil {
		return decoder.DecodeBatchParallel(ctx, dec, e.registry, events, opts)
	}
	return decoder.DecodeBatch(ctx, dec, e.registry, events, opts)
}

// Group is the subset of a mixed input that belongs to one chain.
type Group struct {
	Chain   model.ChainID
	Indices []int
	Events  []model.RawEvent
}

// GroupByChain splits events by chain slug in first-seen order, keeping the
// original index of every event.
func GroupByChain(events []model.RawEvent) []Group {
	var groups []Group
	positions := make(map[string]int)
	for i, raw := range events {
		slug := strings.ToLower(raw.Chain.Slug)
		pos, ok := positions[slug]
		if !ok {
			pos = len(groups)
			positions[slug] = pos
			groups = append(groups, Group{Chain: raw.Chain})
		}
		groups[pos].Indices = append(groups[pos].Indices, i)
		groups[pos].Events = append(groups[pos].Events, raw)
	}
	return groups
}
