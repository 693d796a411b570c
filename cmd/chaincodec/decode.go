package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chaincodec/internal/batch"
	"chaincodec/internal/config"
	"chaincodec/internal/decoder"
	"chaincodec/internal/metrics"
	"chaincodec/internal/model"
	"chaincodec/internal/registry"
	"chaincodec/internal/storage"
	"chaincodec/internal/storage/sqlite"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Schemas) == 0 {
		return fmt.Errorf("at least one schema source is required")
	}
	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mtr *metrics.Metrics
	if cfg.MetricsAddr != "" {
		mtr = metrics.New(nil)
		srv := serveMetrics(cfg.MetricsAddr, mtr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics enabled", zap.String("addr", cfg.MetricsAddr))
	}

	reg := registry.NewMemory()
	engine := batch.NewDefaultEngine(reg,
		batch.WithLogger(logger),
		batch.WithMetrics(mtr),
		batch.WithWorkers(cfg.Workers),
	)
	if err := applyChainFamilies(engine, cfg.ChainFamily); err != nil {
		return err
	}

	loaded, err := reg.Load(cfg.Schemas, registry.DocumentParser{Fingerprint: engine.SchemaFingerprint})
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	sinks, store, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, sink := range sinks {
			sink.Close()
		}
	}()

	errWriter, err := storage.NewWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.Strings("schemas", cfg.Schemas),
		zap.Int("schemas_loaded", loaded),
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("error_mode", cfg.ErrorMode.String()),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.Bool("parallel", cfg.Parallel),
	)

	var (
		events    []model.RawEvent
		positions []int
		failures  []model.DecodeFailure
		lines     int
		skipped   int
		throw     throwState
	)
	err = storage.ScanRawEvents(inputFile, func(index int, raw model.RawEvent, parseErr error) error {
		lines++
		if parseErr != nil {
			failure := model.DecodeFailure{
				Index:     index,
				ErrorType: model.ErrorType(parseErr),
				Error:     parseErr.Error(),
			}
			switch cfg.ErrorMode {
			case decoder.Skip:
				skipped++
			case decoder.Throw:
				throw.record(index, failure, parseErr)
				return errStopScan
			default:
				failures = append(failures, failure)
			}
			return nil
		}
		events = append(events, raw)
		positions = append(positions, index)
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return err
	}

	// Under Throw nothing reaches the sinks and the earliest failing line wins.
	var batches [][]*model.DecodedEvent
	for _, group := range batch.GroupByChain(events) {
		result, err := engine.Decode(ctx, batch.Request{
			Chain:     group.Chain,
			Events:    group.Events,
			ChunkSize: cfg.ChunkSize,
			Mode:      cfg.ErrorMode,
			Parallel:  cfg.Parallel,
		})
		if err != nil {
			var itemErr *model.BatchItemError
			if !errors.As(err, &itemErr) {
				return err
			}
			index := positions[group.Indices[itemErr.Index]]
			throw.record(index, model.NewDecodeFailure(index, group.Events[itemErr.Index], itemErr.Err), itemErr.Err)
			continue
		}

		for _, itemErr := range result.Errors {
			index := positions[group.Indices[itemErr.Index]]
			failures = append(failures, model.NewDecodeFailure(index, group.Events[itemErr.Index], itemErr.Err))
		}
		batches = append(batches, result.Events)
		skipped += result.Skipped
	}

	if throw.err != nil {
		if err := errWriter.Write(throw.failure); err != nil {
			return errors.Join(throw.err, fmt.Errorf("write decode failure: %w", err))
		}
		return throw.err
	}

	sort.SliceStable(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
	for _, failure := range failures {
		if err := errWriter.Write(failure); err != nil {
			return fmt.Errorf("write decode failure: %w", err)
		}
	}

	decoded := 0
	for _, batchEvents := range batches {
		for _, sink := range sinks {
			if err := sink.PutEventBatch(ctx, batchEvents); err != nil {
				return err
			}
		}
		decoded += len(batchEvents)
	}

	fields := []zap.Field{
		zap.Int("records", lines),
		zap.Int("decoded", decoded),
		zap.Int("errors", len(failures)),
		zap.Int("skipped", skipped),
	}
	if store != nil {
		stored, err := store.Count(ctx, "")
		if err != nil {
			return err
		}
		fields = append(fields, zap.Int("sqlite_events", stored))
	}
	logger.Info("decode complete", fields...)
	return nil
}

var errStopScan = errors.New("stop scan")

// throwState keeps the failure with the lowest input index.
type throwState struct {
	err     *model.BatchItemError
	failure model.DecodeFailure
}

func (t *throwState) record(index int, failure model.DecodeFailure, err error) {
	if t.err != nil && t.err.Index <= index {
		return
	}
	t.err = &model.BatchItemError{Index: index, Err: err}
	t.failure = failure
}

// applyChainFamilies binds extra chain slugs to an already registered family decoder.
func applyChainFamilies(engine *batch.Engine, families map[string]string) error {
	for slug, family := range families {
		dec, err := engine.DecoderFor(model.ChainID{Slug: slug, Family: model.ChainFamily(strings.ToLower(family))})
		if err != nil {
			return fmt.Errorf("chain-family %s=%s: %w", slug, family, err)
		}
		engine.RegisterChain(slug, dec)
	}
	return nil
}

// openSinks opens the JSONL sink and, when configured, the SQLite store.
func openSinks(ctx context.Context, cfg config.DecodeConfig) ([]storage.Sink, *sqlite.Store, error) {
	jsonl, err := storage.NewJsonlSink(cfg.Out, false)
	if err != nil {
		return nil, nil, err
	}
	sinks := []storage.Sink{jsonl}

	if cfg.SQLite == "" {
		return sinks, nil, nil
	}
	store, err := sqlite.Open(cfg.SQLite)
	if err != nil {
		jsonl.Close()
		return nil, nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		jsonl.Close()
		return nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}
	sinks = append(sinks, &storage.RetrySink{Sink: store, MaxRetries: 3, BaseDelay: 200 * time.Millisecond})
	return sinks, store, nil
}

func serveMetrics(addr string, mtr *metrics.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mtr.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return srv
}
