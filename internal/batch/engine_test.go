package batch

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"chaincodec/internal/decoder"
	"chaincodec/internal/evm"
	"chaincodec/internal/metrics"
	"chaincodec/internal/model"
	"chaincodec/internal/registry"
	"chaincodec/internal/solana"
)

func transferSchema(t *testing.T) model.Schema {
	t.Helper()
	schema := model.Schema{
		Name:    "Transfer",
		Version: 1,
		Chains:  []string{"ethereum"},
		Event:   "Transfer",
		Fields: []model.NamedField{
			{Name: "from", FieldDef: model.FieldDef{Type: model.AddressType(), Indexed: true}},
			{Name: "to", FieldDef: model.FieldDef{Type: model.AddressType(), Indexed: true}},
			{Name: "value", FieldDef: model.FieldDef{Type: model.UintType(256)}},
		},
	}
	fp, err := evm.SchemaFingerprint(&schema)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	schema.Fingerprint = fp
	return schema
}

func newRegistry(t *testing.T) *registry.Memory {
	t.Helper()
	reg := registry.NewMemory()
	if err := reg.Insert(transferSchema(t)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return reg
}

func transfer(t *testing.T, i int) model.RawEvent {
	t.Helper()
	schema := transferSchema(t)
	from := common.BigToHash(big.NewInt(int64(1000 + i)))
	to := common.BigToHash(big.NewInt(int64(2000 + i)))
	return model.RawEvent{
		Chain:       model.EVMChain("ethereum", 1),
		TxHash:      common.BigToHash(big.NewInt(int64(i))).Hex(),
		BlockNumber: uint64(100 + i),
		LogIndex:    uint32(i),
		Topics:      []string{string(schema.Fingerprint), from.Hex(), to.Hex()},
		Data:        common.LeftPadBytes(big.NewInt(int64(i+1)).Bytes(), 32),
		Address:     "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
	}
}

func unmatched(i int) model.RawEvent {
	return model.RawEvent{
		Chain:  model.EVMChain("ethereum", 1),
		Topics: []string{common.BigToHash(big.NewInt(99)).Hex()},
		Data:   make([]byte, 32),
		TxHash: common.BigToHash(big.NewInt(int64(i))).Hex(),
	}
}

func fiveValidOneUnmatched(t *testing.T) []model.RawEvent {
	events := make([]model.RawEvent, 0, 6)
	for i := 0; i < 5; i++ {
		events = append(events, transfer(t, i))
	}
	return append(events, unmatched(5))
}

func TestEngineModes(t *testing.T) {
	engine := NewDefaultEngine(newRegistry(t))
	events := fiveValidOneUnmatched(t)
	chain := model.EVMChain("ethereum", 1)

	for _, chunkSize := range []int{0, 2} {
		skip, err := engine.Decode(context.Background(), Request{Chain: chain, Events: events, Mode: decoder.Skip, ChunkSize: chunkSize})
		if err != nil {
			t.Fatalf("skip: %v", err)
		}
		if len(skip.Events) != 5 || len(skip.Errors) != 0 || skip.Skipped != 1 {
			t.Fatalf("skip result mismatch: %d events, %d errors, %d skipped", len(skip.Events), len(skip.Errors), skip.Skipped)
		}

		collect, err := engine.Decode(context.Background(), Request{Chain: chain, Events: events, Mode: decoder.Collect, ChunkSize: chunkSize})
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		if len(collect.Events) != 5 || len(collect.Errors) != 1 || collect.Errors[0].Index != 5 {
			t.Fatalf("collect result mismatch: %+v", collect.Errors)
		}
		if !errors.Is(collect.Errors[0], model.ErrSchemaNotFound) {
			t.Fatalf("collect error kind: %v", collect.Errors[0])
		}

		throw, err := engine.Decode(context.Background(), Request{Chain: chain, Events: events, Mode: decoder.Throw, ChunkSize: chunkSize})
		var itemErr *model.BatchItemError
		if !errors.As(err, &itemErr) || itemErr.Index != 5 {
			t.Fatalf("throw should fail at index 5, got %v", err)
		}
		if len(throw.Events) != 0 {
			t.Fatalf("throw should return no events")
		}
	}
}

func TestEngineCumulativeProgress(t *testing.T) {
	engine := NewDefaultEngine(newRegistry(t))
	events := fiveValidOneUnmatched(t)

	var calls [][2]int
	_, err := engine.Decode(context.Background(), Request{
		Chain:      model.EVMChain("ethereum", 1),
		Events:     events,
		ChunkSize:  4,
		Mode:       decoder.Skip,
		Parallel:   true,
		OnProgress: func(decoded, total int) { calls = append(calls, [2]int{decoded, total}) },
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := [][2]int{{1, 6}, {2, 6}, {3, 6}, {4, 6}, {5, 6}, {5, 6}}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("progress mismatch: %v != %v", calls, want)
	}
}

func TestEngineParallelMatchesSequential(t *testing.T) {
	engine := NewDefaultEngine(newRegistry(t), WithWorkers(3))
	events := make([]model.RawEvent, 0, 50)
	for i := 0; i < 50; i++ {
		if i%7 == 3 {
			events = append(events, unmatched(i))
			continue
		}
		events = append(events, transfer(t, i))
	}

	req := Request{Chain: model.EVMChain("ethereum", 1), Events: events, Mode: decoder.Collect, ChunkSize: 16}
	sequential, err := engine.Decode(context.Background(), req)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	req.Parallel = true
	parallel, err := engine.Decode(context.Background(), req)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	if !reflect.DeepEqual(sequential, parallel) {
		t.Fatalf("parallel result differs from sequential")
	}
	for i, itemErr := range parallel.Errors {
		if itemErr.Index%7 != 3 {
			t.Fatalf("error %d has unexpected index %d", i, itemErr.Index)
		}
	}
}

func TestEngineMetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	core, logs := observer.New(zapcore.DebugLevel)
	engine := NewDefaultEngine(newRegistry(t), WithMetrics(metrics.New(reg)), WithLogger(zap.New(core)))

	_, err := engine.Decode(context.Background(), Request{
		Chain:  model.EVMChain("ethereum", 1),
		Events: fiveValidOneUnmatched(t),
		Mode:   decoder.Collect,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	expected := `
# HELP chaincodec_events_decoded_total Total number of events decoded
# TYPE chaincodec_events_decoded_total counter
chaincodec_events_decoded_total{chain="ethereum",schema="Transfer"} 5
# HELP chaincodec_decode_errors_total Total number of events that failed to decode
# TYPE chaincodec_decode_errors_total counter
chaincodec_decode_errors_total{chain="ethereum",error_type="schema_not_found"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"chaincodec_events_decoded_total", "chaincodec_decode_errors_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}

	if n := logs.FilterMessage("batch decode started").Len(); n != 1 {
		t.Fatalf("expected one start log, got %d", n)
	}
	if n := logs.FilterMessage("event decode failed").Len(); n != 1 {
		t.Fatalf("expected one failure log, got %d", n)
	}
	completed := logs.FilterMessage("batch decode completed").All()
	if len(completed) != 1 || completed[0].ContextMap()["decoded"] != int64(5) {
		t.Fatalf("completion log mismatch: %+v", completed)
	}
}

func TestDecoderSelection(t *testing.T) {
	engine := NewDefaultEngine(registry.NewMemory())

	dec, err := engine.DecoderFor(model.ChainID{Slug: "osmosis"})
	if err != nil || dec.Family() != model.FamilyCosmos {
		t.Fatalf("known slug should resolve to cosmos: %v", err)
	}
	if _, err := engine.DecoderFor(model.ChainID{Slug: "unknown"}); err == nil {
		t.Fatalf("unknown chain should fail")
	}

	override := solana.NewDecoder()
	engine.RegisterChain("Eclipse", override)
	dec, err = engine.DecoderFor(model.ChainID{Slug: "eclipse", Family: model.FamilyEVM})
	if err != nil || dec != decoder.ChainDecoder(override) {
		t.Fatalf("slug override should win over family: %v", err)
	}
}

func TestEngineCancellation(t *testing.T) {
	engine := NewDefaultEngine(newRegistry(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Decode(ctx, Request{Chain: model.EVMChain("ethereum", 1), Events: fiveValidOneUnmatched(t)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestGroupByChain(t *testing.T) {
	events := []model.RawEvent{
		{Chain: model.EVMChain("ethereum", 1)},
		{Chain: model.SolanaChain("solana")},
		{Chain: model.EVMChain("Ethereum", 1)},
		{Chain: model.CosmosChain("osmosis")},
	}
	groups := GroupByChain(events)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if !reflect.DeepEqual(groups[0].Indices, []int{0, 2}) || groups[1].Indices[0] != 1 || groups[2].Indices[0] != 3 {
		t.Fatalf("group indices mismatch: %+v", groups)
	}
}
