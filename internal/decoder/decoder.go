package decoder

import (
	"context"
	"fmt"
	"strings"

	"chaincodec/internal/model"
	"chaincodec/internal/registry"
)

// ChainDecoder turns raw events of one chain family into decoded events.
// Implementations hold no mutable state and are safe for concurrent use.
type ChainDecoder interface {
	Family() model.ChainFamily
	// Fingerprint derives the routing key from the wire identification bytes only.
	Fingerprint(raw model.RawEvent) model.EventFingerprint
	DecodeEvent(raw model.RawEvent, schema *model.Schema) (*model.DecodedEvent, error)
}

// BatchDecoder is implemented by decoders that replace the default batch algorithm.
type BatchDecoder interface {
	DecodeBatch(ctx context.Context, events []model.RawEvent, reg registry.Registry, opts Options) (BatchResult, error)
}

// ErrorMode selects how batch decoding treats failed items.
type ErrorMode int

const (
	// Skip omits failed items.
	Skip ErrorMode = iota
	// Collect returns failed items next to the successes.
	Collect
	// Throw aborts on the first failed item.
	Throw
)

func (m ErrorMode) String() string {
	switch m {
	case Skip:
		return "skip"
	case Collect:
		return "collect"
	case Throw:
		return "throw"
	default:
		return fmt.Sprintf("ErrorMode(%d)", int(m))
	}
}

// ParseErrorMode parses skip, collect or throw.
func ParseErrorMode(s string) (ErrorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "":
		return Skip, nil
	case "collect":
		return Collect, nil
	case "throw":
		return Throw, nil
	default:
		return Skip, fmt.Errorf("unknown error mode %q", s)
	}
}

// ProgressFunc receives the decoded count so far and the batch size.
type ProgressFunc func(decoded, total int)

// Options controls a batch decode.
type Options struct {
	Mode     ErrorMode
	Progress ProgressFunc
	// Workers bounds the parallel path; zero means GOMAXPROCS.
	Workers int
}

// BatchResult holds successes in input order and, under Collect, the failures.
type BatchResult struct {
	Events  []*model.DecodedEvent
	Errors  []*model.BatchItemError
	Skipped int
}

// Resolve finds the schema for raw. Schemas restricted to other chains or
// other emitting contracts are treated as unmatched.
func Resolve(dec ChainDecoder, reg registry.Registry, raw model.RawEvent) (*model.Schema, model.EventFingerprint, error) {
	fp := dec.Fingerprint(raw)
	schema, ok := reg.GetByFingerprint(fp)
	if !ok {
		return nil, fp, model.SchemaNotFound(fp)
	}
	if raw.Chain.Slug != "" && !schema.AppliesTo(raw.Chain.Slug) {
		err := model.SchemaNotFound(fp)
		err.Reason = fmt.Sprintf("%s does not apply to chain %s", schema.Name, raw.Chain.Slug)
		return nil, fp, err
	}
	if !schema.MatchesAddress(raw.Address) {
		err := model.SchemaNotFound(fp)
		err.Reason = fmt.Sprintf("address %s not allowed for %s", raw.Address, schema.Name)
		return nil, fp, err
	}
	return schema, fp, nil
}

// DecodeOne resolves the schema for raw and decodes it.
func DecodeOne(dec ChainDecoder, reg registry.Registry, raw model.RawEvent) (*model.DecodedEvent, error) {
	schema, _, err := Resolve(dec, reg, raw)
	if err != nil {
		return nil, err
	}
	return dec.DecodeEvent(raw, schema)
}

// Lenient replaces a failed field with Null and records the failure.
func Lenient(event *model.DecodedEvent, field string, err error) {
	event.Fields[field] = model.Null()
	event.DecodeErrors[field] = err.Error()
}
