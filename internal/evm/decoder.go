package evm

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"chaincodec/internal/decoder"
	"chaincodec/internal/model"
)

// Decoder decodes EVM logs. topics[0] is the event signature hash,
// topics[1..] hold indexed parameters and data holds the ABI-encoded rest.
type Decoder struct{}

var _ decoder.ChainDecoder = (*Decoder)(nil)

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Family() model.ChainFamily { return model.FamilyEVM }

// Fingerprint returns the lowercase topic0, or the zero hash when topic0 is
// missing or malformed.
func (d *Decoder) Fingerprint(raw model.RawEvent) model.EventFingerprint {
	return fingerprintFromTopics(raw.Topics)
}

// DecodeEvent decodes indexed fields from topics and the remaining fields
// from data. A missing topic or data slot for a non-nullable field fails the
// event; any other field failure is recorded and the field becomes Null.
func (d *Decoder) DecodeEvent(raw model.RawEvent, schema *model.Schema) (*model.DecodedEvent, error) {
	fp := d.Fingerprint(raw)
	event := model.NewDecodedEvent(raw, schema, fp)

	for i, field := range schema.IndexedFields() {
		topicIdx := i + 1
		if topicIdx >= len(raw.Topics) {
			if !field.Nullable {
				err := model.MissingField(field.Name)
				err.Fingerprint = fp
				return nil, err
			}
			event.Fields[field.Name] = model.Null()
			continue
		}
		value, err := decodeIndexed(raw.Topics[topicIdx], field.Type)
		if err != nil {
			decoder.Lenient(event, field.Name, err)
			continue
		}
		event.Fields[field.Name] = value
	}

	if err := decodeData(event, raw.Data, schema.DataFields()); err != nil {
		if de, ok := err.(*model.DecodeError); ok {
			de.Fingerprint = fp
		}
		return nil, err
	}
	return event, nil
}

// decodeIndexed decodes one 32-byte topic. Hashed reference types cannot be
// recovered and are returned as the raw topic bytes.
func decodeIndexed(topic string, t model.CanonicalType) (model.NormalizedValue, error) {
	data, err := decodeTopic(topic)
	if err != nil {
		return model.NormalizedValue{}, fmt.Errorf("%w: %v", model.ErrInvalidRawEvent, err)
	}
	if hashedWhenIndexed(t) {
		return model.NewBytes(data), nil
	}

	typ, err := abiType(t)
	if err != nil {
		return model.NormalizedValue{}, err
	}
	values, err := unpack(abi.Arguments{{Name: "topic", Type: typ}}, data)
	if err != nil {
		return model.NormalizedValue{}, fmt.Errorf("%w: topic: %v", model.ErrDecodeFailed, err)
	}
	return normalize(t, reflect.ValueOf(values[0]))
}

// decodeData unpacks the non-indexed fields as one tuple. When the tuple as a
// whole does not decode, each field is retried on its own head slot so that a
// single malformed field does not discard the others.
func decodeData(event *model.DecodedEvent, data []byte, fields []model.NamedField) error {
	if len(fields) == 0 {
		return nil
	}

	args := make(abi.Arguments, 0, len(fields))
	for i, f := range fields {
		typ, err := abiType(f.Type)
		if err != nil {
			return &model.DecodeError{Kind: model.ErrUnsupportedType, Field: f.Name, Reason: err.Error()}
		}
		args = append(args, abi.Argument{Name: "f" + strconv.Itoa(i), Type: typ})
	}

	if values, err := unpack(args, data); err == nil && len(values) == len(fields) {
		for i, f := range fields {
			setField(event, f, values[i])
		}
		return nil
	}

	offset := 0
	for i, f := range fields {
		slot := offset
		offset += headSize(f.Type)

		if slot+headSize(f.Type) > len(data) {
			if !f.Nullable {
				return model.MissingField(f.Name)
			}
			event.Fields[f.Name] = model.Null()
			continue
		}

		isolated := make(abi.Arguments, 0, slot/32+1)
		for j := 0; j < slot/32; j++ {
			isolated = append(isolated, abi.Argument{Name: "pad" + strconv.Itoa(j), Type: bytes32Type})
		}
		isolated = append(isolated, args[i])

		values, err := unpack(isolated, data)
		if err != nil {
			decoder.Lenient(event, f.Name, model.DecodeFailed(f.Name, "%v", err))
			continue
		}
		setField(event, f, values[len(values)-1])
	}
	return nil
}

func setField(event *model.DecodedEvent, f model.NamedField, value interface{}) {
	normalized, err := normalize(f.Type, reflect.ValueOf(value))
	if err != nil {
		decoder.Lenient(event, f.Name, err)
		return
	}
	event.Fields[f.Name] = normalized
}

var bytes32Type, _ = abi.NewType("bytes32", "", nil)

// unpack guards against panics inside the ABI decoder on hostile input.
func unpack(args abi.Arguments, data []byte) (values []interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("abi unpack: %v", r)
		}
	}()
	return args.Unpack(data)
}
