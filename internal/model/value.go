package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ValueKind tags a NormalizedValue variant.
type ValueKind string

const (
	ValueUint      ValueKind = "uint"
	ValueBigUint   ValueKind = "biguint"
	ValueInt       ValueKind = "int"
	ValueBigInt    ValueKind = "bigint"
	ValueBool      ValueKind = "bool"
	ValueBytes     ValueKind = "bytes"
	ValueStr       ValueKind = "str"
	ValueAddress   ValueKind = "address"
	ValuePubkey    ValueKind = "pubkey"
	ValueBech32    ValueKind = "bech32"
	ValueHash256   ValueKind = "hash256"
	ValueTimestamp ValueKind = "timestamp"
	ValueArray     ValueKind = "array"
	ValueTuple     ValueKind = "tuple"
	ValueNull      ValueKind = "null"
)

var (
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// NormalizedValue is a decoded field value in the chain-agnostic shape.
// The zero value is Null.
type NormalizedValue struct {
	kind   ValueKind
	num    *big.Int
	text   string
	flag   bool
	raw    []byte
	ts     int64
	items  []NormalizedValue
	fields []NamedValue
}

// NamedValue is one component of a tuple value.
type NamedValue struct {
	Name  string          `json:"name"`
	Value NormalizedValue `json:"value"`
}

// Null returns the null value.
func Null() NormalizedValue { return NormalizedValue{kind: ValueNull} }

// NewUint returns Uint when v fits in 128 bits, otherwise a BigUint decimal string.
func NewUint(v *big.Int) NormalizedValue {
	if v.Sign() < 0 {
		return NewInt(v)
	}
	if v.Cmp(maxUint128) > 0 {
		return NormalizedValue{kind: ValueBigUint, text: v.String()}
	}
	return NormalizedValue{kind: ValueUint, num: new(big.Int).Set(v)}
}

// NewUint64 wraps a native unsigned integer.
func NewUint64(v uint64) NormalizedValue {
	return NormalizedValue{kind: ValueUint, num: new(big.Int).SetUint64(v)}
}

// NewInt returns Int when v fits in a signed 128-bit range, otherwise a BigInt decimal string.
func NewInt(v *big.Int) NormalizedValue {
	if v.Cmp(maxInt128) > 0 || v.Cmp(minInt128) < 0 {
		return NormalizedValue{kind: ValueBigInt, text: v.String()}
	}
	return NormalizedValue{kind: ValueInt, num: new(big.Int).Set(v)}
}

// NewInt64 wraps a native signed integer.
func NewInt64(v int64) NormalizedValue {
	return NormalizedValue{kind: ValueInt, num: big.NewInt(v)}
}

// NewBigUint wraps an unsigned decimal string without range checks.
func NewBigUint(decimal string) NormalizedValue {
	return NormalizedValue{kind: ValueBigUint, text: decimal}
}

// NewBigInt wraps a signed decimal string without range checks.
func NewBigInt(decimal string) NormalizedValue {
	return NormalizedValue{kind: ValueBigInt, text: decimal}
}

func NewBool(v bool) NormalizedValue { return NormalizedValue{kind: ValueBool, flag: v} }

func NewBytes(b []byte) NormalizedValue {
	return NormalizedValue{kind: ValueBytes, raw: append([]byte{}, b...)}
}

func NewStr(s string) NormalizedValue       { return NormalizedValue{kind: ValueStr, text: s} }
func NewAddress(s string) NormalizedValue   { return NormalizedValue{kind: ValueAddress, text: s} }
func NewPubkey(s string) NormalizedValue    { return NormalizedValue{kind: ValuePubkey, text: s} }
func NewBech32(s string) NormalizedValue    { return NormalizedValue{kind: ValueBech32, text: s} }
func NewHash256(s string) NormalizedValue   { return NormalizedValue{kind: ValueHash256, text: s} }
func NewTimestamp(ts int64) NormalizedValue { return NormalizedValue{kind: ValueTimestamp, ts: ts} }

func NewArray(items ...NormalizedValue) NormalizedValue {
	if items == nil {
		items = []NormalizedValue{}
	}
	return NormalizedValue{kind: ValueArray, items: items}
}

func NewTuple(fields ...NamedValue) NormalizedValue {
	if fields == nil {
		fields = []NamedValue{}
	}
	return NormalizedValue{kind: ValueTuple, fields: fields}
}

// Kind returns the variant tag.
func (v NormalizedValue) Kind() ValueKind {
	if v.kind == "" {
		return ValueNull
	}
	return v.kind
}

func (v NormalizedValue) IsNull() bool { return v.Kind() == ValueNull }

// AsAddress returns the hex address if v is an Address.
func (v NormalizedValue) AsAddress() (string, bool) {
	if v.kind != ValueAddress {
		return "", false
	}
	return v.text, true
}

// AsUint returns a copy of the integer if v is a Uint.
func (v NormalizedValue) AsUint() (*big.Int, bool) {
	if v.kind != ValueUint {
		return nil, false
	}
	return new(big.Int).Set(v.num), true
}

// AsInt returns a copy of the integer if v is an Int.
func (v NormalizedValue) AsInt() (*big.Int, bool) {
	if v.kind != ValueInt {
		return nil, false
	}
	return new(big.Int).Set(v.num), true
}

func (v NormalizedValue) AsBool() (bool, bool) {
	return v.flag, v.kind == ValueBool
}

func (v NormalizedValue) AsBytes() ([]byte, bool) {
	if v.kind != ValueBytes {
		return nil, false
	}
	return append([]byte{}, v.raw...), true
}

func (v NormalizedValue) AsTimestamp() (int64, bool) {
	return v.ts, v.kind == ValueTimestamp
}

// Text returns the string payload of Str, BigUint, BigInt and the address/hash variants.
func (v NormalizedValue) Text() (string, bool) {
	switch v.kind {
	case ValueStr, ValueBigUint, ValueBigInt, ValueAddress, ValuePubkey, ValueBech32, ValueHash256:
		return v.text, true
	default:
		return "", false
	}
}

func (v NormalizedValue) Items() []NormalizedValue { return v.items }

func (v NormalizedValue) Fields() []NamedValue { return v.fields }

// String renders a human-readable form.
func (v NormalizedValue) String() string {
	switch v.Kind() {
	case ValueUint, ValueInt:
		return v.num.String()
	case ValueBool:
		if v.flag {
			return "true"
		}
		return "false"
	case ValueBytes:
		return hexutil.Encode(v.raw)
	case ValueTimestamp:
		return fmt.Sprintf("%d", v.ts)
	case ValueArray:
		parts := make([]string, 0, len(v.items))
		for _, item := range v.items {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValueTuple:
		parts := make([]string, 0, len(v.fields))
		for _, f := range v.fields {
			parts = append(parts, f.Name+": "+f.Value.String())
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ValueNull:
		return "null"
	default:
		return v.text
	}
}

// Equal reports deep equality.
func (v NormalizedValue) Equal(o NormalizedValue) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case ValueUint, ValueInt:
		return v.num.Cmp(o.num) == 0
	case ValueBool:
		return v.flag == o.flag
	case ValueBytes:
		return bytes.Equal(v.raw, o.raw)
	case ValueTimestamp:
		return v.ts == o.ts
	case ValueArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case ValueTuple:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	case ValueNull:
		return true
	default:
		return v.text == o.text
	}
}

type valueJSON struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes the value as {"type": kind, "value": payload}.
func (v NormalizedValue) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch v.Kind() {
	case ValueUint, ValueInt:
		payload = v.num
	case ValueBool:
		payload = v.flag
	case ValueBytes:
		payload = hexutil.Bytes(v.raw)
	case ValueTimestamp:
		payload = v.ts
	case ValueArray:
		payload = v.items
	case ValueTuple:
		payload = v.fields
	case ValueNull:
		return json.Marshal(valueJSON{Type: ValueNull})
	default:
		payload = v.text
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s value: %w", v.kind, err)
	}
	return json.Marshal(valueJSON{Type: v.kind, Value: raw})
}

// UnmarshalJSON decodes the tagged document form.
func (v *NormalizedValue) UnmarshalJSON(data []byte) error {
	var doc valueJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	out := NormalizedValue{kind: doc.Type}
	var err error
	switch doc.Type {
	case ValueUint, ValueInt:
		out.num = new(big.Int)
		err = json.Unmarshal(doc.Value, out.num)
	case ValueBool:
		err = json.Unmarshal(doc.Value, &out.flag)
	case ValueBytes:
		var b hexutil.Bytes
		err = json.Unmarshal(doc.Value, &b)
		out.raw = b
	case ValueTimestamp:
		err = json.Unmarshal(doc.Value, &out.ts)
	case ValueArray:
		err = json.Unmarshal(doc.Value, &out.items)
		if out.items == nil {
			out.items = []NormalizedValue{}
		}
	case ValueTuple:
		err = json.Unmarshal(doc.Value, &out.fields)
		if out.fields == nil {
			out.fields = []NamedValue{}
		}
	case ValueNull:
	case ValueBigUint, ValueBigInt, ValueStr, ValueAddress, ValuePubkey, ValueBech32, ValueHash256:
		err = json.Unmarshal(doc.Value, &out.text)
	default:
		return fmt.Errorf("unknown value type %q", doc.Type)
	}
	if err != nil {
		return fmt.Errorf("decode %s value: %w", doc.Type, err)
	}
	*v = out
	return nil
}
