package evm

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"chaincodec/internal/model"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// normalize converts a value unpacked by go-ethereum into the canonical shape
// declared by t.
func normalize(t model.CanonicalType, v reflect.Value) (model.NormalizedValue, error) {
	switch t.Kind {
	case model.KindUint, model.KindDecimal:
		n, err := asBigInt(v)
		if err != nil {
			return model.NormalizedValue{}, err
		}
		return model.NewUint(n), nil
	case model.KindInt:
		n, err := asBigInt(v)
		if err != nil {
			return model.NormalizedValue{}, err
		}
		return model.NewInt(n), nil
	case model.KindTimestamp:
		n, err := asBigInt(v)
		if err != nil {
			return model.NormalizedValue{}, err
		}
		if !n.IsInt64() {
			return model.NormalizedValue{}, fmt.Errorf("%w: timestamp %s out of range", model.ErrTypeMismatch, n)
		}
		return model.NewTimestamp(n.Int64()), nil
	case model.KindBool:
		if v.Kind() != reflect.Bool {
			return model.NormalizedValue{}, mismatch(t, v)
		}
		return model.NewBool(v.Bool()), nil
	case model.KindAddress:
		addr, ok := v.Interface().(common.Address)
		if !ok {
			return model.NormalizedValue{}, mismatch(t, v)
		}
		return model.NewAddress(addr.Hex()), nil
	case model.KindBytes:
		b, err := asBytes(v)
		if err != nil {
			return model.NormalizedValue{}, err
		}
		return model.NewBytes(b), nil
	case model.KindHash256:
		b, err := asBytes(v)
		if err != nil {
			return model.NormalizedValue{}, err
		}
		return model.NewHash256(common.BytesToHash(b).Hex()), nil
	case model.KindBytesVec:
		b, err := asBytes(v)
		if err != nil {
			return model.NormalizedValue{}, err
		}
		return model.NewBytes(b), nil
	case model.KindPubkey:
		b, err := asBytes(v)
		if err != nil {
			return model.NormalizedValue{}, err
		}
		if len(b) != 32 {
			return model.NormalizedValue{}, fmt.Errorf("%w: pubkey must be 32 bytes, got %d", model.ErrTypeMismatch, len(b))
		}
		return model.NewPubkey(solana.PublicKeyFromBytes(b).String()), nil
	case model.KindStr:
		if v.Kind() != reflect.String {
			return model.NormalizedValue{}, mismatch(t, v)
		}
		if !utf8.ValidString(v.String()) {
			return model.NormalizedValue{}, fmt.Errorf("%w: string is not valid utf-8", model.ErrDecodeFailed)
		}
		return model.NewStr(v.String()), nil
	case model.KindBech32:
		if v.Kind() != reflect.String {
			return model.NormalizedValue{}, mismatch(t, v)
		}
		addr := v.String()
		if _, _, err := bech32.DecodeNoLimit(addr); err != nil {
			return model.NormalizedValue{}, fmt.Errorf("%w: invalid bech32 address: %v", model.ErrTypeMismatch, err)
		}
		return model.NewBech32(strings.ToLower(addr)), nil
	case model.KindArray, model.KindVec:
		if v.Kind() != reflect.Array && v.Kind() != reflect.Slice {
			return model.NormalizedValue{}, mismatch(t, v)
		}
		items := make([]model.NormalizedValue, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := normalize(*t.Elem, v.Index(i))
			if err != nil {
				return model.NormalizedValue{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return model.NewArray(items...), nil
	case model.KindTuple:
		if v.Kind() != reflect.Struct || v.NumField() != len(t.Fields) {
			return model.NormalizedValue{}, mismatch(t, v)
		}
		fields := make([]model.NamedValue, 0, len(t.Fields))
		for i, f := range t.Fields {
			item, err := normalize(f.Type, v.Field(i))
			if err != nil {
				return model.NormalizedValue{}, fmt.Errorf("%s: %w", f.Name, err)
			}
			fields = append(fields, model.NamedValue{Name: f.Name, Value: item})
		}
		return model.NewTuple(fields...), nil
	default:
		return model.NormalizedValue{}, fmt.Errorf("%w: %s", model.ErrUnsupportedType, t.Kind)
	}
}

func mismatch(t model.CanonicalType, v reflect.Value) error {
	return fmt.Errorf("%w: cannot read %s from %s", model.ErrTypeMismatch, t, v.Type())
}

func asBigInt(v reflect.Value) (*big.Int, error) {
	switch v.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(v.Uint()), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(v.Int()), nil
	}
	if v.Type() == bigIntType && !v.IsNil() {
		return v.Interface().(*big.Int), nil
	}
	return nil, fmt.Errorf("%w: expected integer, got %s", model.ErrTypeMismatch, v.Type())
}

func asBytes(v reflect.Value) ([]byte, error) {
	switch {
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		return append([]byte{}, v.Bytes()...), nil
	case v.Kind() == reflect.Array && v.Type().Elem().Kind() == reflect.Uint8:
		out := make([]byte, v.Len())
		for i := range out {
			out[i] = byte(v.Index(i).Uint())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected bytes, got %s", model.ErrTypeMismatch, v.Type())
	}
}
