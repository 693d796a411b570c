package evm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"chaincodec/internal/model"
)

// abiTypeName maps a canonical type to its Solidity ABI spelling. Tuple
// components are returned separately as go-ethereum expects them.
func abiTypeName(t model.CanonicalType) (string, []abi.ArgumentMarshaling, error) {
	switch t.Kind {
	case model.KindUint:
		return "uint" + strconv.Itoa(t.Bits), nil, nil
	case model.KindInt:
		return "int" + strconv.Itoa(t.Bits), nil, nil
	case model.KindBool:
		return "bool", nil, nil
	case model.KindBytes:
		return "bytes" + strconv.Itoa(t.Size), nil, nil
	case model.KindBytesVec, model.KindPubkey:
		return "bytes", nil, nil
	case model.KindStr, model.KindBech32:
		return "string", nil, nil
	case model.KindAddress:
		return "address", nil, nil
	case model.KindHash256:
		return "bytes32", nil, nil
	case model.KindTimestamp, model.KindDecimal:
		return "uint256", nil, nil
	case model.KindArray, model.KindVec:
		if t.Elem == nil {
			return "", nil, fmt.Errorf("%w: %s without element", model.ErrUnsupportedType, t.Kind)
		}
		name, components, err := abiTypeName(*t.Elem)
		if err != nil {
			return "", nil, err
		}
		if t.Kind == model.KindArray {
			return name + "[" + strconv.Itoa(t.Len) + "]", components, nil
		}
		return name + "[]", components, nil
	case model.KindTuple:
		components := make([]abi.ArgumentMarshaling, 0, len(t.Fields))
		for i, f := range t.Fields {
			name, nested, err := abiTypeName(f.Type)
			if err != nil {
				return "", nil, err
			}
			components = append(components, abi.ArgumentMarshaling{
				Name:       "f" + strconv.Itoa(i),
				Type:       name,
				Components: nested,
			})
		}
		return "tuple", components, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", model.ErrUnsupportedType, t.Kind)
	}
}

func abiType(t model.CanonicalType) (abi.Type, error) {
	name, components, err := abiTypeName(t)
	if err != nil {
		return abi.Type{}, err
	}
	typ, err := abi.NewType(name, "", components)
	if err != nil {
		return abi.Type{}, fmt.Errorf("%w: %s: %v", model.ErrUnsupportedType, t, err)
	}
	return typ, nil
}

// signatureType renders t as it appears in an event signature.
func signatureType(t model.CanonicalType) (string, error) {
	switch t.Kind {
	case model.KindTuple:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			part, err := signatureType(f.Type)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "(" + strings.Join(parts, ",") + ")", nil
	case model.KindArray, model.KindVec:
		if t.Elem == nil {
			return "", fmt.Errorf("%w: %s without element", model.ErrUnsupportedType, t.Kind)
		}
		elem, err := signatureType(*t.Elem)
		if err != nil {
			return "", err
		}
		if t.Kind == model.KindArray {
			return elem + "[" + strconv.Itoa(t.Len) + "]", nil
		}
		return elem + "[]", nil
	default:
		name, _, err := abiTypeName(t)
		return name, err
	}
}

// hashedWhenIndexed reports whether an indexed parameter of type t is stored
// as the keccak hash of its encoding.
func hashedWhenIndexed(t model.CanonicalType) bool {
	return t.IsReference() || t.Kind == model.KindPubkey || t.Kind == model.KindBech32
}

func isDynamic(t model.CanonicalType) bool {
	switch t.Kind {
	case model.KindBytesVec, model.KindStr, model.KindVec, model.KindPubkey, model.KindBech32:
		return true
	case model.KindArray:
		return t.Elem != nil && isDynamic(*t.Elem)
	case model.KindTuple:
		for _, f := range t.Fields {
			if isDynamic(f.Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// headSize is the number of bytes t occupies in the head of an ABI tuple.
func headSize(t model.CanonicalType) int {
	if isDynamic(t) {
		return 32
	}
	switch t.Kind {
	case model.KindArray:
		return t.Len * headSize(*t.Elem)
	case model.KindTuple:
		size := 0
		for _, f := range t.Fields {
			size += headSize(f.Type)
		}
		return size
	default:
		return 32
	}
}
