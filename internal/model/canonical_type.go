package model

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeKind names a CanonicalType variant.
type TypeKind string

const (
	KindUint      TypeKind = "uint"
	KindInt       TypeKind = "int"
	KindBool      TypeKind = "bool"
	KindBytes     TypeKind = "bytes"
	KindBytesVec  TypeKind = "bytesvec"
	KindStr       TypeKind = "string"
	KindAddress   TypeKind = "address"
	KindPubkey    TypeKind = "pubkey"
	KindBech32    TypeKind = "bech32"
	KindArray     TypeKind = "array"
	KindVec       TypeKind = "vec"
	KindTuple     TypeKind = "tuple"
	KindHash256   TypeKind = "hash256"
	KindTimestamp TypeKind = "timestamp"
	KindDecimal   TypeKind = "decimal"
)

// CanonicalType is the chain-agnostic type a schema field is declared in.
//
// Only the attributes relevant to Kind are set: Bits for integers, Size for
// fixed bytes, Len and Elem for arrays, Elem for vectors, Fields for tuples
// and Scale for decimals.
type CanonicalType struct {
	Kind   TypeKind
	Bits   int
	Size   int
	Len    int
	Elem   *CanonicalType
	Fields []TupleField
	Scale  int
}

// TupleField is a named tuple component.
type TupleField struct {
	Name string
	Type CanonicalType
}

func UintType(bits int) CanonicalType  { return CanonicalType{Kind: KindUint, Bits: bits} }
func IntType(bits int) CanonicalType   { return CanonicalType{Kind: KindInt, Bits: bits} }
func BoolType() CanonicalType          { return CanonicalType{Kind: KindBool} }
func BytesType(size int) CanonicalType { return CanonicalType{Kind: KindBytes, Size: size} }
func BytesVecType() CanonicalType      { return CanonicalType{Kind: KindBytesVec} }
func StrType() CanonicalType           { return CanonicalType{Kind: KindStr} }
func AddressType() CanonicalType       { return CanonicalType{Kind: KindAddress} }
func PubkeyType() CanonicalType        { return CanonicalType{Kind: KindPubkey} }
func Bech32Type() CanonicalType        { return CanonicalType{Kind: KindBech32} }
func Hash256Type() CanonicalType       { return CanonicalType{Kind: KindHash256} }
func TimestampType() CanonicalType     { return CanonicalType{Kind: KindTimestamp} }
func DecimalType(scale int) CanonicalType {
	return CanonicalType{Kind: KindDecimal, Scale: scale}
}

// ArrayOf builds a fixed-length array type.
func ArrayOf(elem CanonicalType, n int) CanonicalType {
	return CanonicalType{Kind: KindArray, Elem: &elem, Len: n}
}

// VecOf builds a variable-length array type.
func VecOf(elem CanonicalType) CanonicalType {
	return CanonicalType{Kind: KindVec, Elem: &elem}
}

// TupleOf builds a tuple type from ordered components.
func TupleOf(fields ...TupleField) CanonicalType {
	return CanonicalType{Kind: KindTuple, Fields: fields}
}

// IsReference reports whether values of this type are hashed when used as
// indexed EVM event parameters.
func (t CanonicalType) IsReference() bool {
	switch t.Kind {
	case KindStr, KindBytesVec, KindArray, KindVec, KindTuple:
		return true
	default:
		return false
	}
}

// String renders the type in its textual schema form.
func (t CanonicalType) String() string {
	switch t.Kind {
	case KindUint, KindInt:
		return string(t.Kind) + strconv.Itoa(t.Bits)
	case KindBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindBytesVec:
		return "bytes"
	case KindArray:
		return t.elemString() + "[" + strconv.Itoa(t.Len) + "]"
	case KindVec:
		return t.elemString() + "[]"
	case KindTuple:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			parts = append(parts, f.Name+":"+f.Type.String())
		}
		return "tuple(" + strings.Join(parts, ",") + ")"
	case KindDecimal:
		return "decimal(" + strconv.Itoa(t.Scale) + ")"
	default:
		return string(t.Kind)
	}
}

func (t CanonicalType) elemString() string {
	if t.Elem == nil {
		return "?"
	}
	return t.Elem.String()
}

// Equal reports structural equality.
func (t CanonicalType) Equal(o CanonicalType) bool {
	if t.Kind != o.Kind || t.Bits != o.Bits || t.Size != o.Size || t.Len != o.Len || t.Scale != o.Scale {
		return false
	}
	if (t.Elem == nil) != (o.Elem == nil) {
		return false
	}
	if t.Elem != nil && !t.Elem.Equal(*o.Elem) {
		return false
	}
	if len(t.Fields) != len(o.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
			return false
		}
	}
	return true
}

// Validate checks widths, sizes and composite structure.
func (t CanonicalType) Validate() error {
	switch t.Kind {
	case KindUint, KindInt:
		if t.Bits < 8 || t.Bits > 256 || t.Bits%8 != 0 {
			return fmt.Errorf("%w: invalid integer width %d", ErrUnsupportedType, t.Bits)
		}
	case KindBytes:
		if t.Size < 1 || t.Size > 32 {
			return fmt.Errorf("%w: invalid fixed bytes size %d", ErrUnsupportedType, t.Size)
		}
	case KindArray, KindVec:
		if t.Elem == nil {
			return fmt.Errorf("%w: %s without element type", ErrUnsupportedType, t.Kind)
		}
		if t.Kind == KindArray && t.Len < 1 {
			return fmt.Errorf("%w: invalid array length %d", ErrUnsupportedType, t.Len)
		}
		return t.Elem.Validate()
	case KindTuple:
		if len(t.Fields) == 0 {
			return fmt.Errorf("%w: empty tuple", ErrUnsupportedType)
		}
		seen := make(map[string]struct{}, len(t.Fields))
		for _, f := range t.Fields {
			if f.Name == "" {
				return fmt.Errorf("%w: unnamed tuple component", ErrUnsupportedType)
			}
			if _, ok := seen[f.Name]; ok {
				return fmt.Errorf("%w: duplicate tuple component %s", ErrUnsupportedType, f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := f.Type.Validate(); err != nil {
				return err
			}
		}
	case KindDecimal:
		if t.Scale < 0 || t.Scale > 77 {
			return fmt.Errorf("%w: invalid decimal scale %d", ErrUnsupportedType, t.Scale)
		}
	case KindBool, KindBytesVec, KindStr, KindAddress, KindPubkey, KindBech32, KindHash256, KindTimestamp:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrUnsupportedType, t.Kind)
	}
	return nil
}

// ParseCanonicalType parses the textual form produced by String.
func ParseCanonicalType(input string) (CanonicalType, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return CanonicalType{}, fmt.Errorf("%w: empty type", ErrUnsupportedType)
	}

	if strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open <= 0 {
			return CanonicalType{}, fmt.Errorf("%w: malformed array type %q", ErrUnsupportedType, input)
		}
		elem, err := ParseCanonicalType(s[:open])
		if err != nil {
			return CanonicalType{}, err
		}
		size := s[open+1 : len(s)-1]
		if size == "" {
			return VecOf(elem), nil
		}
		n, err := strconv.Atoi(size)
		if err != nil || n < 1 {
			return CanonicalType{}, fmt.Errorf("%w: invalid array length %q", ErrUnsupportedType, size)
		}
		return ArrayOf(elem, n), nil
	}

	if strings.HasPrefix(s, "tuple(") && strings.HasSuffix(s, ")") {
		return parseTuple(s[len("tuple(") : len(s)-1])
	}
	if strings.HasPrefix(s, "decimal(") && strings.HasSuffix(s, ")") {
		scale, err := strconv.Atoi(s[len("decimal(") : len(s)-1])
		if err != nil {
			return CanonicalType{}, fmt.Errorf("%w: invalid decimal scale in %q", ErrUnsupportedType, input)
		}
		return DecimalType(scale), nil
	}

	switch s {
	case "bool":
		return BoolType(), nil
	case "bytes":
		return BytesVecType(), nil
	case "string", "str":
		return StrType(), nil
	case "address":
		return AddressType(), nil
	case "pubkey":
		return PubkeyType(), nil
	case "bech32", "bech32address":
		return Bech32Type(), nil
	case "hash256":
		return Hash256Type(), nil
	case "timestamp":
		return TimestampType(), nil
	case "uint":
		return UintType(256), nil
	case "int":
		return IntType(256), nil
	}

	for _, prefix := range []string{"uint", "int", "bytes"} {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		n, err := strconv.Atoi(s[len(prefix):])
		if err != nil {
			break
		}
		var t CanonicalType
		switch prefix {
		case "uint":
			t = UintType(n)
		case "int":
			t = IntType(n)
		default:
			t = BytesType(n)
		}
		if err := t.Validate(); err != nil {
			return CanonicalType{}, err
		}
		return t, nil
	}

	return CanonicalType{}, fmt.Errorf("%w: %q", ErrUnsupportedType, input)
}

func parseTuple(body string) (CanonicalType, error) {
	parts := splitTopLevel(body)
	fields := make([]TupleField, 0, len(parts))
	for i, part := range parts {
		name := "f" + strconv.Itoa(i)
		typ := part
		if idx := strings.Index(part, ":"); idx >= 0 {
			name = strings.TrimSpace(part[:idx])
			typ = part[idx+1:]
		}
		ct, err := ParseCanonicalType(typ)
		if err != nil {
			return CanonicalType{}, err
		}
		fields = append(fields, TupleField{Name: name, Type: ct})
	}
	t := TupleOf(fields...)
	if err := t.Validate(); err != nil {
		return CanonicalType{}, err
	}
	return t, nil
}

// splitTopLevel splits on commas outside parentheses and brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		parts = append(parts, s[start:])
	}
	return parts
}

// MarshalText encodes the type in its textual form; used by JSON.
func (t CanonicalType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the textual form.
func (t *CanonicalType) UnmarshalText(text []byte) error {
	parsed, err := ParseCanonicalType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes the type as a scalar.
func (t CanonicalType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML decodes a scalar type string.
func (t *CanonicalType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: type must be a string (line %d)", ErrUnsupportedType, node.Line)
	}
	return t.UnmarshalText([]byte(node.Value))
}
