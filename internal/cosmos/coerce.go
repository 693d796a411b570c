package cosmos

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	solanago "github.com/gagliardetto/solana-go"

	"chaincodec/internal/model"
)

// denomPattern matches the unit suffix of a coin amount such as "uatom" or
// "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2".
var denomPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9/:._-]*$`)

// coerce converts one attribute string into the value declared by t.
func coerce(t model.CanonicalType, s string) (model.NormalizedValue, error) {
	switch t.Kind {
	case model.KindUint, model.KindInt:
		n, err := parseAmount(s)
		if err != nil {
			return model.Null(), err
		}
		if err := checkRange(n, t.Bits, t.Kind == model.KindInt); err != nil {
			return model.Null(), err
		}
		if t.Kind == model.KindInt {
			return model.NewInt(n), nil
		}
		return model.NewUint(n), nil
	case model.KindDecimal:
		n, err := parseDecimal(s, t.Scale)
		if err != nil {
			return model.Null(), err
		}
		return model.NewUint(n), nil
	case model.KindBool:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return model.NewBool(true), nil
		case "false", "0", "no":
			return model.NewBool(false), nil
		}
		return model.Null(), mismatch(t, s)
	case model.KindStr:
		return model.NewStr(s), nil
	case model.KindAddress:
		s = strings.TrimSpace(s)
		if !common.IsHexAddress(s) {
			return model.Null(), mismatch(t, s)
		}
		return model.NewAddress(common.HexToAddress(s).Hex()), nil
	case model.KindPubkey:
		key, err := solanago.PublicKeyFromBase58(strings.TrimSpace(s))
		if err != nil {
			return model.Null(), fmt.Errorf("%w: pubkey %q: %v", model.ErrTypeMismatch, s, err)
		}
		return model.NewPubkey(key.String()), nil
	case model.KindBech32:
		s = strings.TrimSpace(s)
		if _, _, err := bech32.DecodeNoLimit(s); err != nil {
			return model.Null(), fmt.Errorf("%w: bech32 %q: %v", model.ErrTypeMismatch, s, err)
		}
		return model.NewBech32(strings.ToLower(s)), nil
	case model.KindBytes, model.KindBytesVec:
		b, err := parseBytes(s)
		if err != nil {
			return model.Null(), err
		}
		if t.Kind == model.KindBytes && len(b) != t.Size {
			return model.Null(), fmt.Errorf("%w: expected %d bytes, got %d", model.ErrTypeMismatch, t.Size, len(b))
		}
		return model.NewBytes(b), nil
	case model.KindHash256:
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X"))
		if err != nil || len(b) != common.HashLength {
			return model.Null(), mismatch(t, s)
		}
		return model.NewHash256("0x" + hex.EncodeToString(b)), nil
	case model.KindTimestamp:
		return parseTimestamp(s)
	case model.KindArray, model.KindVec:
		return coerceList(t, s)
	case model.KindTuple:
		return coerceTuple(t, s)
	default:
		return model.Null(), fmt.Errorf("%w: %s", model.ErrUnsupportedType, t.Kind)
	}
}

func mismatch(t model.CanonicalType, s string) error {
	return fmt.Errorf("%w: cannot read %s from %q", model.ErrTypeMismatch, t, s)
}

// parseAmount parses a leading integer and drops a denomination suffix:
// "1000000uatom" yields 1000000.
func parseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return nil, fmt.Errorf("%w: no digits in %q", model.ErrTypeMismatch, s)
	}
	if denom := s[end:]; denom != "" && !denomPattern.MatchString(denom) {
		return nil, fmt.Errorf("%w: invalid denomination %q", model.ErrTypeMismatch, denom)
	}
	n, ok := new(big.Int).SetString(s[:end], 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid integer %q", model.ErrTypeMismatch, s)
	}
	return n, nil
}

func checkRange(n *big.Int, width int, signed bool) error {
	if !signed {
		if n.Sign() < 0 || n.BitLen() > width {
			return fmt.Errorf("%w: %s does not fit uint%d", model.ErrTypeMismatch, n, width)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return fmt.Errorf("%w: %s does not fit int%d", model.ErrTypeMismatch, n, width)
	}
	return nil
}

// parseDecimal scales "1.5" by 10^scale. Fractional digits beyond scale are
// accepted only when they are zero.
func parseDecimal(s string, scale int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	body := strings.TrimLeft(s, "+-")

	end := 0
	for end < len(body) && (body[end] >= '0' && body[end] <= '9' || body[end] == '.') {
		end++
	}
	if denom := body[end:]; denom != "" && !denomPattern.MatchString(denom) {
		return nil, fmt.Errorf("%w: invalid denomination %q", model.ErrTypeMismatch, denom)
	}
	whole, frac, _ := strings.Cut(body[:end], ".")
	if strings.Contains(frac, ".") || whole+frac == "" {
		return nil, fmt.Errorf("%w: invalid decimal %q", model.ErrTypeMismatch, s)
	}
	if len(frac) > scale {
		if strings.Trim(frac[scale:], "0") != "" {
			return nil, fmt.Errorf("%w: %q has more than %d fractional digits", model.ErrTypeMismatch, s, scale)
		}
		frac = frac[:scale]
	}
	frac += strings.Repeat("0", scale-len(frac))

	n, ok := new(big.Int).SetString("0"+whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid decimal %q", model.ErrTypeMismatch, s)
	}
	if negative {
		n.Neg(n)
	}
	return n, nil
}

// parseBytes accepts hex (with or without 0x) and falls back to standard base64.
func parseBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []byte{}, nil
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if b, err := hex.DecodeString(trimmed); err == nil {
		return b, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is neither hex nor base64", model.ErrTypeMismatch, s)
	}
	return b, nil
}

// parseTimestamp accepts unix seconds or RFC 3339.
func parseTimestamp(s string) (model.NormalizedValue, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return model.NewTimestamp(secs), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return model.Null(), fmt.Errorf("%w: timestamp %q", model.ErrTypeMismatch, s)
	}
	return model.NewTimestamp(ts.Unix()), nil
}

// coerceList parses a JSON-encoded array attribute and coerces every element.
func coerceList(t model.CanonicalType, s string) (model.NormalizedValue, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return model.Null(), fmt.Errorf("%w: nested array: %v", model.ErrTypeMismatch, err)
	}
	if t.Kind == model.KindArray && len(raw) != t.Len {
		return model.Null(), fmt.Errorf("%w: expected %d items, got %d", model.ErrTypeMismatch, t.Len, len(raw))
	}
	items := make([]model.NormalizedValue, 0, len(raw))
	for i, item := range raw {
		v, err := coerce(*t.Elem, rawText(item))
		if err != nil {
			return model.Null(), fmt.Errorf("[%d]: %w", i, err)
		}
		items = append(items, v)
	}
	return model.NewArray(items...), nil
}

// coerceTuple parses a JSON object keyed by component name, or a JSON array
// in component order.
func coerceTuple(t model.CanonicalType, s string) (model.NormalizedValue, error) {
	values := make([]string, len(t.Fields))
	trimmed := strings.TrimSpace(s)

	if strings.HasPrefix(trimmed, "[") {
		var raw []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return model.Null(), fmt.Errorf("%w: nested tuple: %v", model.ErrTypeMismatch, err)
		}
		if len(raw) != len(t.Fields) {
			return model.Null(), fmt.Errorf("%w: expected %d components, got %d", model.ErrTypeMismatch, len(t.Fields), len(raw))
		}
		for i, item := range raw {
			values[i] = rawText(item)
		}
	} else {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return model.Null(), fmt.Errorf("%w: nested tuple: %v", model.ErrTypeMismatch, err)
		}
		for i, f := range t.Fields {
			item, ok := obj[f.Name]
			if !ok {
				return model.Null(), fmt.Errorf("%s: %w", f.Name, model.ErrMissingField)
			}
			values[i] = rawText(item)
		}
	}

	fields := make([]model.NamedValue, 0, len(t.Fields))
	for i, f := range t.Fields {
		v, err := coerce(f.Type, values[i])
		if err != nil {
			return model.Null(), fmt.Errorf("%s: %w", f.Name, err)
		}
		fields = append(fields, model.NamedValue{Name: f.Name, Value: v})
	}
	return model.NewTuple(fields...), nil
}
