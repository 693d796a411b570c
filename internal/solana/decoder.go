package solana

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	solanago "github.com/gagliardetto/solana-go"

	"chaincodec/internal/decoder"
	"chaincodec/internal/model"
)

// maxZeroSizeItems bounds vectors whose elements occupy no bytes.
const maxZeroSizeItems = 1 << 16

// Decoder decodes Anchor-style program events. topics[0] carries the
// discriminator; when topics are empty the first eight data bytes do.
type Decoder struct{}

var _ decoder.ChainDecoder = (*Decoder)(nil)

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Family() model.ChainFamily { return model.FamilySolana }

func (d *Decoder) Fingerprint(raw model.RawEvent) model.EventFingerprint {
	if topic := normalizeTopic(raw.Topic(0)); topic != "" {
		return model.EventFingerprint(topic)
	}
	if len(raw.Data) >= DiscriminatorSize {
		return model.EventFingerprint("0x" + hex.EncodeToString(raw.Data[:DiscriminatorSize]))
	}
	return ""
}

// payload strips the discriminator from data when data carries it.
func payload(raw model.RawEvent) []byte {
	if len(raw.Data) < DiscriminatorSize {
		return raw.Data
	}
	topic := normalizeTopic(raw.Topic(0))
	if topic == "" {
		return raw.Data[DiscriminatorSize:]
	}
	disc, err := hex.DecodeString(strings.TrimPrefix(topic, "0x"))
	if err == nil && bytes.Equal(disc, raw.Data[:DiscriminatorSize]) {
		return raw.Data[DiscriminatorSize:]
	}
	return raw.Data
}

// DecodeEvent reads the schema fields in order from the Borsh payload.
// Nullable fields are encoded as Option<T>. Running out of bytes is fatal for
// the event; a malformed value is recorded and the field becomes Null.
func (d *Decoder) DecodeEvent(raw model.RawEvent, schema *model.Schema) (*model.DecodedEvent, error) {
	fp := d.Fingerprint(raw)
	event := model.NewDecodedEvent(raw, schema, fp)
	r := &reader{c: newCursor(payload(raw))}

	for _, f := range schema.Fields {
		if r.c.remaining() == 0 && minSize(f.Type) > 0 {
			if !f.Nullable {
				err := model.MissingField(f.Name)
				err.Fingerprint = fp
				return nil, err
			}
			event.Fields[f.Name] = model.Null()
			continue
		}

		if f.Nullable {
			tag, err := r.c.u8()
			if err != nil {
				return nil, r.fatal(f.Name, fp, err)
			}
			switch tag {
			case 0:
				event.Fields[f.Name] = model.Null()
				continue
			case 1:
			default:
				return nil, r.fatal(f.Name, fp, fmt.Errorf("invalid option tag %d", tag))
			}
		}

		r.err = nil
		value, err := r.value(f.Type)
		if err != nil {
			return nil, r.fatal(f.Name, fp, err)
		}
		if r.err != nil {
			decoder.Lenient(event, f.Name, r.err)
			continue
		}
		event.Fields[f.Name] = value
	}
	return event, nil
}

// reader walks a payload. Framing errors are returned and abort the event;
// value errors are kept in err so the cursor stays aligned for later fields.
type reader struct {
	c   *cursor
	err error
}

func (r *reader) fail(err error) model.NormalizedValue {
	if r.err == nil {
		r.err = err
	}
	return model.Null()
}

func (r *reader) fatal(field string, fp model.EventFingerprint, err error) error {
	de := model.DecodeFailed(field, "offset %d: %v", r.c.offset(), err)
	de.Fingerprint = fp
	return de
}

func (r *reader) value(t model.CanonicalType) (model.NormalizedValue, error) {
	switch t.Kind {
	case model.KindUint:
		return r.integer(t.Bits, false)
	case model.KindInt:
		return r.integer(t.Bits, true)
	case model.KindDecimal:
		return r.integer(128, false)
	case model.KindBool:
		b, err := r.c.u8()
		if err != nil {
			return model.Null(), err
		}
		switch b {
		case 0:
			return model.NewBool(false), nil
		case 1:
			return model.NewBool(true), nil
		default:
			return r.fail(fmt.Errorf("%w: invalid bool byte %d", model.ErrTypeMismatch, b)), nil
		}
	case model.KindBytes:
		b, err := r.c.bytes(t.Size)
		if err != nil {
			return model.Null(), err
		}
		return model.NewBytes(b), nil
	case model.KindBytesVec:
		b, err := r.c.prefixed()
		if err != nil {
			return model.Null(), err
		}
		return model.NewBytes(b), nil
	case model.KindStr:
		b, err := r.c.prefixed()
		if err != nil {
			return model.Null(), err
		}
		if !utf8.Valid(b) {
			return r.fail(fmt.Errorf("%w: string is not valid utf-8", model.ErrDecodeFailed)), nil
		}
		return model.NewStr(string(b)), nil
	case model.KindBech32:
		b, err := r.c.prefixed()
		if err != nil {
			return model.Null(), err
		}
		if _, _, err := bech32.DecodeNoLimit(string(b)); err != nil {
			return r.fail(fmt.Errorf("%w: invalid bech32 address: %v", model.ErrTypeMismatch, err)), nil
		}
		return model.NewBech32(strings.ToLower(string(b))), nil
	case model.KindAddress:
		b, err := r.c.bytes(common.AddressLength)
		if err != nil {
			return model.Null(), err
		}
		return model.NewAddress(common.BytesToAddress(b).Hex()), nil
	case model.KindPubkey:
		b, err := r.c.bytes(solanago.PublicKeyLength)
		if err != nil {
			return model.Null(), err
		}
		return model.NewPubkey(solanago.PublicKeyFromBytes(b).String()), nil
	case model.KindHash256:
		b, err := r.c.bytes(common.HashLength)
		if err != nil {
			return model.Null(), err
		}
		return model.NewHash256("0x" + hex.EncodeToString(b)), nil
	case model.KindTimestamp:
		ts, err := r.c.i64()
		if err != nil {
			return model.Null(), err
		}
		return model.NewTimestamp(ts), nil
	case model.KindArray:
		return r.items(*t.Elem, t.Len)
	case model.KindVec:
		n, err := r.c.u32()
		if err != nil {
			return model.Null(), err
		}
		size := minSize(*t.Elem)
		if size > 0 && uint64(n)*uint64(size) > uint64(r.c.remaining()) {
			return model.Null(), fmt.Errorf("%w: vec of %d items needs at least %d bytes, have %d", errShortBuffer, n, uint64(n)*uint64(size), r.c.remaining())
		}
		if size == 0 && n > maxZeroSizeItems {
			return model.Null(), fmt.Errorf("vec of %d zero-size items", n)
		}
		return r.items(*t.Elem, int(n))
	case model.KindTuple:
		fields := make([]model.NamedValue, 0, len(t.Fields))
		for _, f := range t.Fields {
			v, err := r.value(f.Type)
			if err != nil {
				return model.Null(), fmt.Errorf("%s: %w", f.Name, err)
			}
			fields = append(fields, model.NamedValue{Name: f.Name, Value: v})
		}
		return model.NewTuple(fields...), nil
	default:
		return model.Null(), fmt.Errorf("%w: %s", model.ErrUnsupportedType, t.Kind)
	}
}

func (r *reader) items(elem model.CanonicalType, n int) (model.NormalizedValue, error) {
	items := make([]model.NormalizedValue, 0, min(n, r.c.remaining()+1))
	for i := 0; i < n; i++ {
		v, err := r.value(elem)
		if err != nil {
			return model.Null(), fmt.Errorf("[%d]: %w", i, err)
		}
		items = append(items, v)
	}
	return model.NewArray(items...), nil
}

// integer reads a little-endian integer of the given bit width. Widths above
// 64 bits go through the limb representation.
func (r *reader) integer(width int, signed bool) (model.NormalizedValue, error) {
	switch width {
	case 8:
		v, err := r.c.u8()
		if err != nil {
			return model.Null(), err
		}
		if signed {
			return model.NewInt64(int64(int8(v))), nil
		}
		return model.NewUint64(uint64(v)), nil
	case 16:
		v, err := r.c.u16()
		if err != nil {
			return model.Null(), err
		}
		if signed {
			return model.NewInt64(int64(int16(v))), nil
		}
		return model.NewUint64(uint64(v)), nil
	case 32:
		v, err := r.c.u32()
		if err != nil {
			return model.Null(), err
		}
		if signed {
			return model.NewInt64(int64(int32(v))), nil
		}
		return model.NewUint64(uint64(v)), nil
	case 64:
		v, err := r.c.u64()
		if err != nil {
			return model.Null(), err
		}
		if signed {
			return model.NewInt64(int64(v)), nil
		}
		return model.NewUint64(v), nil
	}

	if width <= 0 || width > 256 || width%8 != 0 {
		return model.Null(), fmt.Errorf("%w: integer width %d", model.ErrUnsupportedType, width)
	}
	b, err := r.c.bytes(width / 8)
	if err != nil {
		return model.Null(), err
	}
	x := u256FromLE(b)
	if !signed {
		return unsignedValue(x), nil
	}
	return signedValue(x.signExtend(width)), nil
}

func unsignedValue(x u256) model.NormalizedValue {
	dec := x.decimal()
	if !x.fits128() {
		return model.NewBigUint(dec)
	}
	n, _ := new(big.Int).SetString(dec, 10)
	return model.NewUint(n)
}

func signedValue(x u256) model.NormalizedValue {
	if !x.negative() {
		return unsignedToSigned(x.decimal(), x.fits128() && !x.bit(127))
	}
	mag := x.negate()
	// magnitudes up to 2^127 fit the signed 128-bit range
	fits := mag.fits128() && (!mag.bit(127) || (mag[1] == 1<<63 && mag[0] == 0))
	return unsignedToSigned("-"+mag.decimal(), fits)
}

func unsignedToSigned(dec string, fits bool) model.NormalizedValue {
	if !fits {
		return model.NewBigInt(dec)
	}
	n, _ := new(big.Int).SetString(dec, 10)
	return model.NewInt(n)
}

// minSize is the smallest encoding of t in bytes.
func minSize(t model.CanonicalType) int {
	switch t.Kind {
	case model.KindUint, model.KindInt:
		return t.Bits / 8
	case model.KindBool:
		return 1
	case model.KindBytes:
		return t.Size
	case model.KindBytesVec, model.KindStr, model.KindBech32, model.KindVec:
		return 4
	case model.KindAddress:
		return common.AddressLength
	case model.KindPubkey:
		return solanago.PublicKeyLength
	case model.KindHash256:
		return common.HashLength
	case model.KindTimestamp:
		return 8
	case model.KindDecimal:
		return 16
	case model.KindArray:
		if t.Elem == nil {
			return 0
		}
		return t.Len * minSize(*t.Elem)
	case model.KindTuple:
		size := 0
		for _, f := range t.Fields {
			size += minSize(f.Type)
		}
		return size
	default:
		return 0
	}
}
