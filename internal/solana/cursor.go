package solana

import (
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

var errShortBuffer = errors.New("read past end of buffer")

// cursor is a bounds-checked little-endian reader over a Borsh payload.
// Every read checks the remaining length first so malformed input surfaces
// as errShortBuffer instead of a panic inside the decoder.
type cursor struct {
	dec  *bin.Decoder
	size int
}

func newCursor(data []byte) *cursor {
	return &cursor{dec: bin.NewBorshDecoder(data), size: len(data)}
}

func (c *cursor) remaining() int { return c.dec.Remaining() }

func (c *cursor) offset() int { return c.size - c.dec.Remaining() }

func (c *cursor) need(n int) error {
	if n < 0 || c.dec.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", errShortBuffer, n, c.offset(), c.dec.Remaining())
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	return c.dec.ReadUint8()
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	return c.dec.ReadUint16(binary.LittleEndian)
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	return c.dec.ReadUint32(binary.LittleEndian)
}

func (c *cursor) u64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	return c.dec.ReadUint64(binary.LittleEndian)
}

func (c *cursor) i64() (int64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	return c.dec.ReadInt64(binary.LittleEndian)
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	return c.dec.ReadNBytes(n)
}

// prefixed reads a u32 length followed by that many bytes.
func (c *cursor) prefixed() ([]byte, error) {
	n, err := c.u32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(c.remaining()) {
		return nil, fmt.Errorf("%w: length prefix %d exceeds remaining %d", errShortBuffer, n, c.remaining())
	}
	return c.bytes(int(n))
}
