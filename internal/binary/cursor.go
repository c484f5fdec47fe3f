package binary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Cursor reads little-endian NAV primitives from a stream, front to back.
// It never seeks; Offset only grows.
type Cursor struct {
	r   *bufio.Reader
	off int64
	buf [4]byte
}

// NewCursor creates a cursor over r.
func NewCursor(r io.Reader) *Cursor {
	if br, ok := r.(*bufio.Reader); ok {
		return &Cursor{r: br}
	}
	return &Cursor{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int64 {
	return c.off
}

func (c *Cursor) fill(p []byte) error {
	n, err := io.ReadFull(c.r, p)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		start := c.off
		c.off += int64(n)
		return &DecodeError{Kind: ErrUnexpectedEndOfInput, Index: -1, Offset: start, Err: err}
	}
	c.off += int64(n)
	return nil
}

// U8 reads one unsigned byte.
func (c *Cursor) U8() (uint8, error) {
	if err := c.fill(c.buf[:1]); err != nil {
		return 0, err
	}
	return c.buf[0], nil
}

// U16 reads an unsigned 16-bit integer.
func (c *Cursor) U16() (uint16, error) {
	if err := c.fill(c.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(c.buf[:2]), nil
}

// U32 reads an unsigned 32-bit integer.
func (c *Cursor) U32() (uint32, error) {
	if err := c.fill(c.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.buf[:4]), nil
}

// I32 reads a signed 32-bit integer.
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// F32 reads an IEEE 754 single precision float.
func (c *Cursor) F32() (float32, error) {
	v, err := c.U32()
	return math.Float32frombits(v), err
}

// Bytes reads exactly n raw bytes into a new slice.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := c.fill(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Buffered returns how many bytes are already buffered past the offset.
// At the end of a decode this is a lower bound on the trailing bytes.
func (c *Cursor) Buffered() int {
	return c.r.Buffered()
}
