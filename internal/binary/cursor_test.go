package binary

import (
	"errors"
	"io"
	"math"
	"testing"
)

func TestCursorPrimitives(t *testing.T) {
	s := &stream{}
	s.u8(0x7F).u16(0xBEEF).u32(0xFEEDFACE).i32(-5).f32(math.Pi).raw([]byte("abc"))

	c := NewCursor(newByteReader(s.b))

	if v, err := c.U8(); err != nil || v != 0x7F {
		t.Errorf("U8 = 0x%X, %v, want 0x7F", v, err)
	}
	if v, err := c.U16(); err != nil || v != 0xBEEF {
		t.Errorf("U16 = 0x%X, %v, want 0xBEEF", v, err)
	}
	if v, err := c.U32(); err != nil || v != 0xFEEDFACE {
		t.Errorf("U32 = 0x%X, %v, want 0xFEEDFACE", v, err)
	}
	if v, err := c.I32(); err != nil || v != -5 {
		t.Errorf("I32 = %d, %v, want -5", v, err)
	}
	if v, err := c.F32(); err != nil || v != float32(math.Pi) {
		t.Errorf("F32 = %v, %v, want %v", v, err, float32(math.Pi))
	}
	if v, err := c.Bytes(3); err != nil || string(v) != "abc" {
		t.Errorf("Bytes = %q, %v, want %q", v, err, "abc")
	}
	if c.Offset() != 18 {
		t.Errorf("Offset = %d, want 18", c.Offset())
	}
}

func TestCursorShortRead(t *testing.T) {
	c := NewCursor(newByteReader([]byte{1, 2, 3, 4, 5, 6}))

	if _, err := c.U32(); err != nil {
		t.Fatalf("U32 failed: %v", err)
	}
	_, err := c.U32()
	if !errors.Is(err, ErrUnexpectedEndOfInput) {
		t.Fatalf("err = %v, want ErrUnexpectedEndOfInput", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want it to wrap io.ErrUnexpectedEOF", err)
	}

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err %T is not a *DecodeError", err)
	}
	if de.Offset != 4 {
		t.Errorf("Offset = %d, want 4", de.Offset)
	}
}

func TestCursorEmptyInput(t *testing.T) {
	c := NewCursor(newByteReader(nil))
	if _, err := c.U8(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestWithinFieldPath(t *testing.T) {
	base := func() error {
		return &DecodeError{Kind: ErrUnexpectedEndOfInput, Index: -1}
	}

	err := within(within(base(), "", -1, "[3]"), "", -1, "connections.north")
	err = within(err, "areas", 7, "")
	err = within(err, "ignored", 9, "")

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err %T is not a *DecodeError", err)
	}
	if de.Section != "areas" || de.Index != 7 {
		t.Errorf("Section/Index = %s/%d, want areas/7", de.Section, de.Index)
	}
	if de.Field != "connections.north[3]" {
		t.Errorf("Field = %q, want %q", de.Field, "connections.north[3]")
	}

	want := "unexpected end of input in areas[7].connections.north[3] at offset 0"
	if de.Error() != want {
		t.Errorf("Error() = %q, want %q", de.Error(), want)
	}
}
