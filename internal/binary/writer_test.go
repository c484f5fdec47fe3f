package binary

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dyuri/navconv/internal/model"
	"github.com/google/go-cmp/cmp"
)

func newByteReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func TestWriterRoundTrip(t *testing.T) {
	data := fullStream()
	nav, err := parse(data, testOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var out bytes.Buffer
	if err := NewWriter(&out).Write(nav); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("re-encoded %d bytes differ from the %d input bytes", out.Len(), len(data))
	}

	again, err := parse(out.Bytes(), testOptions())
	if err != nil {
		t.Fatalf("Parse of written data failed: %v", err)
	}
	if diff := cmp.Diff(nav, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterVersionDowngrade(t *testing.T) {
	nav, err := parse(fullStream(), testOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// 0x10001 does not fit the 16-bit flags of version 9.
	nav.Header.Version = 9
	var out bytes.Buffer
	if err := NewWriter(&out).Write(nav); err == nil {
		t.Fatal("Write succeeded with oversized attribute flags")
	}
	if out.Len() != 0 {
		t.Errorf("failed Write left %d bytes in the output", out.Len())
	}

	nav.Areas[0].Attributes = 0x0101
	if err := NewWriter(&out).Write(nav); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	back, err := parse(out.Bytes(), testOptions())
	if err != nil {
		t.Fatalf("Parse of version 9 output failed: %v", err)
	}
	if back.Header.Subversion != nil || back.HasUnnamedAreas != nil {
		t.Error("version 9 output carries fields from a later version")
	}
	if back.Areas[0].Attributes != 0x0101 {
		t.Errorf("Attributes = 0x%X, want 0x101", back.Areas[0].Attributes)
	}
}

func TestWriterRejectsVersionZero(t *testing.T) {
	nav := model.NewNavFile("empty")
	err := NewWriter(&bytes.Buffer{}).Write(nav)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("err = %v, want ErrUnsupportedVersion", err)
	}
}
