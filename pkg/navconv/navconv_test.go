package navconv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dyuri/navconv/internal/export"
	"github.com/dyuri/navconv/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const geometryBytes = 1500

func sampleNav() *model.NavFile {
	nav := model.NewNavFile("nt_sample")
	nav.Header.Magic = 0xFEEDFACE
	nav.Header.Version = 9
	size := uint32(geometryBytes)
	nav.Header.GeometrySize = &size
	nav.Places = []model.Place{{Index: 0, Name: []byte("Lobby")}}
	nav.Areas = []model.Area{
		{
			ID:          1,
			Attributes:  255,
			Connections: [4][]uint32{{2}, {}, {}, {}},
			Place:       1,
			Ladders:     [2][]uint32{{}, {}},
		},
		{
			ID:             2,
			Connections:    [4][]uint32{{}, {}, {1}, {}},
			Ladders:        [2][]uint32{{}, {}},
			EarliestOccupy: [2]float32{0, 5.5},
		},
	}
	return nav
}

// writeFiles lays out a geometry file and a nav file in a temp dir.
func writeFiles(t *testing.T, nav *model.NavFile, compress export.Compression) (geometry, navPath string) {
	t.Helper()
	dir := t.TempDir()

	geometry = filepath.Join(dir, "nt_sample.bsp")
	if err := os.WriteFile(geometry, make([]byte, geometryBytes), 0644); err != nil {
		t.Fatal(err)
	}

	var raw bytes.Buffer
	if err := WriteBinaryNav(&raw, nav); err != nil {
		t.Fatalf("WriteBinaryNav failed: %v", err)
	}

	var out bytes.Buffer
	cw, err := export.NewCompressWriter(&out, compress)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cw.Write(raw.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := cw.Close(); err != nil {
		t.Fatal(err)
	}

	navPath = filepath.Join(dir, "nt_sample.nav")
	if err := os.WriteFile(navPath, out.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return geometry, navPath
}

func TestParseFiles(t *testing.T) {
	for _, c := range []export.Compression{export.CompressionNone, export.CompressionZstd, export.CompressionLZ4} {
		geometry, navPath := writeFiles(t, sampleNav(), c)

		got, err := ParseFiles("nt_sample", geometry, navPath, Options{})
		if err != nil {
			t.Fatalf("%s: ParseFiles failed: %v", c, err)
		}

		want := sampleNav()
		want.Meta.Successful = true
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s: document mismatch (-want +got):\n%s", c, diff)
		}
	}
}

func TestParseFilesMissingInput(t *testing.T) {
	geometry, navPath := writeFiles(t, sampleNav(), export.CompressionNone)
	missingPath := filepath.Join(t.TempDir(), "nope")
	dir := t.TempDir()

	tests := []struct {
		name     string
		geometry string
		nav      string
		opts     Options
		wantPath string
	}{
		{"geometry", missingPath, navPath, Options{}, missingPath},
		{"nav", geometry, missingPath, Options{}, missingPath},
		{"nav directory", geometry, dir, Options{}, dir},
		{"nav directory unchecked", "", dir, Options{SkipGeometryCheck: true}, dir},
	}

	for _, tt := range tests {
		nav, err := ParseFiles("nt_sample", tt.geometry, tt.nav, tt.opts)
		if !errors.Is(err, ErrMissingInputFile) {
			t.Errorf("%s: err = %v, want ErrMissingInputFile", tt.name, err)
			continue
		}
		if nav != nil {
			t.Errorf("%s: got a document alongside the error", tt.name)
		}
		var de *DecodeError
		if errors.As(err, &de) && de.Path != tt.wantPath {
			t.Errorf("%s: Path = %q, want %q", tt.name, de.Path, tt.wantPath)
		}
	}
}

func TestParseFilesSizeMismatch(t *testing.T) {
	geometry, navPath := writeFiles(t, sampleNav(), export.CompressionNone)
	if err := os.WriteFile(geometry, make([]byte, geometryBytes+10), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ParseFiles("nt_sample", geometry, navPath, Options{})
	var de *DecodeError
	if !errors.Is(err, ErrGeometrySizeMismatch) || !errors.As(err, &de) {
		t.Fatalf("err = %v, want a geometry size mismatch", err)
	}
	if de.Expected != geometryBytes || de.Actual != geometryBytes+10 {
		t.Errorf("Expected/Actual = %d/%d, want %d/%d", de.Expected, de.Actual, geometryBytes, geometryBytes+10)
	}

	if _, err := ParseFiles("nt_sample", "", navPath, Options{SkipGeometryCheck: true}); err != nil {
		t.Errorf("skipped check: ParseFiles failed: %v", err)
	}
}

func TestParseNavBadMagic(t *testing.T) {
	_, err := ParseNav(strings.NewReader("not a nav file"), Options{})
	if !errors.Is(err, ErrBadMagicNumber) {
		t.Errorf("err = %v, want ErrBadMagicNumber", err)
	}
}

func TestWriteKeyValues(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteKeyValues(&buf, sampleNav()); err != nil {
		t.Fatalf("WriteKeyValues failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\"connects_to_area_id\"\t\"2\"") {
		t.Error("output is missing the north connection of area 1")
	}
}

func TestValidate(t *testing.T) {
	if issues := Validate(sampleNav()); len(issues) != 0 {
		t.Errorf("Validate(clean) = %+v, want no issues", issues)
	}

	nav := sampleNav()
	nav.Areas[1].ID = 1
	nav.Areas[0].Place = 4
	issues := Validate(nav)

	var fields []string
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	want := []string{
		"area 1",
		"area 1 place_dictionary_entry",
		"area 1 connections.north -> 2",
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("Validate fields mismatch (-want +got):\n%s", diff)
	}
}
