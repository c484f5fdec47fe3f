package text

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dyuri/navconv/internal/model"
)

func minimalNav() *model.NavFile {
	nav := model.NewNavFile("nt_minimal")
	nav.Header.Magic = 0xFEEDFACE
	nav.Header.Version = 1
	nav.Meta.Successful = true
	return nav
}

func TestWriteMinimal(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1252)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.Write(minimalNav()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := `"nav"
{
	"meta"
	{
		"map"	"nt_minimal"
		"description"	"Neotokyo bot navigation file"
		"version"	"0.2"
		"nav_parse_successful"	"1"
	}
	"header"
	{
		"magic"	"FEEDFACE"
		"version"	"1"
	}
	"navigation_areas"
	{
	}
	"ladders"
	{
	}
}
`
	if buf.String() != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteArea(t *testing.T) {
	nav := minimalNav()
	nav.Header.Version = 9
	size := uint32(1000)
	nav.Header.GeometrySize = &size
	nav.Places = []model.Place{{Index: 0, Name: []byte("Lobby")}}
	nav.Areas = []model.Area{{
		ID:         42,
		Attributes: 255,
		NWCorner:   model.Corner{Origin: model.Vector3{X: -1.5, Y: 2, Z: 0}, ImplicitHeight: 3},
		Connections: [4][]uint32{
			{}, {43}, {}, {},
		},
		HidingSpots: []model.HidingSpot{{ID: 7, Pos: model.Vector3{X: 1, Y: 2, Z: 3}, Flags: 4}},
		EncounterSpots: []model.EncounterSpot{{
			From: 43, To: 44, ToDir: 2,
			Path: []model.PathSpot{{ID: 7, T: 128}},
		}},
		Place:          1,
		Ladders:        [2][]uint32{{}, {9}},
		EarliestOccupy: [2]float32{0, 5.5},
	}}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1252)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.Write(nav); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"\t\t\"bsp_size\"\t\"1000\"\n",
		"\t\t\"place_0\"\n\t\t{\n\t\t\t\"place_name\"\t\"Lobby\"\n",
		"\t\t\"area_0\"\n",
		"\"attribute_flags\"\t\"255\"",
		"\"origin\"\t\"-1.500000 2.000000 0.000000\"",
		"\"implicit_height\"\t\"3.000000\"",
		"\"east\"\n\t\t\t\t{\n\t\t\t\t\t\"connection_0\"\n\t\t\t\t\t{\n\t\t\t\t\t\t\"connects_to_area_id\"\t\"43\"\n",
		"\"flags\"\t\"4\"",
		"\"to_dir\"\t\"2\"",
		"\"t\"\t\"128\"",
		"\"place_dictionary_entry\"\t\"1\"",
		"\"down\"\n\t\t\t\t{\n\t\t\t\t\t\"ladder_0\"\n\t\t\t\t\t{\n\t\t\t\t\t\t\"id\"\t\"9\"\n",
		"\"team_1\"\n\t\t\t\t{\n\t\t\t\t\t\"earliest_occupy_time\"\t\"5.500000\"\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if strings.Contains(out, "has_unnamed_areas") {
		t.Error("version 9 output has has_unnamed_areas")
	}
	if strings.Count(out, "{") != strings.Count(out, "}") {
		t.Error("unbalanced braces")
	}
}

func TestWritePlaceNameCodePage(t *testing.T) {
	tests := []struct {
		codepage int
		name     []byte
		want     string
	}{
		{1252, []byte{'C', 'a', 'f', 0xE9}, "Café"},
		{1251, []byte{0xC4, 0xEE, 0xEC}, "Дом"},
		{UTF8, []byte("Café"), "Café"},
		{1252, []byte(`say "hi"`), `say \"hi\"`},
	}

	for _, tt := range tests {
		nav := minimalNav()
		nav.Header.Version = 5
		nav.Places = []model.Place{{Index: 0, Name: tt.name}}

		var buf bytes.Buffer
		w, err := NewWriter(&buf, tt.codepage)
		if err != nil {
			t.Fatalf("NewWriter(%d) failed: %v", tt.codepage, err)
		}
		if err := w.Write(nav); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		want := "\"place_name\"\t\"" + tt.want + "\""
		if !strings.Contains(buf.String(), want) {
			t.Errorf("code page %d: output missing %q", tt.codepage, want)
		}
	}
}

func TestNewWriterUnknownCodePage(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, 1337); err == nil {
		t.Error("NewWriter accepted code page 1337")
	}
}
