package navindex

import (
	"testing"

	"github.com/dyuri/navconv/internal/model"
	"github.com/google/go-cmp/cmp"
)

func testNav() *model.NavFile {
	nav := model.NewNavFile("nt_index")
	nav.Places = []model.Place{
		{Index: 0, Name: []byte("Lobby")},
		{Index: 1, Name: []byte("Roof")},
	}
	nav.Areas = []model.Area{
		{
			ID:       1,
			NWCorner: model.Corner{Origin: model.Vector3{X: 0, Y: 0}},
			SECorner: model.Corner{Origin: model.Vector3{X: 100, Y: 100}},
			Connections: [4][]uint32{
				{2}, {99}, {}, {},
			},
			HidingSpots: []model.HidingSpot{{ID: 500}},
			ApproachAreas: []model.ApproachArea{
				{Here: 1, Prev: 0, Next: 2},
			},
			Place: 1,
		},
		{
			ID:       2,
			NWCorner: model.Corner{Origin: model.Vector3{X: 100, Y: 0}},
			SECorner: model.Corner{Origin: model.Vector3{X: 200, Y: 100}},
			EncounterSpots: []model.EncounterSpot{{
				From: 1, To: 0,
				Path: []model.PathSpot{{ID: 500}, {ID: 501}},
			}},
			Ladders: [2][]uint32{{10}, {11}},
			Place:   3,
		},
		{ID: 2},
	}
	nav.Ladders = []model.Ladder{
		{ID: 10, TopForward: 2, BottomArea: 77},
	}
	return nav
}

func TestLookups(t *testing.T) {
	nav := testNav()
	ix := Build(nav)

	a, ok := ix.Area(2)
	if !ok || a != &nav.Areas[1] {
		t.Errorf("Area(2) = %p, %v, want the first area with ID 2", a, ok)
	}
	if _, ok := ix.Area(3); ok {
		t.Error("Area(3) found a missing area")
	}

	l, ok := ix.Ladder(10)
	if !ok || l.BottomArea != 77 {
		t.Errorf("Ladder(10) = %+v, %v", l, ok)
	}

	name, ok := ix.PlaceName(&nav.Areas[0])
	if !ok || string(name) != "Lobby" {
		t.Errorf("PlaceName(area 1) = %q, %v, want Lobby", name, ok)
	}
	if _, ok := ix.PlaceName(&nav.Areas[1]); ok {
		t.Error("PlaceName resolved an out-of-range place entry")
	}
	if _, ok := ix.PlaceName(&nav.Areas[2]); ok {
		t.Error("PlaceName resolved place entry 0")
	}
}

func TestAreaAt(t *testing.T) {
	ix := Build(testNav())

	tests := []struct {
		x, y   float32
		wantID uint32
		found  bool
	}{
		{50, 50, 1, true},
		{150, 10, 2, true},
		{100, 50, 1, true}, // shared edge goes to the first area
		{500, 500, 0, false},
	}

	for _, tt := range tests {
		a, ok := ix.AreaAt(tt.x, tt.y)
		if ok != tt.found {
			t.Errorf("AreaAt(%v, %v) found = %v, want %v", tt.x, tt.y, ok, tt.found)
			continue
		}
		if ok && a.ID != tt.wantID {
			t.Errorf("AreaAt(%v, %v) = area %d, want %d", tt.x, tt.y, a.ID, tt.wantID)
		}
	}
}

func TestDanglingAndDuplicates(t *testing.T) {
	ix := Build(testNav())

	want := []Ref{
		{RefConnection, 1, "connections.east", 99},
		{RefPathSpot, 2, "encounter_spots[0].path[1]", 501},
		{RefLadderDirection, 2, "ladders.down", 11},
		{RefLadderArea, 10, "bottom", 77},
	}
	if diff := cmp.Diff(want, ix.Dangling()); diff != "" {
		t.Errorf("Dangling() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]uint32{2}, ix.Duplicates()); diff != "" {
		t.Errorf("Duplicates() mismatch (-want +got):\n%s", diff)
	}
	bad := ix.PlacesOutOfRange()
	if len(bad) != 1 || bad[0].ID != 2 || bad[0].Place != 3 {
		t.Errorf("PlacesOutOfRange() = %v, want area 2 with place 3", bad)
	}
}

func TestRefString(t *testing.T) {
	r := Ref{RefLadderArea, 10, "bottom", 77}
	if got, want := r.String(), "ladder 10 bottom -> 77"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
