// Package navindex resolves the raw ID references of a decoded NAV
// document: areas, ladders and hiding spots by ID, place names by area,
// and areas by position.
//
// The decoder records IDs verbatim. An Index is built afterwards and
// reports which references point nowhere instead of failing on them.
package navindex

import (
	"fmt"
	"sort"

	"github.com/dyuri/navconv/internal/model"
)

// NoID marks an absent reference in approach areas, encounter spots and
// ladder adjacency.
const NoID uint32 = 0

// RefKind classifies a reference by the record that holds it.
type RefKind int

const (
	RefConnection RefKind = iota
	RefApproach
	RefEncounter
	RefPathSpot
	RefLadderDirection
	RefLadderArea
)

func (k RefKind) String() string {
	switch k {
	case RefConnection:
		return "connection"
	case RefApproach:
		return "approach area"
	case RefEncounter:
		return "encounter spot"
	case RefPathSpot:
		return "path spot"
	case RefLadderDirection:
		return "ladder direction"
	case RefLadderArea:
		return "ladder area"
	default:
		return "unknown"
	}
}

// Ref is one ID reference. Owner is the area ID, or the ladder ID for
// RefLadderArea.
type Ref struct {
	Kind   RefKind
	Owner  uint32
	Field  string
	Target uint32
}

func (r Ref) String() string {
	owner := "area"
	if r.Kind == RefLadderArea {
		owner = "ladder"
	}
	return fmt.Sprintf("%s %d %s -> %d", owner, r.Owner, r.Field, r.Target)
}

// Index answers lookups over one document. It does not copy the
// document; mutating nav after Build invalidates the index.
type Index struct {
	nav     *model.NavFile
	areas   map[uint32]int
	ladders map[uint32]int
	spots   map[uint32]struct{}
	dups    []uint32
}

// Build indexes nav. When an area or ladder ID repeats, the first record
// wins and the ID is reported by Duplicates.
func Build(nav *model.NavFile) *Index {
	ix := &Index{
		nav:     nav,
		areas:   make(map[uint32]int, len(nav.Areas)),
		ladders: make(map[uint32]int, len(nav.Ladders)),
		spots:   make(map[uint32]struct{}),
	}

	seen := make(map[uint32]bool)
	for i := range nav.Areas {
		a := &nav.Areas[i]
		if _, ok := ix.areas[a.ID]; ok {
			if !seen[a.ID] {
				ix.dups = append(ix.dups, a.ID)
				seen[a.ID] = true
			}
		} else {
			ix.areas[a.ID] = i
		}
		for _, s := range a.HidingSpots {
			ix.spots[s.ID] = struct{}{}
		}
	}
	sort.Slice(ix.dups, func(i, j int) bool { return ix.dups[i] < ix.dups[j] })

	for i := range nav.Ladders {
		if _, ok := ix.ladders[nav.Ladders[i].ID]; !ok {
			ix.ladders[nav.Ladders[i].ID] = i
		}
	}

	return ix
}

// Area returns the area with the given ID.
func (ix *Index) Area(id uint32) (*model.Area, bool) {
	i, ok := ix.areas[id]
	if !ok {
		return nil, false
	}
	return &ix.nav.Areas[i], true
}

// Ladder returns the ladder with the given ID.
func (ix *Index) Ladder(id uint32) (*model.Ladder, bool) {
	i, ok := ix.ladders[id]
	if !ok {
		return nil, false
	}
	return &ix.nav.Ladders[i], true
}

// PlaceName returns the raw name of the place an area belongs to. Place
// entries are 1-based; 0 means the area has no place.
func (ix *Index) PlaceName(a *model.Area) ([]byte, bool) {
	if a.Place == 0 || int(a.Place) > len(ix.nav.Places) {
		return nil, false
	}
	return ix.nav.Places[a.Place-1].Name, true
}

// AreaAt returns the first area, in file order, whose extent contains
// the XY point.
func (ix *Index) AreaAt(x, y float32) (*model.Area, bool) {
	for i := range ix.nav.Areas {
		if ix.nav.Areas[i].Contains(x, y) {
			return &ix.nav.Areas[i], true
		}
	}
	return nil, false
}

// Duplicates returns every area ID used by more than one area, sorted.
func (ix *Index) Duplicates() []uint32 {
	return ix.dups
}

// PlacesOutOfRange returns the areas whose place entry is past the end of
// the place table.
func (ix *Index) PlacesOutOfRange() []*model.Area {
	var areas []*model.Area
	for i := range ix.nav.Areas {
		a := &ix.nav.Areas[i]
		if a.Place != 0 && int(a.Place) > len(ix.nav.Places) {
			areas = append(areas, a)
		}
	}
	return areas
}

// Dangling returns every reference whose target does not exist, in file
// order.
func (ix *Index) Dangling() []Ref {
	var refs []Ref
	add := func(r Ref) {
		if !ix.resolves(r) {
			refs = append(refs, r)
		}
	}

	for i := range ix.nav.Areas {
		a := &ix.nav.Areas[i]

		for d, ids := range a.Connections {
			for _, id := range ids {
				add(Ref{RefConnection, a.ID, "connections." + model.Direction(d).String(), id})
			}
		}

		for j, ap := range a.ApproachAreas {
			field := fmt.Sprintf("approach_areas[%d]", j)
			add(Ref{RefApproach, a.ID, field + ".here", ap.Here})
			add(Ref{RefApproach, a.ID, field + ".prev", ap.Prev})
			add(Ref{RefApproach, a.ID, field + ".next", ap.Next})
		}

		for j, e := range a.EncounterSpots {
			field := fmt.Sprintf("encounter_spots[%d]", j)
			add(Ref{RefEncounter, a.ID, field + ".from", e.From})
			add(Ref{RefEncounter, a.ID, field + ".to", e.To})
			for k, p := range e.Path {
				add(Ref{RefPathSpot, a.ID, fmt.Sprintf("%s.path[%d]", field, k), p.ID})
			}
		}

		for d, ids := range a.Ladders {
			for _, id := range ids {
				add(Ref{RefLadderDirection, a.ID, "ladders." + model.LadderDirection(d).String(), id})
			}
		}
	}

	for i := range ix.nav.Ladders {
		l := &ix.nav.Ladders[i]
		add(Ref{RefLadderArea, l.ID, "top_forward", l.TopForward})
		add(Ref{RefLadderArea, l.ID, "top_left", l.TopLeft})
		add(Ref{RefLadderArea, l.ID, "top_behind", l.TopBehind})
		add(Ref{RefLadderArea, l.ID, "bottom", l.BottomArea})
	}

	return refs
}

func (ix *Index) resolves(r Ref) bool {
	switch r.Kind {
	case RefConnection:
		_, ok := ix.areas[r.Target]
		return ok
	case RefPathSpot:
		_, ok := ix.spots[r.Target]
		return ok
	case RefLadderDirection:
		_, ok := ix.ladders[r.Target]
		return ok
	default:
		if r.Target == NoID {
			return true
		}
		_, ok := ix.areas[r.Target]
		return ok
	}
}
