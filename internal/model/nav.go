package model

// NavFile represents a decoded navigation mesh in a format-agnostic way.
// Areas, ladders and places refer to each other by numeric ID only; nothing
// in here is resolved into pointers.
type NavFile struct {
	Meta   Meta   `json:"meta" yaml:"meta"`
	Header Header `json:"header" yaml:"header"`

	// Places is nil before version 5.
	Places []Place `json:"places,omitempty" yaml:"places,omitempty"`
	// HasUnnamedAreas is set from version 12 on.
	HasUnnamedAreas *uint8 `json:"hasUnnamedAreas,omitempty" yaml:"has_unnamed_areas,omitempty"`

	Areas   []Area   `json:"areas" yaml:"areas"`
	Ladders []Ladder `json:"ladders" yaml:"ladders"`
}

// Meta describes the decoded document rather than the binary file.
type Meta struct {
	Map           string `json:"map" yaml:"map"`
	Description   string `json:"description" yaml:"description"`
	FormatVersion string `json:"formatVersion" yaml:"format_version"`
	Successful    bool   `json:"successful" yaml:"successful"`
}

// Document metadata written into every decoded file. FormatVersion tracks
// the shape of the output tree, not the NAV version.
const (
	Description   = "Neotokyo bot navigation file"
	FormatVersion = "0.2"
)

// Header contains NAV file metadata. Optional fields are nil when the
// file version predates them.
type Header struct {
	Magic        uint32  `json:"magic" yaml:"magic"`
	Version      uint32  `json:"version" yaml:"version"`
	Subversion   *uint32 `json:"subversion,omitempty" yaml:"subversion,omitempty"`      // version 10+
	GeometrySize *uint32 `json:"geometrySize,omitempty" yaml:"geometry_size,omitempty"` // version 4+
	Analyzed     *uint8  `json:"analyzed,omitempty" yaml:"analyzed,omitempty"`          // version 14+
}

// Place is a named zone. Areas reference places by Index.
type Place struct {
	Index int    `json:"index" yaml:"index"`
	Name  []byte `json:"name" yaml:"name"` // raw, not null-terminated
}

// Vector3 is a position in world units.
type Vector3 struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
	Z float32 `json:"z" yaml:"z"`
}

// Corner is one extent corner of an area plus the height of the implicit
// corner next to it.
type Corner struct {
	Origin         Vector3 `json:"origin" yaml:"origin"`
	ImplicitHeight float32 `json:"implicitHeight" yaml:"implicit_height"`
}

// Direction indexes Area.Connections.
type Direction int

const (
	North Direction = iota
	East
	South
	West
	NumDirections
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// LadderDirection indexes Area.Ladders.
type LadderDirection int

const (
	LadderUp LadderDirection = iota
	LadderDown
	NumLadderDirections
)

func (d LadderDirection) String() string {
	if d == LadderUp {
		return "up"
	}
	return "down"
}

// NumTeams is the number of fixed team slots stored per area.
const NumTeams = 2

// Area is a convex navigable region.
type Area struct {
	ID             uint32                        `json:"id" yaml:"id"`
	Attributes     int32                         `json:"attributes" yaml:"attributes"`
	NWCorner       Corner                        `json:"nwCorner" yaml:"nw_corner"`
	SECorner       Corner                        `json:"seCorner" yaml:"se_corner"`
	Connections    [NumDirections][]uint32       `json:"connections" yaml:"connections"` // north, east, south, west
	HidingSpots    []HidingSpot                  `json:"hidingSpots" yaml:"hiding_spots"`
	ApproachAreas  []ApproachArea                `json:"approachAreas" yaml:"approach_areas"`
	EncounterSpots []EncounterSpot               `json:"encounterSpots" yaml:"encounter_spots"`
	Place          uint16                        `json:"place" yaml:"place"`
	Ladders        [NumLadderDirections][]uint32 `json:"ladders" yaml:"ladders"` // up, down
	EarliestOccupy [NumTeams]float32             `json:"earliestOccupy" yaml:"earliest_occupy"`
}

// HidingSpot is a tactical position inside an area.
type HidingSpot struct {
	ID    uint32  `json:"id" yaml:"id"`
	Pos   Vector3 `json:"pos" yaml:"pos"`
	Flags uint8   `json:"flags" yaml:"flags"`
}

// ApproachArea describes how an area is reached: prev -> here -> next.
type ApproachArea struct {
	Here       uint32 `json:"here" yaml:"here"`
	Prev       uint32 `json:"prev" yaml:"prev"`
	PrevToHere uint8  `json:"prevToHere" yaml:"prev_to_here"`
	Next       uint32 `json:"next" yaml:"next"`
	HereToNext uint8  `json:"hereToNext" yaml:"here_to_next"`
}

// EncounterSpot is a sightline between two neighbouring areas.
type EncounterSpot struct {
	From    uint32     `json:"from" yaml:"from"`
	FromDir uint8      `json:"fromDir" yaml:"from_dir"`
	To      uint32     `json:"to" yaml:"to"`
	ToDir   uint8      `json:"toDir" yaml:"to_dir"`
	Path    []PathSpot `json:"path" yaml:"path"`
}

// PathSpot is a spot along an encounter path. T is kept as read; its
// meaning is not known.
type PathSpot struct {
	ID uint32 `json:"id" yaml:"id"`
	T  uint8  `json:"t" yaml:"t"`
}

// Ladder is a vertical connector between areas.
type Ladder struct {
	ID         uint32  `json:"id" yaml:"id"`
	Width      float32 `json:"width" yaml:"width"`
	Top        Vector3 `json:"top" yaml:"top"`
	Bottom     Vector3 `json:"bottom" yaml:"bottom"`
	Length     float32 `json:"length" yaml:"length"`
	Dir        uint32  `json:"dir" yaml:"dir"`
	TopForward uint32  `json:"topForward" yaml:"top_forward"`
	TopLeft    uint32  `json:"topLeft" yaml:"top_left"`
	TopBehind  uint32  `json:"topBehind" yaml:"top_behind"`
	BottomArea uint32  `json:"bottomArea" yaml:"bottom_area"`
}

// NewNavFile creates a new empty document for the named map
func NewNavFile(mapName string) *NavFile {
	return &NavFile{
		Meta: Meta{
			Map:           mapName,
			Description:   Description,
			FormatVersion: FormatVersion,
		},
		Areas:   make([]Area, 0),
		Ladders: make([]Ladder, 0),
	}
}

// Contains reports whether the XY point lies inside the area extent.
func (a *Area) Contains(x, y float32) bool {
	minX, maxX := a.NWCorner.Origin.X, a.SECorner.Origin.X
	minY, maxY := a.NWCorner.Origin.Y, a.SECorner.Origin.Y
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}
