package binary

// Magic is the fixed NAV file header ID.
const Magic uint32 = 0xFEEDFACE

// AttrWidth is the on-disk width of the area attribute flags.
type AttrWidth int

const (
	Attr8  AttrWidth = 1 // unsigned byte
	Attr16 AttrWidth = 2 // unsigned short
	Attr32 AttrWidth = 4 // signed int
)

// Layout lists which version-dependent fields a NAV file carries. It is
// derived once from the header version and shared by the reader and the
// writer, so both agree on every gated field.
type Layout struct {
	Version uint32

	Subversion   bool // version >= 10
	GeometrySize bool // version >= 4
	Analyzed     bool // version >= 14
	Places       bool // version >= 5
	UnnamedAreas bool // version >= 12
	CustomData   bool // version >= 10, never parsed
	SourceLayout bool // version >= 6; older files may come from GoldSrc tools

	AttrWidth AttrWidth
}

// LayoutFor returns the field layout for a NAV version.
func LayoutFor(version uint32) Layout {
	l := Layout{
		Version:      version,
		Subversion:   version >= 10,
		GeometrySize: version >= 4,
		Analyzed:     version >= 14,
		Places:       version >= 5,
		UnnamedAreas: version >= 12,
		CustomData:   version >= 10,
		SourceLayout: version >= 6,
	}

	switch {
	case version >= 13:
		l.AttrWidth = Attr32
	case version >= 9:
		l.AttrWidth = Attr16
	default:
		l.AttrWidth = Attr8
	}

	return l
}
