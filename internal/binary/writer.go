package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/dyuri/navconv/internal/model"
)

// Writer handles writing NAV files to binary format. The layout is taken
// from the document's header version, exactly as the reader derives it.
type Writer struct {
	w      io.Writer
	endian binary.ByteOrder
	layout Layout
	buf    *bytes.Buffer
}

// NewWriter creates a new binary NAV writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:      w,
		endian: binary.LittleEndian,
		buf:    &bytes.Buffer{},
	}
}

// Write encodes a complete NAV file. Nothing reaches the underlying writer
// unless the whole document encodes.
func (w *Writer) Write(nav *model.NavFile) error {
	if nav.Header.Version < 1 {
		return fmt.Errorf("write header: %w: version %d", ErrUnsupportedVersion, nav.Header.Version)
	}
	w.layout = LayoutFor(nav.Header.Version)
	w.buf.Reset()

	w.writeHeader(&nav.Header)

	if w.layout.Places {
		if err := w.writePlaces(nav.Places, nav.HasUnnamedAreas); err != nil {
			return fmt.Errorf("write places: %w", err)
		}
	}

	w.u32(uint32(len(nav.Areas)))
	for i := range nav.Areas {
		if err := w.writeArea(&nav.Areas[i]); err != nil {
			return fmt.Errorf("write area %d: %w", i, err)
		}
	}

	w.u32(uint32(len(nav.Ladders)))
	for i := range nav.Ladders {
		w.writeLadder(&nav.Ladders[i])
	}

	if _, err := w.buf.WriteTo(w.w); err != nil {
		return fmt.Errorf("write nav data: %w", err)
	}
	return nil
}

// writeHeader writes the header. Optional fields the version requires but
// the document lacks are written as zero.
func (w *Writer) writeHeader(h *model.Header) {
	magic := h.Magic
	if magic == 0 {
		magic = Magic
	}
	w.u32(magic)
	w.u32(h.Version)

	if w.layout.Subversion {
		w.u32(deref32(h.Subversion))
	}
	if w.layout.GeometrySize {
		w.u32(deref32(h.GeometrySize))
	}
	if w.layout.Analyzed {
		w.u8(deref8(h.Analyzed))
	}
}

func (w *Writer) writePlaces(places []model.Place, unnamed *uint8) error {
	if len(places) > math.MaxUint16 {
		return fmt.Errorf("too many places: %d", len(places))
	}
	w.u16(uint16(len(places)))
	for _, p := range places {
		if len(p.Name) > math.MaxUint16 {
			return fmt.Errorf("place %d: name too long: %d bytes", p.Index, len(p.Name))
		}
		w.u16(uint16(len(p.Name)))
		w.buf.Write(p.Name)
	}
	if w.layout.UnnamedAreas {
		w.u8(deref8(unnamed))
	}
	return nil
}

func (w *Writer) writeArea(a *model.Area) error {
	w.u32(a.ID)

	switch w.layout.AttrWidth {
	case Attr8:
		if a.Attributes < 0 || a.Attributes > math.MaxUint8 {
			return fmt.Errorf("attribute flags 0x%x do not fit in 8 bits", a.Attributes)
		}
		w.u8(uint8(a.Attributes))
	case Attr16:
		if a.Attributes < 0 || a.Attributes > math.MaxUint16 {
			return fmt.Errorf("attribute flags 0x%x do not fit in 16 bits", a.Attributes)
		}
		w.u16(uint16(a.Attributes))
	default:
		w.u32(uint32(a.Attributes))
	}

	w.vec(a.NWCorner.Origin)
	w.vec(a.SECorner.Origin)
	w.f32(a.NWCorner.ImplicitHeight)
	w.f32(a.SECorner.ImplicitHeight)

	for _, ids := range a.Connections {
		w.ids(ids)
	}

	if len(a.HidingSpots) > math.MaxUint8 {
		return fmt.Errorf("too many hiding spots: %d", len(a.HidingSpots))
	}
	w.u8(uint8(len(a.HidingSpots)))
	for _, s := range a.HidingSpots {
		w.u32(s.ID)
		w.vec(s.Pos)
		w.u8(s.Flags)
	}

	if len(a.ApproachAreas) > math.MaxUint8 {
		return fmt.Errorf("too many approach areas: %d", len(a.ApproachAreas))
	}
	w.u8(uint8(len(a.ApproachAreas)))
	for _, ap := range a.ApproachAreas {
		w.u32(ap.Here)
		w.u32(ap.Prev)
		w.u8(ap.PrevToHere)
		w.u32(ap.Next)
		w.u8(ap.HereToNext)
	}

	w.u32(uint32(len(a.EncounterSpots)))
	for i, e := range a.EncounterSpots {
		if len(e.Path) > math.MaxUint8 {
			return fmt.Errorf("encounter spot %d: too many path spots: %d", i, len(e.Path))
		}
		w.u32(e.From)
		w.u8(e.FromDir)
		w.u32(e.To)
		w.u8(e.ToDir)
		w.u8(uint8(len(e.Path)))
		for _, p := range e.Path {
			w.u32(p.ID)
			w.u8(p.T)
		}
	}

	w.u16(a.Place)

	for _, ids := range a.Ladders {
		w.ids(ids)
	}

	for _, t := range a.EarliestOccupy {
		w.f32(t)
	}
	return nil
}

func (w *Writer) writeLadder(l *model.Ladder) {
	w.u32(l.ID)
	w.f32(l.Width)
	w.vec(l.Top)
	w.vec(l.Bottom)
	w.f32(l.Length)
	w.u32(l.Dir)
	w.u32(l.TopForward)
	w.u32(l.TopLeft)
	w.u32(l.TopBehind)
	w.u32(l.BottomArea)
}

func (w *Writer) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) u16(v uint16) {
	var b [2]byte
	w.endian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) u32(v uint32) {
	var b [4]byte
	w.endian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *Writer) vec(v model.Vector3) {
	w.f32(v.X)
	w.f32(v.Y)
	w.f32(v.Z)
}

func (w *Writer) ids(ids []uint32) {
	w.u32(uint32(len(ids)))
	for _, id := range ids {
		w.u32(id)
	}
}

func deref32(p *uint32) uint32 {
	if p == nil {
		return 0
	}
	return *p
}

func deref8(p *uint8) uint8 {
	if p == nil {
		return 0
	}
	return *p
}
