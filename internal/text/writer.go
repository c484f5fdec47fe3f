package text

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dyuri/navconv/internal/model"
	"golang.org/x/text/encoding"
)

// Writer handles writing decoded NAV data as Valve KeyValues text.
//
// The tree mirrors the binary layout: one "nav" root holding "meta",
// "header", "places" (version 5+), "navigation_areas" and "ladders".
// List entries are keyed by position ("area_0", "connection_3"), never
// by ID.
type Writer struct {
	w     *bufio.Writer
	dec   *encoding.Decoder
	depth int
	err   error
}

// NewWriter creates a new KeyValues writer. Place names are decoded from
// the given code page.
func NewWriter(w io.Writer, codepage int) (*Writer, error) {
	dec, err := Decoder(codepage)
	if err != nil {
		return nil, err
	}
	return &Writer{w: bufio.NewWriter(w), dec: dec}, nil
}

// Write outputs the whole document.
func (w *Writer) Write(nav *model.NavFile) error {
	w.open("nav")

	w.writeMeta(&nav.Meta)
	w.writeHeader(&nav.Header)

	if nav.Places != nil {
		w.writePlaces(nav.Places, nav.HasUnnamedAreas)
	}

	w.open("navigation_areas")
	for i := range nav.Areas {
		w.writeArea(i, &nav.Areas[i])
	}
	w.close()

	w.open("ladders")
	for i := range nav.Ladders {
		w.writeLadder(i, &nav.Ladders[i])
	}
	w.close()

	w.close()

	if w.err != nil {
		return fmt.Errorf("write keyvalues: %w", w.err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush keyvalues: %w", err)
	}
	return nil
}

func (w *Writer) writeMeta(m *model.Meta) {
	w.open("meta")
	w.kv("map", m.Map)
	w.kv("description", m.Description)
	w.kv("version", m.FormatVersion)
	w.kv("nav_parse_successful", boolString(m.Successful))
	w.close()
}

func (w *Writer) writeHeader(h *model.Header) {
	w.open("header")
	w.kv("magic", fmt.Sprintf("%X", h.Magic))
	w.kv("version", fmt.Sprintf("%d", h.Version))
	if h.Subversion != nil {
		w.kv("subversion", fmt.Sprintf("%d", *h.Subversion))
	}
	if h.GeometrySize != nil {
		w.kv("bsp_size", fmt.Sprintf("%d", *h.GeometrySize))
	}
	if h.Analyzed != nil {
		w.kv("is_analyzed", fmt.Sprintf("%d", *h.Analyzed))
	}
	w.close()
}

func (w *Writer) writePlaces(places []model.Place, unnamed *uint8) {
	w.open("places")
	for _, p := range places {
		w.open(fmt.Sprintf("place_%d", p.Index))
		w.kv("place_name", DecodeName(w.dec, p.Name))
		w.close()
	}
	if unnamed != nil {
		w.kv("has_unnamed_areas", fmt.Sprintf("%d", *unnamed))
	}
	w.close()
}

func (w *Writer) writeArea(i int, a *model.Area) {
	w.open(fmt.Sprintf("area_%d", i))
	w.kv("id", fmt.Sprintf("%d", a.ID))
	w.kv("attribute_flags", fmt.Sprintf("%d", a.Attributes))

	w.writeCorner("extents_nw_corner", a.NWCorner)
	w.writeCorner("extents_se_corner", a.SECorner)

	w.open("dirs")
	for d, ids := range a.Connections {
		w.open(model.Direction(d).String())
		for j, id := range ids {
			w.open(fmt.Sprintf("connection_%d", j))
			w.kv("connects_to_area_id", fmt.Sprintf("%d", id))
			w.close()
		}
		w.close()
	}
	w.close()

	w.open("hiding_spots")
	for j, s := range a.HidingSpots {
		w.open(fmt.Sprintf("spot_%d", j))
		w.kv("id", fmt.Sprintf("%d", s.ID))
		w.open("pos")
		w.kv("origin", vector(s.Pos))
		w.close()
		w.kv("flags", fmt.Sprintf("%d", s.Flags))
		w.close()
	}
	w.close()

	w.open("approach_areas")
	for j, ap := range a.ApproachAreas {
		w.open(fmt.Sprintf("area_%d", j))
		w.kv("this_area_id", fmt.Sprintf("%d", ap.Here))
		w.kv("prev_area_id", fmt.Sprintf("%d", ap.Prev))
		w.kv("prev_area_to_here_how_type", fmt.Sprintf("%d", ap.PrevToHere))
		w.kv("next_area_id", fmt.Sprintf("%d", ap.Next))
		w.kv("here_to_next_area_how_type", fmt.Sprintf("%d", ap.HereToNext))
		w.close()
	}
	w.close()

	w.open("encounter_spots")
	for j, e := range a.EncounterSpots {
		w.open(fmt.Sprintf("spot_%d", j))
		w.kv("from_area_id", fmt.Sprintf("%d", e.From))
		w.kv("from_dir", fmt.Sprintf("%d", e.FromDir))
		w.kv("to_area_id", fmt.Sprintf("%d", e.To))
		w.kv("to_dir", fmt.Sprintf("%d", e.ToDir))
		w.open("spots_along_this_path")
		for k, p := range e.Path {
			w.open(fmt.Sprintf("spot_%d", k))
			w.kv("id", fmt.Sprintf("%d", p.ID))
			w.kv("t", fmt.Sprintf("%d", p.T))
			w.close()
		}
		w.close()
		w.close()
	}
	w.close()

	w.kv("place_dictionary_entry", fmt.Sprintf("%d", a.Place))

	w.open("ladder_directions")
	for d, ids := range a.Ladders {
		w.open(model.LadderDirection(d).String())
		for j, id := range ids {
			w.open(fmt.Sprintf("ladder_%d", j))
			w.kv("id", fmt.Sprintf("%d", id))
			w.close()
		}
		w.close()
	}
	w.close()

	w.open("nav_teams")
	for t, occupy := range a.EarliestOccupy {
		w.open(fmt.Sprintf("team_%d", t))
		w.kv("earliest_occupy_time", fmt.Sprintf("%f", occupy))
		w.close()
	}
	w.close()

	w.close()
}

func (w *Writer) writeCorner(key string, c model.Corner) {
	w.open(key)
	w.kv("origin", vector(c.Origin))
	w.kv("implicit_height", fmt.Sprintf("%f", c.ImplicitHeight))
	w.close()
}

func (w *Writer) writeLadder(i int, l *model.Ladder) {
	w.open(fmt.Sprintf("ladder_%d", i))
	w.kv("id", fmt.Sprintf("%d", l.ID))
	w.kv("width", fmt.Sprintf("%f", l.Width))
	w.open("top_endpoint")
	w.kv("origin", vector(l.Top))
	w.close()
	w.open("bottom_endpoint")
	w.kv("origin", vector(l.Bottom))
	w.close()
	w.kv("length", fmt.Sprintf("%f", l.Length))
	w.kv("dir", fmt.Sprintf("%d", l.Dir))
	w.kv("id_of_top_forward_area", fmt.Sprintf("%d", l.TopForward))
	w.kv("id_of_top_left_area", fmt.Sprintf("%d", l.TopLeft))
	w.kv("id_of_top_behind_area", fmt.Sprintf("%d", l.TopBehind))
	w.kv("id_of_bottom_area", fmt.Sprintf("%d", l.BottomArea))
	w.close()
}

// open starts a subsection:
//
//	"key"
//	{
func (w *Writer) open(key string) {
	w.line(quote(key))
	w.line("{")
	w.depth++
}

func (w *Writer) close() {
	w.depth--
	w.line("}")
}

func (w *Writer) kv(key, value string) {
	w.line(quote(key) + "\t" + quote(value))
}

func (w *Writer) line(s string) {
	if w.err != nil {
		return
	}
	if _, err := w.w.WriteString(strings.Repeat("\t", w.depth)); err != nil {
		w.err = err
		return
	}
	if _, err := w.w.WriteString(s); err != nil {
		w.err = err
		return
	}
	w.err = w.w.WriteByte('\n')
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

func vector(v model.Vector3) string {
	return fmt.Sprintf("%f %f %f", v.X, v.Y, v.Z)
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
