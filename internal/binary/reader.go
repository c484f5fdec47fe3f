package binary

import (
	"errors"
	"fmt"
	"io"

	"github.com/dyuri/navconv/internal/model"
	"go.uber.org/zap"
)

// maxPrealloc caps slice capacity taken from on-disk counts. Larger lists
// still decode; they just grow as bytes actually arrive.
const maxPrealloc = 1024

// Options configures a decode.
type Options struct {
	MapName string // identifier stored in the document metadata
	NavPath string // only used in error messages

	// GeometryPath and GeometrySize describe the companion geometry file.
	// The header's declared size must match GeometrySize unless
	// SkipGeometryCheck is set.
	GeometryPath      string
	GeometrySize      int64
	SkipGeometryCheck bool

	SuppressCustomDataWarning bool

	Logger *zap.Logger // nil means no logging
}

// Reader handles parsing of binary NAV files
type Reader struct {
	c      *Cursor
	opts   Options
	log    *zap.Logger
	layout Layout
}

// NewReader creates a new binary NAV reader
func NewReader(r io.Reader, opts Options) *Reader {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{
		c:    NewCursor(r),
		opts: opts,
		log:  log,
	}
}

// Layout returns the field layout in effect. It is only meaningful after
// the header has been read.
func (r *Reader) Layout() Layout {
	return r.layout
}

// Parse reads the entire NAV file and returns the internal model. On
// error no document is returned.
func (r *Reader) Parse() (*model.NavFile, error) {
	nav := model.NewNavFile(r.opts.MapName)

	header, err := r.ReadHeader()
	if err != nil {
		return nil, r.fail("read header", err)
	}
	nav.Header = *header

	if r.layout.Places {
		places, unnamed, err := r.ReadPlaces()
		if err != nil {
			return nil, r.fail("read places", err)
		}
		nav.Places = places
		nav.HasUnnamedAreas = unnamed
	}

	if r.layout.CustomData && !r.opts.SuppressCustomDataWarning {
		r.log.Warn("nav versions 10 and higher may carry custom area data, which is not parsed; "+
			"if the game writes any, decoded areas will be wrong",
			zap.String("map", r.opts.MapName),
			zap.Uint32("version", r.layout.Version))
	}

	areas, err := r.ReadAreas()
	if err != nil {
		return nil, r.fail("read areas", err)
	}
	nav.Areas = areas

	ladders, err := r.ReadLadders()
	if err != nil {
		return nil, r.fail("read ladders", err)
	}
	nav.Ladders = ladders

	nav.Meta.Successful = true
	r.log.Debug("finished parsing nav",
		zap.String("map", r.opts.MapName),
		zap.Int64("offset", r.c.Offset()),
		zap.Int("trailing_buffered", r.c.Buffered()))

	return nav, nil
}

// fail attaches the nav path to err and wraps it with the step name. A
// geometry size mismatch names the geometry file, never the nav file.
func (r *Reader) fail(step string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Path == "" && !errors.Is(de.Kind, ErrGeometrySizeMismatch) {
		de.Path = r.opts.NavPath
	}
	return fmt.Errorf("%s: %w", step, err)
}

// ReadHeader reads and validates the NAV header
func (r *Reader) ReadHeader() (*model.Header, error) {
	magic, err := r.c.U32()
	if err != nil {
		return nil, within(err, "header", -1, "magic")
	}
	if magic != Magic {
		return nil, &DecodeError{
			Kind:    ErrBadMagicNumber,
			Section: "header",
			Index:   -1,
			Field:   "magic",
			Err:     fmt.Errorf("got 0x%08X, want 0x%08X", magic, Magic),
		}
	}

	off := r.c.Offset()
	version, err := r.c.U32()
	if err != nil {
		return nil, within(err, "header", -1, "version")
	}
	if version < 1 {
		return nil, &DecodeError{
			Kind:    ErrUnsupportedVersion,
			Section: "header",
			Index:   -1,
			Field:   "version",
			Offset:  off,
			Err:     fmt.Errorf("version %d", version),
		}
	}

	r.layout = LayoutFor(version)
	r.log.Debug("nav header",
		zap.String("map", r.opts.MapName),
		zap.String("magic", fmt.Sprintf("%X", magic)),
		zap.Uint32("version", version))

	if !r.layout.SourceLayout {
		r.log.Warn("nav version predates the Source layout; GoldSrc-era files may decode incorrectly",
			zap.String("map", r.opts.MapName),
			zap.Uint32("version", version))
	}

	header := &model.Header{
		Magic:   magic,
		Version: version,
	}

	if r.layout.Subversion {
		sub, err := r.c.U32()
		if err != nil {
			return nil, within(err, "header", -1, "subversion")
		}
		header.Subversion = &sub
	}

	if r.layout.GeometrySize {
		off := r.c.Offset()
		size, err := r.c.U32()
		if err != nil {
			return nil, within(err, "header", -1, "geometry_size")
		}
		if !r.opts.SkipGeometryCheck && int64(size) != r.opts.GeometrySize {
			return nil, &DecodeError{
				Kind:     ErrGeometrySizeMismatch,
				Section:  "header",
				Index:    -1,
				Field:    "geometry_size",
				Offset:   off,
				Path:     r.opts.GeometryPath,
				Expected: int64(size),
				Actual:   r.opts.GeometrySize,
			}
		}
		header.GeometrySize = &size
	}

	if r.layout.Analyzed {
		analyzed, err := r.c.U8()
		if err != nil {
			return nil, within(err, "header", -1, "is_analyzed")
		}
		header.Analyzed = &analyzed
	}

	return header, nil
}

// ReadPlaces reads the place name table and, from version 12, the
// has-unnamed-areas flag that follows it.
func (r *Reader) ReadPlaces() ([]model.Place, *uint8, error) {
	count, err := r.c.U16()
	if err != nil {
		return nil, nil, within(err, "places", -1, "count")
	}
	r.log.Debug("reading places", zap.Uint16("count", count))

	places := make([]model.Place, 0, count)
	for i := 0; i < int(count); i++ {
		n, err := r.c.U16()
		if err != nil {
			return nil, nil, within(err, "places", i, "name_length")
		}
		name, err := r.c.Bytes(int(n))
		if err != nil {
			return nil, nil, within(err, "places", i, "name")
		}
		places = append(places, model.Place{Index: i, Name: name})
	}

	if !r.layout.UnnamedAreas {
		return places, nil, nil
	}
	unnamed, err := r.c.U8()
	if err != nil {
		return nil, nil, within(err, "places", -1, "has_unnamed_areas")
	}
	return places, &unnamed, nil
}

// ReadAreas reads the area count and every area record.
func (r *Reader) ReadAreas() ([]model.Area, error) {
	count, err := r.c.U32()
	if err != nil {
		return nil, within(err, "areas", -1, "count")
	}
	r.log.Debug("reading areas",
		zap.Uint32("count", count),
		zap.Int64("offset", r.c.Offset()))

	areas := make([]model.Area, 0, capped(count))
	for i := uint32(0); i < count; i++ {
		area, err := r.readArea()
		if err != nil {
			return nil, within(err, "areas", int(i), "")
		}
		areas = append(areas, area)
	}
	return areas, nil
}

func (r *Reader) readArea() (model.Area, error) {
	var (
		a   model.Area
		err error
	)

	if a.ID, err = r.c.U32(); err != nil {
		return a, within(err, "", -1, "id")
	}
	if a.Attributes, err = r.readAttributes(); err != nil {
		return a, within(err, "", -1, "attribute_flags")
	}

	// Both corners first, then the two implicit corner heights.
	if a.NWCorner.Origin, err = r.readVector(); err != nil {
		return a, within(err, "", -1, "extents_nw_corner.origin")
	}
	if a.SECorner.Origin, err = r.readVector(); err != nil {
		return a, within(err, "", -1, "extents_se_corner.origin")
	}
	if a.NWCorner.ImplicitHeight, err = r.c.F32(); err != nil {
		return a, within(err, "", -1, "extents_nw_corner.implicit_height")
	}
	if a.SECorner.ImplicitHeight, err = r.c.F32(); err != nil {
		return a, within(err, "", -1, "extents_se_corner.implicit_height")
	}

	for d := model.North; d < model.NumDirections; d++ {
		if a.Connections[d], err = r.readIDs(); err != nil {
			return a, within(err, "", -1, "connections."+d.String())
		}
	}

	if a.HidingSpots, err = r.readHidingSpots(); err != nil {
		return a, err
	}
	if a.ApproachAreas, err = r.readApproachAreas(); err != nil {
		return a, err
	}
	if a.EncounterSpots, err = r.readEncounterSpots(); err != nil {
		return a, err
	}

	if a.Place, err = r.c.U16(); err != nil {
		return a, within(err, "", -1, "place_dictionary_entry")
	}

	for d := model.LadderUp; d < model.NumLadderDirections; d++ {
		if a.Ladders[d], err = r.readIDs(); err != nil {
			return a, within(err, "", -1, "ladder_directions."+d.String())
		}
	}

	for t := 0; t < model.NumTeams; t++ {
		if a.EarliestOccupy[t], err = r.c.F32(); err != nil {
			return a, within(err, "", -1, fmt.Sprintf("nav_teams[%d]", t))
		}
	}

	return a, nil
}

// readAttributes reads the attribute flags at the width the version
// dictates. Narrow values are zero-extended.
func (r *Reader) readAttributes() (int32, error) {
	switch r.layout.AttrWidth {
	case Attr8:
		v, err := r.c.U8()
		return int32(v), err
	case Attr16:
		v, err := r.c.U16()
		return int32(v), err
	default:
		return r.c.I32()
	}
}

func (r *Reader) readVector() (model.Vector3, error) {
	var (
		v   model.Vector3
		err error
	)
	if v.X, err = r.c.F32(); err != nil {
		return v, err
	}
	if v.Y, err = r.c.F32(); err != nil {
		return v, err
	}
	v.Z, err = r.c.F32()
	return v, err
}

// readIDs reads a u32 count followed by that many u32 IDs.
func (r *Reader) readIDs() ([]uint32, error) {
	count, err := r.c.U32()
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, 0, capped(count))
	for i := uint32(0); i < count; i++ {
		id, err := r.c.U32()
		if err != nil {
			return nil, within(err, "", -1, fmt.Sprintf("[%d]", i))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Reader) readHidingSpots() ([]model.HidingSpot, error) {
	count, err := r.c.U8()
	if err != nil {
		return nil, within(err, "", -1, "hiding_spots")
	}
	spots := make([]model.HidingSpot, 0, count)
	for i := 0; i < int(count); i++ {
		var s model.HidingSpot
		field := fmt.Sprintf("hiding_spots[%d]", i)
		if s.ID, err = r.c.U32(); err != nil {
			return nil, within(err, "", -1, field+".id")
		}
		if s.Pos, err = r.readVector(); err != nil {
			return nil, within(err, "", -1, field+".pos")
		}
		if s.Flags, err = r.c.U8(); err != nil {
			return nil, within(err, "", -1, field+".flags")
		}
		spots = append(spots, s)
	}
	return spots, nil
}

func (r *Reader) readApproachAreas() ([]model.ApproachArea, error) {
	count, err := r.c.U8()
	if err != nil {
		return nil, within(err, "", -1, "approach_areas")
	}
	approaches := make([]model.ApproachArea, 0, count)
	for i := 0; i < int(count); i++ {
		var ap model.ApproachArea
		field := fmt.Sprintf("approach_areas[%d]", i)
		if ap.Here, err = r.c.U32(); err != nil {
			return nil, within(err, "", -1, field+".this_area_id")
		}
		if ap.Prev, err = r.c.U32(); err != nil {
			return nil, within(err, "", -1, field+".prev_area_id")
		}
		if ap.PrevToHere, err = r.c.U8(); err != nil {
			return nil, within(err, "", -1, field+".prev_area_to_here_how_type")
		}
		if ap.Next, err = r.c.U32(); err != nil {
			return nil, within(err, "", -1, field+".next_area_id")
		}
		if ap.HereToNext, err = r.c.U8(); err != nil {
			return nil, within(err, "", -1, field+".here_to_next_area_how_type")
		}
		approaches = append(approaches, ap)
	}
	return approaches, nil
}

func (r *Reader) readEncounterSpots() ([]model.EncounterSpot, error) {
	count, err := r.c.U32()
	if err != nil {
		return nil, within(err, "", -1, "encounter_spots")
	}
	spots := make([]model.EncounterSpot, 0, capped(count))
	for i := uint32(0); i < count; i++ {
		var e model.EncounterSpot
		field := fmt.Sprintf("encounter_spots[%d]", i)
		if e.From, err = r.c.U32(); err != nil {
			return nil, within(err, "", -1, field+".from_area_id")
		}
		if e.FromDir, err = r.c.U8(); err != nil {
			return nil, within(err, "", -1, field+".from_dir")
		}
		if e.To, err = r.c.U32(); err != nil {
			return nil, within(err, "", -1, field+".to_area_id")
		}
		if e.ToDir, err = r.c.U8(); err != nil {
			return nil, within(err, "", -1, field+".to_dir")
		}
		n, err := r.c.U8()
		if err != nil {
			return nil, within(err, "", -1, field+".spots_along_this_path")
		}
		e.Path = make([]model.PathSpot, 0, n)
		for j := 0; j < int(n); j++ {
			var p model.PathSpot
			if p.ID, err = r.c.U32(); err != nil {
				return nil, within(err, "", -1, fmt.Sprintf("%s.spots_along_this_path[%d].id", field, j))
			}
			if p.T, err = r.c.U8(); err != nil {
				return nil, within(err, "", -1, fmt.Sprintf("%s.spots_along_this_path[%d].t", field, j))
			}
			e.Path = append(e.Path, p)
		}
		spots = append(spots, e)
	}
	return spots, nil
}

// ReadLadders reads the ladder list that follows the areas.
func (r *Reader) ReadLadders() ([]model.Ladder, error) {
	count, err := r.c.U32()
	if err != nil {
		return nil, within(err, "ladders", -1, "count")
	}
	r.log.Debug("reading ladders",
		zap.Uint32("count", count),
		zap.Int64("offset", r.c.Offset()))

	ladders := make([]model.Ladder, 0, capped(count))
	for i := uint32(0); i < count; i++ {
		l, field, err := r.readLadder()
		if err != nil {
			return nil, within(err, "ladders", int(i), field)
		}
		ladders = append(ladders, l)
	}
	return ladders, nil
}

// readLadder returns the name of the field that failed alongside the error.
func (r *Reader) readLadder() (model.Ladder, string, error) {
	var (
		l   model.Ladder
		err error
	)
	if l.ID, err = r.c.U32(); err != nil {
		return l, "id", err
	}
	if l.Width, err = r.c.F32(); err != nil {
		return l, "width", err
	}
	if l.Top, err = r.readVector(); err != nil {
		return l, "top_endpoint", err
	}
	if l.Bottom, err = r.readVector(); err != nil {
		return l, "bottom_endpoint", err
	}
	if l.Length, err = r.c.F32(); err != nil {
		return l, "length", err
	}
	if l.Dir, err = r.c.U32(); err != nil {
		return l, "dir", err
	}
	if l.TopForward, err = r.c.U32(); err != nil {
		return l, "id_of_top_forward_area", err
	}
	if l.TopLeft, err = r.c.U32(); err != nil {
		return l, "id_of_top_left_area", err
	}
	if l.TopBehind, err = r.c.U32(); err != nil {
		return l, "id_of_top_behind_area", err
	}
	if l.BottomArea, err = r.c.U32(); err != nil {
		return l, "id_of_bottom_area", err
	}
	return l, "", nil
}

func capped(n uint32) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return int(n)
}
