// Package navconv decodes Source engine navigation mesh (.nav) files.
//
// This package can be used as a library to parse NAV files, check them
// against the map geometry they were built for, and convert them to
// KeyValues text or back to binary.
//
// Example usage:
//
//	nav, err := navconv.ParseFiles("nt_rise_ctg",
//	    "maps/nt_rise_ctg.bsp", "maps/nt_rise_ctg.nav", navconv.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := os.Create("nt_rise_ctg.kv")
//	defer out.Close()
//	navconv.WriteKeyValues(out, nav)
package navconv

import (
	"fmt"
	"io"
	"os"

	"github.com/dyuri/navconv/internal/binary"
	"github.com/dyuri/navconv/internal/export"
	"github.com/dyuri/navconv/internal/model"
	"github.com/dyuri/navconv/internal/navindex"
	"github.com/dyuri/navconv/internal/text"
	"go.uber.org/zap"
)

// Options configures a decode. See binary.Options.
type Options = binary.Options

// DecodeError carries the section, record, field and offset of a failed
// decode. Match its kind with errors.Is against the Err* values below.
type DecodeError = binary.DecodeError

// Error kinds
var (
	ErrBadMagicNumber       = binary.ErrBadMagicNumber
	ErrUnsupportedVersion   = binary.ErrUnsupportedVersion
	ErrGeometrySizeMismatch = binary.ErrGeometrySizeMismatch
	ErrUnexpectedEndOfInput = binary.ErrUnexpectedEndOfInput
	ErrMissingInputFile     = binary.ErrMissingInputFile
)

// ParseFiles decodes the nav file at navPath, checking its header against
// the size of the geometry file at geometryPath.
//
// Both files must exist. With opts.SkipGeometryCheck set, geometryPath
// may be empty. zstd and LZ4 compressed nav files are decompressed
// transparently.
func ParseFiles(mapName, geometryPath, navPath string, opts Options) (*model.NavFile, error) {
	opts.MapName = mapName
	opts.NavPath = navPath
	opts.GeometryPath = geometryPath

	if geometryPath != "" || !opts.SkipGeometryCheck {
		info, err := os.Stat(geometryPath)
		if err != nil {
			return nil, missing(geometryPath, err)
		}
		if info.IsDir() {
			return nil, missing(geometryPath, fmt.Errorf("is a directory"))
		}
		opts.GeometrySize = info.Size()
	}

	info, err := os.Stat(navPath)
	if err != nil {
		return nil, missing(navPath, err)
	}
	if info.IsDir() {
		return nil, missing(navPath, fmt.Errorf("is a directory"))
	}

	f, err := os.Open(navPath)
	if err != nil {
		return nil, missing(navPath, err)
	}
	defer f.Close()

	r, c, err := export.OpenReader(f)
	if err != nil {
		return nil, fmt.Errorf("open nav file: %w", err)
	}
	defer r.Close()

	if c != export.CompressionNone && opts.Logger != nil {
		opts.Logger.Debug("decompressing nav input",
			zap.String("path", navPath),
			zap.Stringer("compression", c))
	}

	return ParseNav(r, opts)
}

// ParseNav decodes a NAV stream. opts.GeometrySize is compared with the
// header's declared geometry size unless opts.SkipGeometryCheck is set.
//
// On error no document is returned.
func ParseNav(r io.Reader, opts Options) (*model.NavFile, error) {
	reader := binary.NewReader(r, opts)
	return reader.Parse()
}

// WriteKeyValues writes a document as Valve KeyValues text, decoding
// place names as Windows-1252.
//
// Example:
//
//	out, _ := os.Create("map.kv")
//	defer out.Close()
//	err := WriteKeyValues(out, nav)
func WriteKeyValues(w io.Writer, nav *model.NavFile) error {
	writer, err := text.NewWriter(w, 1252)
	if err != nil {
		return err
	}
	return writer.Write(nav)
}

// WriteBinaryNav encodes a document in the binary layout of its header
// version.
func WriteBinaryNav(w io.Writer, nav *model.NavFile) error {
	writer := binary.NewWriter(w)
	return writer.Write(nav)
}

// ValidationError represents a validation issue found in a NAV document
type ValidationError struct {
	Field   string // Field name or location
	Message string // Error description
	Level   string // "error" or "warning"
}

// Validate checks the ID references of a decoded document.
//
// Returns a list of warnings. An empty list means every reference
// resolves. Decoding itself never checks references, so a document that
// parsed cleanly can still produce warnings here.
func Validate(nav *model.NavFile) []ValidationError {
	var issues []ValidationError
	ix := navindex.Build(nav)

	for _, id := range ix.Duplicates() {
		issues = append(issues, ValidationError{
			Field:   fmt.Sprintf("area %d", id),
			Message: "area ID is used more than once",
			Level:   "warning",
		})
	}

	for _, a := range ix.PlacesOutOfRange() {
		issues = append(issues, ValidationError{
			Field:   fmt.Sprintf("area %d place_dictionary_entry", a.ID),
			Message: fmt.Sprintf("place entry %d is past the %d places in the table", a.Place, len(nav.Places)),
			Level:   "warning",
		})
	}

	for _, ref := range ix.Dangling() {
		issues = append(issues, ValidationError{
			Field:   ref.String(),
			Message: fmt.Sprintf("%s target %d does not exist", ref.Kind, ref.Target),
			Level:   "warning",
		})
	}

	return issues
}

func missing(path string, err error) error {
	return &DecodeError{Kind: ErrMissingInputFile, Index: -1, Path: path, Err: err}
}
