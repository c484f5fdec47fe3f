package binary

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure returned by the reader matches exactly one of
// these with errors.Is. None of them is recoverable: once the cursor is
// off, every following field is garbage.
var (
	ErrBadMagicNumber       = errors.New("bad magic number")
	ErrUnsupportedVersion   = errors.New("unsupported version")
	ErrGeometrySizeMismatch = errors.New("geometry size mismatch")
	ErrUnexpectedEndOfInput = errors.New("unexpected end of input")
	ErrMissingInputFile     = errors.New("missing input file")
)

// DecodeError carries the context of a failed decode.
type DecodeError struct {
	Kind error // one of the Err* kinds above

	Section string // "header", "places", "areas", "ladders"
	Index   int    // record index within Section, -1 if not inside a record
	Field   string // sub-record path, e.g. "hiding_spots[1].pos"
	Offset  int64  // byte offset where the failing field starts

	Path             string // file the error refers to, if known
	Expected, Actual int64  // geometry sizes, for ErrGeometrySizeMismatch

	Err error // underlying cause, may be nil
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	switch {
	case errors.Is(e.Kind, ErrGeometrySizeMismatch):
		if e.Path == "" {
			fmt.Fprintf(&b, ": header expects %d bytes, geometry is %d bytes", e.Expected, e.Actual)
		} else {
			fmt.Fprintf(&b, ": header expects %d bytes, %q is %d bytes", e.Expected, e.Path, e.Actual)
		}
		return b.String()
	case errors.Is(e.Kind, ErrMissingInputFile):
		fmt.Fprintf(&b, ": %q", e.Path)
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
		return b.String()
	}

	if e.Section != "" {
		fmt.Fprintf(&b, " in %s", e.Section)
		if e.Index >= 0 {
			fmt.Fprintf(&b, "[%d]", e.Index)
		}
		if e.Field != "" {
			fmt.Fprintf(&b, ".%s", e.Field)
		}
	}
	fmt.Fprintf(&b, " at offset %d", e.Offset)
	if e.Path != "" {
		fmt.Fprintf(&b, " of %q", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// within tags err with the section and record it happened in. Inner tags
// win: a field set deeper in the call stack is never overwritten.
func within(err error, section string, index int, field string) error {
	var de *DecodeError
	if !errors.As(err, &de) {
		return err
	}
	if section != "" && de.Section == "" {
		de.Section = section
		de.Index = index
	}
	if field != "" {
		switch {
		case de.Field == "":
			de.Field = field
		case strings.HasPrefix(de.Field, "["):
			de.Field = field + de.Field
		default:
			de.Field = field + "." + de.Field
		}
	}
	return err
}
