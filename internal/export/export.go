// Package export serializes decoded NAV documents into the supported
// output formats, optionally compressed.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dyuri/navconv/internal/model"
	"github.com/dyuri/navconv/internal/text"
	"github.com/fxamacker/cbor/v2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Format identifies an output serialization.
type Format uint8

const (
	FormatKV Format = iota
	FormatJSON
	FormatYAML
	FormatCBOR
)

func (f Format) String() string {
	switch f {
	case FormatKV:
		return "kv"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

// Ext returns the output file extension, dot included.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat parses a format name. The empty string means kv.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "kv", "":
		return FormatKV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return 0, fmt.Errorf("unknown output format: %q", name)
	}
}

// Options selects how a document is written.
type Options struct {
	Format   Format
	Compress Compression
	CodePage int // code page of place names, 0 means 1252
}

// cborMode uses core deterministic encoding so the same document always
// produces the same bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("export: CBOR encoder initialization failed: " + err.Error())
	}
}

// Write serializes nav to w.
func Write(w io.Writer, nav *model.NavFile, opts Options) error {
	codepage := opts.CodePage
	if codepage == 0 {
		codepage = 1252
	}

	cw, err := NewCompressWriter(w, opts.Compress)
	if err != nil {
		return err
	}

	if err := encode(cw, nav, opts.Format, codepage); err != nil {
		return multierr.Append(fmt.Errorf("write %s: %w", opts.Format, err), cw.Close())
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("close %s stream: %w", opts.Compress, err)
	}
	return nil
}

func encode(w io.Writer, nav *model.NavFile, format Format, codepage int) error {
	if format == FormatKV {
		kw, err := text.NewWriter(w, codepage)
		if err != nil {
			return err
		}
		return kw.Write(nav)
	}

	doc, err := newDocument(nav, codepage)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(newJSONDocument(doc))
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return err
		}
		return encoder.Close()
	case FormatCBOR:
		return cborMode.NewEncoder(w).Encode(doc)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// document is the structured-output view of a NavFile: identical except
// that place names are decoded to text.
type document struct {
	Meta            model.Meta     `json:"meta" yaml:"meta"`
	Header          model.Header   `json:"header" yaml:"header"`
	Places          []place        `json:"places,omitempty" yaml:"places,omitempty"`
	HasUnnamedAreas *uint8         `json:"hasUnnamedAreas,omitempty" yaml:"has_unnamed_areas,omitempty"`
	Areas           []model.Area   `json:"areas" yaml:"areas"`
	Ladders         []model.Ladder `json:"ladders" yaml:"ladders"`
}

type place struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
}

func newDocument(nav *model.NavFile, codepage int) (*document, error) {
	dec, err := text.Decoder(codepage)
	if err != nil {
		return nil, err
	}

	doc := &document{
		Meta:            nav.Meta,
		Header:          nav.Header,
		HasUnnamedAreas: nav.HasUnnamedAreas,
		Areas:           nav.Areas,
		Ladders:         nav.Ladders,
	}
	if nav.Places != nil {
		doc.Places = make([]place, len(nav.Places))
		for i, p := range nav.Places {
			doc.Places[i] = place{Index: p.Index, Name: text.DecodeName(dec, p.Name)}
		}
	}
	return doc, nil
}
