package text

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// UTF8 is the code page number for UTF-8 text.
const UTF8 = 65001

// Decoder returns a decoder turning bytes in the given Windows code page
// into UTF-8. UTF-8 input needs no decoder and yields nil.
func Decoder(codepage int) (*encoding.Decoder, error) {
	switch codepage {
	case 1252:
		return charmap.Windows1252.NewDecoder(), nil
	case 1250:
		return charmap.Windows1250.NewDecoder(), nil
	case 1251:
		return charmap.Windows1251.NewDecoder(), nil
	case 1254:
		return charmap.Windows1254.NewDecoder(), nil
	case 437:
		return charmap.CodePage437.NewDecoder(), nil
	case UTF8, 0:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported code page %d", codepage)
	}
}

// CodePageName returns a human readable name for a code page number.
func CodePageName(cp int) string {
	switch cp {
	case 1252:
		return "Windows-1252 (Western European)"
	case 1250:
		return "Windows-1250 (Central European)"
	case 1251:
		return "Windows-1251 (Cyrillic)"
	case 1254:
		return "Windows-1254 (Turkish)"
	case 437:
		return "CP437 (IBM PC)"
	case UTF8:
		return "UTF-8"
	default:
		return "Unknown"
	}
}

// DecodeName converts a raw place name to a string. Bytes the decoder
// rejects are passed through unchanged.
func DecodeName(dec *encoding.Decoder, name []byte) string {
	if dec == nil {
		return string(name)
	}
	s, err := dec.Bytes(name)
	if err != nil {
		return string(name)
	}
	return string(s)
}
