package pipeline

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingUTF8BOM     Encoding = "utf-8-bom"
	EncodingUTF16LE     Encoding = "utf-16le"
	EncodingUTF16BE     Encoding = "utf-16be"
	EncodingWindows1252 Encoding = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ToUTF8 strips a byte-order marker and transcodes to UTF-8. Content that is
// neither BOM-marked nor valid UTF-8 is read as Windows-1252.
func ToUTF8(content []byte) (string, Encoding, error) {
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		return string(content[len(bomUTF8):]), EncodingUTF8BOM, nil
	case bytes.HasPrefix(content, bomUTF16LE):
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(content)
		return string(out), EncodingUTF16LE, err
	case bytes.HasPrefix(content, bomUTF16BE):
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(content)
		return string(out), EncodingUTF16BE, err
	case utf8.Valid(content):
		return string(content), EncodingUTF8, nil
	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(content)
		return string(out), EncodingWindows1252, err
	}
}
