// Package reader implements the Dump Reader (spec §4.1): it decodes a
// dump file on disk into a text buffer, handling the UTF-16LE-with-BOM
// encoding some exporters (notably SQL Server's bcp/SSMS) emit.
package reader

import (
	"fmt"
	"os"
	"unicode/utf16"
	"unicode/utf8"
)

// IoError wraps a failure to read the dump file from disk.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string { return fmt.Sprintf("reading %s: %v", e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// EncodingError is returned when the buffer is neither valid UTF-8 nor
// UTF-16LE-with-BOM.
type EncodingError struct {
	Path string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: not valid UTF-8 and no UTF-16LE BOM present", e.Path)
}

var utf16leBOM = [2]byte{0xFF, 0xFE}

// Read loads path and decodes it to a string. If the first two bytes are
// FF FE the remainder is decoded as UTF-16 little-endian (BOM consumed);
// otherwise the bytes must already be valid UTF-8.
func Read(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &IoError{Path: path, Err: err}
	}
	return Decode(path, raw)
}

// Decode applies the same encoding rules as Read to an in-memory buffer,
// so callers that already have bytes (e.g. tests, or a caller streaming
// from somewhere other than a plain file) can reuse the detection logic.
func Decode(path string, raw []byte) (string, error) {
	if len(raw) >= 2 && raw[0] == utf16leBOM[0] && raw[1] == utf16leBOM[1] {
		return decodeUTF16LE(raw[2:]), nil
	}
	if !utf8.Valid(raw) {
		return "", &EncodingError{Path: path}
	}
	return string(raw), nil
}

func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return string(utf16.Decode(units))
}
