package agdb

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/scigolib/agdb/internal/utils"
)

// Paths are stored as UTF-16 little-endian byte sequences with a
// trailing NUL pair and are not transcoded during parse. Conversion to
// host strings happens on demand here.

// decodeUTF16String transcodes raw UTF-16LE bytes to a UTF-8 string,
// dropping the trailing NUL.
func decodeUTF16String(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", utils.WrapError("path transcoding failed", err)
	}

	for len(decoded) > 0 && decoded[len(decoded)-1] == 0 {
		decoded = decoded[:len(decoded)-1]
	}
	return string(decoded), nil
}

// decodeUTF16Units returns the path as host-order UTF-16 code units,
// dropping the trailing NUL.
func decodeUTF16Units(raw []byte) []uint16 {
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		units = append(units, binary.LittleEndian.Uint16(raw[i:i+2]))
	}
	for len(units) > 0 && units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return units
}
