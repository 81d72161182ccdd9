package agdb

import (
	"fmt"

	"github.com/scigolib/agdb/internal/core"
)

// FileInfo is a file record of an open database.
type FileInfo struct {
	rec *core.FileInformation
}

// Path returns the file path as a UTF-8 string.
func (fi *FileInfo) Path() (string, error) {
	return decodeUTF16String(fi.rec.Path)
}

// PathUTF16 returns the path as host-order UTF-16 code units.
func (fi *FileInfo) PathUTF16() []uint16 {
	return decodeUTF16Units(fi.rec.Path)
}

// RawPath returns the path exactly as stored: UTF-16LE bytes including
// the trailing NUL pair, or nil when the record has no path. Callers
// must not modify the returned slice.
func (fi *FileInfo) RawPath() []byte {
	return fi.rec.Path
}

// PathFlags returns the undocumented low bits of the on-disk path
// length field.
func (fi *FileInfo) PathFlags() uint8 {
	return fi.rec.PathFlags
}

// NameHash returns the file name hash. In 32-bit format variants only
// the low 32 bits are populated.
func (fi *FileInfo) NameHash() uint64 {
	return fi.rec.NameHash
}

// Flags returns the record flags.
func (fi *FileInfo) Flags() uint32 {
	return fi.rec.Flags
}

// SubEntryCount returns the number of sub-entries attached to the
// record.
func (fi *FileInfo) SubEntryCount() int {
	return len(fi.rec.SubEntries)
}

// SubEntry returns the sub-entry at index i as an opaque block.
// Callers must not modify the returned slice.
func (fi *FileInfo) SubEntry(i int) ([]byte, error) {
	if i < 0 || i >= len(fi.rec.SubEntries) {
		return nil, fmt.Errorf("%w: sub-entry %d of %d", ErrOutOfRange, i, len(fi.rec.SubEntries))
	}
	return fi.rec.SubEntries[i], nil
}

// EntryData returns the fixed record entry verbatim, including fields
// whose meaning is still unknown. Callers must not modify the returned
// slice.
func (fi *FileInfo) EntryData() []byte {
	return fi.rec.EntryData
}
