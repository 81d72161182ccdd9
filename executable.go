package agdb

import "github.com/scigolib/agdb/internal/core"

// ExecutableInfo is an executable record of an open database.
type ExecutableInfo struct {
	rec *core.ExecutableInformation
}

// Name returns the executable name as a UTF-8 string.
func (e *ExecutableInfo) Name() (string, error) {
	return decodeUTF16String(e.rec.Name)
}

// NameUTF16 returns the name as host-order UTF-16 code units.
func (e *ExecutableInfo) NameUTF16() []uint16 {
	return decodeUTF16Units(e.rec.Name)
}

// RawName returns the name exactly as stored: UTF-16LE bytes including
// the trailing NUL pair, or nil when the record has none. Callers must
// not modify the returned slice.
func (e *ExecutableInfo) RawName() []byte {
	return e.rec.Name
}

// PathFlags returns the undocumented low bits of the on-disk name
// length field.
func (e *ExecutableInfo) PathFlags() uint8 {
	return e.rec.PathFlags
}

// NameHash returns the executable name hash. In 32-bit format variants
// only the low 32 bits are populated.
func (e *ExecutableInfo) NameHash() uint64 {
	return e.rec.NameHash
}

// EntryData returns the fixed record entry verbatim, including fields
// whose meaning is still unknown. Callers must not modify the returned
// slice.
func (e *ExecutableInfo) EntryData() []byte {
	return e.rec.EntryData
}
