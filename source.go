package agdb

import "github.com/scigolib/agdb/internal/core"

// SourceInfo is a source record of an open database. Its layout is
// still largely unresolved; the record is exposed verbatim.
type SourceInfo struct {
	rec *core.SourceInformation
}

// Path returns the source path as a UTF-8 string, empty when the
// record carries none.
func (s *SourceInfo) Path() (string, error) {
	return decodeUTF16String(s.rec.Path)
}

// PathUTF16 returns the path as host-order UTF-16 code units.
func (s *SourceInfo) PathUTF16() []uint16 {
	return decodeUTF16Units(s.rec.Path)
}

// RawPath returns the path exactly as stored, or nil when the record
// has none. Callers must not modify the returned slice.
func (s *SourceInfo) RawPath() []byte {
	return s.rec.Path
}

// PathFlags returns the undocumented low bits of the on-disk path
// length field.
func (s *SourceInfo) PathFlags() uint8 {
	return s.rec.PathFlags
}

// EntryData returns the fixed record entry verbatim. Callers must not
// modify the returned slice.
func (s *SourceInfo) EntryData() []byte {
	return s.rec.EntryData
}
