package core

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/scigolib/agdb/internal/stream"
	"github.com/scigolib/agdb/internal/utils"
)

// FileInformation is one file record of the database. The fixed entry
// is retained verbatim in EntryData alongside the decoded fields, so
// unresolved regions stay available for analysis.
type FileInformation struct {
	NameHash        uint64
	NumberOfEntries uint32
	Flags           uint32

	PathCharacters uint32
	PathFlags      uint8
	Path           []byte // raw UTF-16LE, includes the trailing NUL pair

	EntryData  []byte   // the fixed entry, verbatim
	SubEntries [][]byte // opaque sub-entry blocks
}

// 32-bit file information layout (36-byte base; the 52-, 56- and
// 72-byte dialects append fields retained in EntryData):
//
//	Offset  0: unknown1 (4 bytes)
//	Offset  4: name hash (4 bytes)
//	Offset  8: number of entries (4 bytes)
//	Offset 12: flags (4 bytes)
//	Offset 16: unknown4 (8 bytes)
//	Offset 24: unknown5 (4 bytes)
//	Offset 28: path number of characters (4 bytes)
//	Offset 32: unknown7 (4 bytes)
//
// 64-bit layout (64-byte base; 88- and 112-byte dialects append):
//
//	Offset  0: unknown1 (4 bytes)
//	Offset  4: unknown2 (4 bytes)
//	Offset  8: name hash (8 bytes)
//	Offset 16: number of entries (4 bytes)
//	Offset 20: flags (4 bytes)
//	Offset 24: unknown4 (8 bytes)
//	Offset 32: unknown5 (8 bytes)
//	Offset 40: unknown6 (8 bytes)
//	Offset 48: path number of characters (4 bytes)
//	Offset 52: unknown7 (4 bytes)
//	Offset 56: unknown8 (8 bytes)
const (
	fileInfoBase32 = 36
	fileInfoBase64 = 64
)

// ReadFileInformation reads the file record at the given logical
// offset. Returns the record and the total number of bytes consumed:
// the fixed entry, the path, the alignment padding and the sub-entries.
func ReadFileInformation(r *stream.Reader, ctx *IOContext, offset int64, index uint32) (*FileInformation, int64, error) {
	if r == nil || ctx == nil {
		return nil, 0, fmt.Errorf("%w: nil stream or IO context", ErrInvalidArgument)
	}

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("%w: file %d at offset %d: %v", ErrCorruptRecord, index, offset, err)
	}

	entrySize := ctx.FileInformationEntrySize
	data, err := readEntry(r, entrySize, "file", index)
	if err != nil {
		return nil, 0, err
	}

	info := &FileInformation{EntryData: data}

	var pathValue uint32
	switch ctx.Mode {
	case Mode64:
		if len(data) < fileInfoBase64 {
			return nil, 0, fmt.Errorf("%w: file %d entry shorter than 64-bit layout", ErrCorruptRecord, index)
		}
		info.NameHash = binary.LittleEndian.Uint64(data[8:16])
		info.NumberOfEntries = binary.LittleEndian.Uint32(data[16:20])
		info.Flags = binary.LittleEndian.Uint32(data[20:24])
		pathValue = binary.LittleEndian.Uint32(data[48:52])
	default:
		if len(data) < fileInfoBase32 {
			return nil, 0, fmt.Errorf("%w: file %d entry shorter than 32-bit layout", ErrCorruptRecord, index)
		}
		info.NameHash = uint64(binary.LittleEndian.Uint32(data[4:8]))
		info.NumberOfEntries = binary.LittleEndian.Uint32(data[8:12])
		info.Flags = binary.LittleEndian.Uint32(data[12:16])
		pathValue = binary.LittleEndian.Uint32(data[28:32])
	}
	info.PathCharacters, info.PathFlags = DecodePathCharacters(pathValue)

	consumed := int64(entrySize)

	path, n, err := readPath(r, ctx, info.PathCharacters, offset+consumed, "file", index)
	if err != nil {
		return nil, 0, err
	}
	info.Path = path
	consumed += n

	if info.NumberOfEntries > 0 {
		subSize := ctx.FileInformationSubEntryType1Size

		total, err := utils.SafeMultiply(uint64(info.NumberOfEntries), uint64(subSize))
		if err != nil || int64(total) > r.Size()-(offset+consumed) {
			return nil, 0, fmt.Errorf("%w: file %d declares %d sub-entries beyond stream end",
				ErrCorruptRecord, index, info.NumberOfEntries)
		}

		info.SubEntries = make([][]byte, 0, info.NumberOfEntries)
		for i := uint32(0); i < info.NumberOfEntries; i++ {
			sub := make([]byte, subSize)
			if _, err := io.ReadFull(r, sub); err != nil {
				return nil, 0, fmt.Errorf("%w: file %d sub-entry %d: %v", ErrTruncatedRecord, index, i, err)
			}
			info.SubEntries = append(info.SubEntries, sub)
			consumed += int64(subSize)
		}
	}

	return info, consumed, nil
}
