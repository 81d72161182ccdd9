package core

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/scigolib/agdb/internal/stream"
)

// ExecutableInformation is one executable record of the database.
//
//	Offset  0: name number of characters (4 bytes)
//	Offset  4: unknown1 (4 bytes)
//	Offset  8: name hash (4 bytes in 32-bit mode, 8 bytes in 64-bit mode)
//	Remainder: unresolved fields, retained in EntryData
type ExecutableInformation struct {
	NameCharacters uint32
	PathFlags      uint8
	Name           []byte // raw UTF-16LE, includes the trailing NUL pair

	NameHash uint64

	EntryData []byte // the fixed entry, verbatim
}

// executableInfoFixedSize64 covers the widest decoded prefix.
const (
	executableInfoFixedSize32 = 12
	executableInfoFixedSize64 = 16
)

// ReadExecutableInformation reads the executable record at the given
// logical offset and returns the record and the total bytes consumed.
func ReadExecutableInformation(r *stream.Reader, ctx *IOContext, offset int64, index uint32) (*ExecutableInformation, int64, error) {
	if r == nil || ctx == nil {
		return nil, 0, fmt.Errorf("%w: nil stream or IO context", ErrInvalidArgument)
	}

	fixed := uint32(executableInfoFixedSize32)
	if ctx.Mode == Mode64 {
		fixed = executableInfoFixedSize64
	}
	if ctx.ExecutableInformationEntrySize < fixed {
		return nil, 0, fmt.Errorf("%w: executable information entry size %d",
			ErrUnsupportedFormat, ctx.ExecutableInformationEntrySize)
	}

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("%w: executable %d at offset %d: %v", ErrCorruptRecord, index, offset, err)
	}

	data, err := readEntry(r, ctx.ExecutableInformationEntrySize, "executable", index)
	if err != nil {
		return nil, 0, err
	}

	info := &ExecutableInformation{EntryData: data}
	info.NameCharacters, info.PathFlags = DecodePathCharacters(binary.LittleEndian.Uint32(data[0:4]))

	if ctx.Mode == Mode64 {
		info.NameHash = binary.LittleEndian.Uint64(data[8:16])
	} else {
		info.NameHash = uint64(binary.LittleEndian.Uint32(data[8:12]))
	}

	consumed := int64(ctx.ExecutableInformationEntrySize)

	name, n, err := readPath(r, ctx, info.NameCharacters, offset+consumed, "executable", index)
	if err != nil {
		return nil, 0, err
	}
	info.Name = name
	consumed += n

	return info, consumed, nil
}
