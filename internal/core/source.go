package core

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/scigolib/agdb/internal/stream"
)

// SourceInformation is one source record of the database. Beyond the
// path length in the first four bytes the entry is unresolved and
// retained verbatim.
type SourceInformation struct {
	PathCharacters uint32
	PathFlags      uint8
	Path           []byte // raw UTF-16LE, includes the trailing NUL pair

	EntryData []byte // the fixed entry, verbatim
}

// ReadSourceInformation reads the source record at the given logical
// offset and returns the record and the total bytes consumed.
func ReadSourceInformation(r *stream.Reader, ctx *IOContext, offset int64, index uint32) (*SourceInformation, int64, error) {
	if r == nil || ctx == nil {
		return nil, 0, fmt.Errorf("%w: nil stream or IO context", ErrInvalidArgument)
	}
	if ctx.SourceInformationEntrySize < 4 {
		return nil, 0, fmt.Errorf("%w: source information entry size %d",
			ErrUnsupportedFormat, ctx.SourceInformationEntrySize)
	}

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("%w: source %d at offset %d: %v", ErrCorruptRecord, index, offset, err)
	}

	data, err := readEntry(r, ctx.SourceInformationEntrySize, "source", index)
	if err != nil {
		return nil, 0, err
	}

	info := &SourceInformation{EntryData: data}
	info.PathCharacters, info.PathFlags = DecodePathCharacters(binary.LittleEndian.Uint32(data[0:4]))

	consumed := int64(ctx.SourceInformationEntrySize)

	path, n, err := readPath(r, ctx, info.PathCharacters, offset+consumed, "source", index)
	if err != nil {
		return nil, 0, err
	}
	info.Path = path
	consumed += n

	return info, consumed, nil
}
