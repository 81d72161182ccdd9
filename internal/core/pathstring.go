package core

import (
	"fmt"
	"io"

	"github.com/scigolib/agdb/internal/stream"
	"github.com/scigolib/agdb/internal/utils"
)

// On-disk path lengths store the UTF-16 character count shifted left by
// two; the low two bits carry flags whose meaning is undocumented. They
// are preserved on the record and never assumed zero.

// DecodePathCharacters splits an on-disk path length value into the
// character count and the low flag bits.
func DecodePathCharacters(onDisk uint32) (chars uint32, flags uint8) {
	return onDisk >> 2, uint8(onDisk & 0x3)
}

// PathByteSize returns the number of stream bytes occupied by a path of
// the given character count: two bytes per UTF-16 code unit plus the
// trailing NUL pair. A zero character count occupies no bytes at all.
func PathByteSize(chars uint32) int64 {
	if chars == 0 {
		return 0
	}
	return int64(chars)*2 + 2
}

// readPath reads the variable-length UTF-16LE path that follows a fixed
// record entry, then reads and discards the padding that restores the
// stream to an alignment boundary. pathOffset is the absolute logical
// offset at which the path begins; the reader cursor must already be
// positioned there. Returns the owned path bytes and the total bytes
// consumed (path plus padding).
func readPath(r *stream.Reader, ctx *IOContext, chars uint32, pathOffset int64, what string, index uint32) ([]byte, int64, error) {
	pathSize := PathByteSize(chars)
	if pathSize == 0 {
		return nil, 0, nil
	}
	if err := utils.ValidateBufferSize(uint64(pathSize), utils.MaxPathSize, what+" path"); err != nil {
		return nil, 0, fmt.Errorf("%w: %s %d: %v", ErrCorruptRecord, what, index, err)
	}

	path := make([]byte, pathSize)
	if _, err := io.ReadFull(r, path); err != nil {
		return nil, 0, fmt.Errorf("%w: %s %d path: %v", ErrTruncatedRecord, what, index, err)
	}
	consumed := pathSize

	if padding := ctx.AlignmentPadding(pathOffset + pathSize); padding > 0 {
		pad := utils.GetBuffer(int(padding))
		defer utils.ReleaseBuffer(pad)

		if _, err := io.ReadFull(r, pad); err != nil {
			return nil, 0, fmt.Errorf("%w: %s %d alignment padding: %v", ErrTruncatedRecord, what, index, err)
		}
		consumed += padding
	}

	return path, consumed, nil
}

// readEntry reads the fixed-size portion of a record into an owned
// buffer.
func readEntry(r *stream.Reader, size uint32, what string, index uint32) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %s %d entry: %v", ErrTruncatedRecord, what, index, err)
	}
	return data, nil
}
