package core

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/scigolib/agdb/internal/stream"
)

// VolumeInformation is one volume record of the database.
//
//	Offset  0: device path number of characters (4 bytes)
//	Offset  4: unknown1 (4 bytes)
//	Offset  8: creation time (8 bytes, FILETIME)
//	Offset 16: serial number (4 bytes)
//	Offset 20: unknown2 (4 bytes)
//	Offset 24: unresolved fields, retained in EntryData
type VolumeInformation struct {
	DevicePathCharacters uint32
	PathFlags            uint8
	DevicePath           []byte // raw UTF-16LE, includes the trailing NUL pair

	CreationTime uint64 // FILETIME
	SerialNumber uint32

	EntryData []byte // the fixed entry, verbatim
}

// volumeInfoFixedSize covers the decoded fields above; smaller entries
// are rejected.
const volumeInfoFixedSize = 24

// ReadVolumeInformation reads the volume record at the given logical
// offset and returns the record and the total bytes consumed.
func ReadVolumeInformation(r *stream.Reader, ctx *IOContext, offset int64, index uint32) (*VolumeInformation, int64, error) {
	if r == nil || ctx == nil {
		return nil, 0, fmt.Errorf("%w: nil stream or IO context", ErrInvalidArgument)
	}
	if ctx.VolumeInformationEntrySize < volumeInfoFixedSize {
		return nil, 0, fmt.Errorf("%w: volume information entry size %d",
			ErrUnsupportedFormat, ctx.VolumeInformationEntrySize)
	}

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("%w: volume %d at offset %d: %v", ErrCorruptRecord, index, offset, err)
	}

	data, err := readEntry(r, ctx.VolumeInformationEntrySize, "volume", index)
	if err != nil {
		return nil, 0, err
	}

	info := &VolumeInformation{
		CreationTime: binary.LittleEndian.Uint64(data[8:16]),
		SerialNumber: binary.LittleEndian.Uint32(data[16:20]),
		EntryData:    data,
	}
	info.DevicePathCharacters, info.PathFlags = DecodePathCharacters(binary.LittleEndian.Uint32(data[0:4]))

	consumed := int64(ctx.VolumeInformationEntrySize)

	path, n, err := readPath(r, ctx, info.DevicePathCharacters, offset+consumed, "volume", index)
	if err != nil {
		return nil, 0, err
	}
	info.DevicePath = path
	consumed += n

	return info, consumed, nil
}
