package core

import (
	"fmt"
	"io"

	"github.com/scigolib/agdb/internal/utils"
)

// DatabaseParametersSize is the size of the secondary parameter block
// inside the uncompressed logical stream.
const DatabaseParametersSize = 32

// DatabaseParameters is the secondary parameter block located at the
// logical offset declared by the file header's header size. It carries
// the per-record entry sizes that drive layout dispatch.
//
//	Offset  0: volume information entry size (4 bytes)
//	Offset  4: file information entry size (4 bytes)
//	Offset  8: source information entry size (4 bytes)
//	Offset 12: executable information entry size (4 bytes)
//	Offset 16: file information sub entry type 1 size (4 bytes)
//	Offset 20: file information sub entry type 2 size (4 bytes)
//	Offset 24: number of sources (4 bytes)
//	Offset 28: unknown1 (4 bytes)
type DatabaseParameters struct {
	VolumeInformationEntrySize       uint32
	FileInformationEntrySize         uint32
	SourceInformationEntrySize       uint32
	ExecutableInformationEntrySize   uint32
	FileInformationSubEntryType1Size uint32
	FileInformationSubEntryType2Size uint32
	NumberOfSources                  uint32
	Unknown1                         uint32
}

// ReadDatabaseParameters reads the parameter block from the logical
// stream at the header-declared offset.
func ReadDatabaseParameters(r io.ReadSeeker, headerSize uint32) (*DatabaseParameters, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil stream", ErrInvalidArgument)
	}

	if _, err := r.Seek(int64(headerSize), io.SeekStart); err != nil {
		return nil, utils.WrapError("database parameters seek failed", err)
	}

	buf := utils.GetBuffer(DatabaseParametersSize)
	defer utils.ReleaseBuffer(buf)

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: database parameters: %v", ErrTruncatedRecord, err)
	}

	p := &DatabaseParameters{}
	for i, field := range []*uint32{
		&p.VolumeInformationEntrySize,
		&p.FileInformationEntrySize,
		&p.SourceInformationEntrySize,
		&p.ExecutableInformationEntrySize,
		&p.FileInformationSubEntryType1Size,
		&p.FileInformationSubEntryType2Size,
		&p.NumberOfSources,
		&p.Unknown1,
	} {
		*field = uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
	}

	return p, nil
}
