// Package core implements the SuperFetch database format: the file
// header, the database parameter block and the typed record readers.
// Entry layouts are version dependent and dispatched by the sizes
// discovered in the parameter block.
package core

import "fmt"

// PointerMode selects between the 32-bit and 64-bit record layouts.
type PointerMode uint8

// Record layout modes.
const (
	Mode32 PointerMode = 32
	Mode64 PointerMode = 64
)

// Accepted file information entry sizes per mode. Any other size is an
// unsupported format.
var (
	fileEntrySizes32 = map[uint32]bool{36: true, 52: true, 56: true, 72: true}
	fileEntrySizes64 = map[uint32]bool{64: true, 88: true, 112: true}

	subEntryType1Sizes = map[uint32]bool{16: true, 24: true}
	subEntryType2Sizes = map[uint32]bool{16: true, 20: true, 24: true, 32: true}
)

// IOContext carries the format parameters discovered from the header
// and the parameter block. Every record reader dispatches on it.
type IOContext struct {
	DataSize     uint32
	HeaderSize   uint32
	DatabaseType uint32

	VolumeInformationEntrySize       uint32
	FileInformationEntrySize         uint32
	SourceInformationEntrySize       uint32
	ExecutableInformationEntrySize   uint32
	FileInformationSubEntryType1Size uint32
	FileInformationSubEntryType2Size uint32

	Mode          PointerMode
	AlignmentUnit uint32

	NumberOfVolumes     uint32
	NumberOfFiles       uint32
	NumberOfSources     uint32
	NumberOfExecutables uint32
}

// NewIOContext classifies the format from the header and parameter
// block and derives pointer mode and alignment unit.
func NewIOContext(header *FileHeader, params *DatabaseParameters) (*IOContext, error) {
	if header == nil || params == nil {
		return nil, fmt.Errorf("%w: nil header or parameters", ErrInvalidArgument)
	}

	ctx := &IOContext{
		DataSize:     header.DataSize,
		HeaderSize:   header.HeaderSize,
		DatabaseType: header.DatabaseType,

		VolumeInformationEntrySize:       params.VolumeInformationEntrySize,
		FileInformationEntrySize:         params.FileInformationEntrySize,
		SourceInformationEntrySize:       params.SourceInformationEntrySize,
		ExecutableInformationEntrySize:   params.ExecutableInformationEntrySize,
		FileInformationSubEntryType1Size: params.FileInformationSubEntryType1Size,
		FileInformationSubEntryType2Size: params.FileInformationSubEntryType2Size,

		NumberOfVolumes:     header.NumberOfVolumes,
		NumberOfFiles:       header.NumberOfFiles,
		NumberOfSources:     params.NumberOfSources,
		NumberOfExecutables: header.NumberOfExecutables,
	}

	switch {
	case fileEntrySizes32[params.FileInformationEntrySize]:
		ctx.Mode = Mode32
		ctx.AlignmentUnit = 4
	case fileEntrySizes64[params.FileInformationEntrySize]:
		ctx.Mode = Mode64
		ctx.AlignmentUnit = 8
	default:
		return nil, fmt.Errorf("%w: file information entry size %d",
			ErrUnsupportedFormat, params.FileInformationEntrySize)
	}

	if !subEntryType1Sizes[params.FileInformationSubEntryType1Size] {
		return nil, fmt.Errorf("%w: file information sub entry type 1 size %d",
			ErrUnsupportedFormat, params.FileInformationSubEntryType1Size)
	}
	if !subEntryType2Sizes[params.FileInformationSubEntryType2Size] {
		return nil, fmt.Errorf("%w: file information sub entry type 2 size %d",
			ErrUnsupportedFormat, params.FileInformationSubEntryType2Size)
	}

	for _, e := range []struct {
		name string
		size uint32
	}{
		{"volume information entry size", params.VolumeInformationEntrySize},
		{"source information entry size", params.SourceInformationEntrySize},
		{"executable information entry size", params.ExecutableInformationEntrySize},
	} {
		if err := ctx.checkEntrySize(e.name, e.size); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

// checkEntrySize validates a record entry size against the derived
// alignment unit.
func (c *IOContext) checkEntrySize(name string, size uint32) error {
	const maxEntrySize = 64 * 1024

	if size == 0 || size > maxEntrySize {
		return fmt.Errorf("%w: %s %d", ErrUnsupportedFormat, name, size)
	}
	if size%c.AlignmentUnit != 0 {
		return fmt.Errorf("%w: %s %d not a multiple of alignment unit %d",
			ErrUnsupportedFormat, name, size, c.AlignmentUnit)
	}
	return nil
}

// AlignmentPadding returns the number of padding bytes needed to bring
// a logical offset to the next alignment boundary.
func (c *IOContext) AlignmentPadding(offset int64) int64 {
	align := int64(c.AlignmentUnit)
	if rem := offset % align; rem != 0 {
		return align - rem
	}
	return 0
}
