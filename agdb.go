// Package agdb provides a pure Go, read-only parser for Windows
// SuperFetch database files. It decodes the version-variant binary
// format into a typed object model: volumes, files, sources and
// executables, with the compressed payload exposed through a seekable
// logical stream.
package agdb

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/scigolib/agdb/internal/core"
	"github.com/scigolib/agdb/internal/stream"
	"github.com/scigolib/agdb/internal/utils"
)

// File represents an open SuperFetch database. It is immutable after a
// successful open; a failed open constructs nothing.
type File struct {
	src    io.ReaderAt
	closer io.Closer
	logger *zap.Logger

	header *core.FileHeader
	ioCtx  *core.IOContext
	reader *stream.Reader

	volumes     []*VolumeInfo
	files       []*FileInfo
	sources     []*SourceInfo
	executables []*ExecutableInfo
}

// Open opens a SuperFetch database file for reading and returns a File
// handle.
func Open(filename string, opts ...Option) (*File, error) {
	//nolint:gosec // G304: User-provided filename is intentional for a file parsing library
	f, err := os.Open(filename)
	if err != nil {
		return nil, utils.WrapError("file open failed", err)
	}

	file, err := OpenReader(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	file.closer = f
	return file, nil
}

// OpenReader parses a SuperFetch database from an arbitrary byte
// source. The source must remain valid for the lifetime of the File.
func OpenReader(r io.ReaderAt, opts ...Option) (*File, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}

	file := &File{
		src:    r,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(file)
	}

	if err := file.open(); err != nil {
		return nil, err
	}
	return file, nil
}

// open runs the fixed parse sequence: header, IO context, block
// stream, then volumes, files, sources and executables. Any failure
// abandons the partially populated File.
func (f *File) open() error {
	header, err := core.ReadFileHeader(f.src)
	if err != nil {
		return utils.WrapError("file header read failed", err)
	}
	f.header = header

	method, err := header.CompressionMethod()
	if err != nil {
		return err
	}

	f.logger.Debug("read file header",
		zap.String("compression", method.String()),
		zap.Uint32("data_size", header.DataSize),
		zap.Uint32("header_size", header.HeaderSize),
		zap.Uint32("database_type", header.DatabaseType),
		zap.Uint32("volumes", header.NumberOfVolumes),
		zap.Uint32("files", header.NumberOfFiles),
		zap.Uint32("executables", header.NumberOfExecutables))

	reader, err := stream.NewReader(f.src, method, core.FileHeaderSize, header.DataSize,
		stream.WithLogger(f.logger))
	if err != nil {
		return utils.WrapError("compressed stream setup failed", err)
	}
	f.reader = reader

	params, err := core.ReadDatabaseParameters(reader, header.HeaderSize)
	if err != nil {
		return utils.WrapError("database parameters read failed", err)
	}

	ioCtx, err := core.NewIOContext(header, params)
	if err != nil {
		return err
	}
	f.ioCtx = ioCtx

	f.logger.Debug("classified format",
		zap.Uint8("pointer_mode", uint8(ioCtx.Mode)),
		zap.Uint32("alignment_unit", ioCtx.AlignmentUnit),
		zap.Uint32("file_entry_size", ioCtx.FileInformationEntrySize),
		zap.Uint32("sources", ioCtx.NumberOfSources))

	offset := int64(header.HeaderSize) + core.DatabaseParametersSize
	offset += ioCtx.AlignmentPadding(offset)

	if offset, err = f.readVolumes(offset); err != nil {
		return err
	}
	if offset, err = f.readFiles(offset); err != nil {
		return err
	}
	if offset, err = f.readSources(offset); err != nil {
		return err
	}
	if _, err = f.readExecutables(offset); err != nil {
		return err
	}

	return nil
}

func (f *File) readVolumes(offset int64) (int64, error) {
	f.volumes = make([]*VolumeInfo, 0, f.ioCtx.NumberOfVolumes)
	for i := uint32(0); i < f.ioCtx.NumberOfVolumes; i++ {
		f.logger.Debug("reading volume information",
			zap.Uint32("index", i), zap.Int64("offset", offset))

		rec, n, err := core.ReadVolumeInformation(f.reader, f.ioCtx, offset, i)
		if err != nil {
			return 0, utils.WrapError("volume information read failed", err)
		}
		f.volumes = append(f.volumes, &VolumeInfo{rec: rec})
		offset += n
	}
	return offset, nil
}

func (f *File) readFiles(offset int64) (int64, error) {
	f.files = make([]*FileInfo, 0, f.ioCtx.NumberOfFiles)
	for i := uint32(0); i < f.ioCtx.NumberOfFiles; i++ {
		f.logger.Debug("reading file information",
			zap.Uint32("index", i), zap.Int64("offset", offset))

		rec, n, err := core.ReadFileInformation(f.reader, f.ioCtx, offset, i)
		if err != nil {
			return 0, utils.WrapError("file information read failed", err)
		}
		f.files = append(f.files, &FileInfo{rec: rec})
		offset += n
	}
	return offset, nil
}

func (f *File) readSources(offset int64) (int64, error) {
	f.sources = make([]*SourceInfo, 0, f.ioCtx.NumberOfSources)
	for i := uint32(0); i < f.ioCtx.NumberOfSources; i++ {
		f.logger.Debug("reading source information",
			zap.Uint32("index", i), zap.Int64("offset", offset))

		rec, n, err := core.ReadSourceInformation(f.reader, f.ioCtx, offset, i)
		if err != nil {
			return 0, utils.WrapError("source information read failed", err)
		}
		f.sources = append(f.sources, &SourceInfo{rec: rec})
		offset += n
	}
	return offset, nil
}

func (f *File) readExecutables(offset int64) (int64, error) {
	f.executables = make([]*ExecutableInfo, 0, f.ioCtx.NumberOfExecutables)
	for i := uint32(0); i < f.ioCtx.NumberOfExecutables; i++ {
		f.logger.Debug("reading executable information",
			zap.Uint32("index", i), zap.Int64("offset", offset))

		rec, n, err := core.ReadExecutableInformation(f.reader, f.ioCtx, offset, i)
		if err != nil {
			return 0, utils.WrapError("executable information read failed", err)
		}
		f.executables = append(f.executables, &ExecutableInfo{rec: rec})
		offset += n
	}
	return offset, nil
}

// Close releases the resources owned by the File. It is safe to call
// Close multiple times.
func (f *File) Close() error {
	if f.closer == nil {
		return nil // Nothing owned, or already closed.
	}
	err := f.closer.Close()
	f.closer = nil // Prevent double close.
	return err
}

// DatabaseType returns the database type tag from the file header.
func (f *File) DatabaseType() uint32 {
	return f.header.DatabaseType
}

// UncompressedDataSize returns the total size of the logical stream.
func (f *File) UncompressedDataSize() uint32 {
	return f.header.DataSize
}

// VolumeCount returns the number of volume records.
func (f *File) VolumeCount() int { return len(f.volumes) }

// FileCount returns the number of file records.
func (f *File) FileCount() int { return len(f.files) }

// SourceCount returns the number of source records.
func (f *File) SourceCount() int { return len(f.sources) }

// ExecutableCount returns the number of executable records.
func (f *File) ExecutableCount() int { return len(f.executables) }

// Volume returns the volume record at index i.
func (f *File) Volume(i int) (*VolumeInfo, error) {
	if i < 0 || i >= len(f.volumes) {
		return nil, fmt.Errorf("%w: volume %d of %d", ErrOutOfRange, i, len(f.volumes))
	}
	return f.volumes[i], nil
}

// FileEntry returns the file record at index i.
func (f *File) FileEntry(i int) (*FileInfo, error) {
	if i < 0 || i >= len(f.files) {
		return nil, fmt.Errorf("%w: file %d of %d", ErrOutOfRange, i, len(f.files))
	}
	return f.files[i], nil
}

// Source returns the source record at index i.
func (f *File) Source(i int) (*SourceInfo, error) {
	if i < 0 || i >= len(f.sources) {
		return nil, fmt.Errorf("%w: source %d of %d", ErrOutOfRange, i, len(f.sources))
	}
	return f.sources[i], nil
}

// Executable returns the executable record at index i.
func (f *File) Executable(i int) (*ExecutableInfo, error) {
	if i < 0 || i >= len(f.executables) {
		return nil, fmt.Errorf("%w: executable %d of %d", ErrOutOfRange, i, len(f.executables))
	}
	return f.executables[i], nil
}
