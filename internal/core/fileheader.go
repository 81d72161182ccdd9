package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/scigolib/agdb/internal/compression"
	"github.com/scigolib/agdb/internal/utils"
)

// FileHeaderSize is the fixed size of the outer file header: 48 bytes
// of named fields plus the 36-byte database parameter blob.
const FileHeaderSize = 84

// Compression signatures carried in the first four bytes of the file.
var (
	signatureStored   = []byte{'M', 'A', 'M', 0x00}
	signatureLZXPRESS = []byte{'M', 'A', 'M', 0x04}
	signatureLZNT1    = []byte{'M', 'A', 'M', 0x08}
)

// FileHeader is the outer file header at offset 0 of the raw file.
// Unknown regions are preserved verbatim.
//
//	Offset  0: signature (4 bytes)
//	Offset  4: data size (4 bytes)
//	Offset  8: header size (4 bytes)
//	Offset 12: database type (4 bytes)
//	Offset 16: database parameters (36 bytes)
//	Offset 52: number of volumes (4 bytes)
//	Offset 56: number of files (4 bytes)
//	Offset 60: unknown3 (4 bytes)
//	Offset 64: number of executables (4 bytes)
//	Offset 68: unknown4 (4 bytes)
//	Offset 72: unknown5 (12 bytes)
type FileHeader struct {
	Signature          [4]byte
	DataSize           uint32
	HeaderSize         uint32
	DatabaseType       uint32
	DatabaseParameters [36]byte

	NumberOfVolumes     uint32
	NumberOfFiles       uint32
	Unknown3            uint32
	NumberOfExecutables uint32
	Unknown4            uint32
	Unknown5            [12]byte
}

// ReadFileHeader reads and validates the outer file header from the
// raw byte source.
func ReadFileHeader(r io.ReaderAt) (*FileHeader, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}

	buf := utils.GetBuffer(FileHeaderSize)
	defer utils.ReleaseBuffer(buf)

	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, utils.WrapError("file header read failed", err)
	}
	if n < FileHeaderSize {
		return nil, fmt.Errorf("%w: file too small for header (%d bytes)", ErrUnsupportedFormat, n)
	}

	h := &FileHeader{
		DataSize:            binary.LittleEndian.Uint32(buf[4:8]),
		HeaderSize:          binary.LittleEndian.Uint32(buf[8:12]),
		DatabaseType:        binary.LittleEndian.Uint32(buf[12:16]),
		NumberOfVolumes:     binary.LittleEndian.Uint32(buf[52:56]),
		NumberOfFiles:       binary.LittleEndian.Uint32(buf[56:60]),
		Unknown3:            binary.LittleEndian.Uint32(buf[60:64]),
		NumberOfExecutables: binary.LittleEndian.Uint32(buf[64:68]),
		Unknown4:            binary.LittleEndian.Uint32(buf[68:72]),
	}
	copy(h.Signature[:], buf[0:4])
	copy(h.DatabaseParameters[:], buf[16:52])
	copy(h.Unknown5[:], buf[72:84])

	if _, err := h.CompressionMethod(); err != nil {
		return nil, err
	}

	if h.DataSize < h.HeaderSize+DatabaseParametersSize {
		return nil, fmt.Errorf("%w: data size %d too small for header size %d",
			ErrUnsupportedFormat, h.DataSize, h.HeaderSize)
	}

	return h, nil
}

// CompressionMethod classifies the block compression from the file
// signature.
func (h *FileHeader) CompressionMethod() (compression.Method, error) {
	switch {
	case bytes.Equal(h.Signature[:], signatureStored):
		return compression.MethodStored, nil
	case bytes.Equal(h.Signature[:], signatureLZXPRESS):
		return compression.MethodLZXPRESS, nil
	case bytes.Equal(h.Signature[:], signatureLZNT1):
		return compression.MethodLZNT1, nil
	default:
		return 0, fmt.Errorf("%w: signature % x", ErrUnsupportedFormat, h.Signature)
	}
}
