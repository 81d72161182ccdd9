// Package compression implements the block codecs used by SuperFetch
// database files. Each codec is a pure function over a single compressed
// block; callers locate block boundaries, the codec never scans.
package compression

import (
	"errors"
	"fmt"
)

// Method identifies the compression method of a database's blocks.
type Method uint8

// Supported block compression methods.
const (
	MethodStored       Method = iota // Blocks carry the payload verbatim.
	MethodLZNT1                      // LZNT1 chunked compression.
	MethodLZXPRESS                   // LZXPRESS plain LZ77 compression.
)

// Codec error sentinels.
var (
	ErrCorruptBlock           = errors.New("corrupt compressed block")
	ErrUnsupportedCompression = errors.New("unsupported compression method")
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodStored:
		return "stored"
	case MethodLZNT1:
		return "lznt1"
	case MethodLZXPRESS:
		return "lzxpress"
	default:
		return fmt.Sprintf("unknown-%d", uint8(m))
	}
}

// Decompress expands a single compressed block to exactly
// uncompressedSize bytes. Output shorter or longer than declared is
// rejected as ErrCorruptBlock.
func Decompress(method Method, compressed []byte, uncompressedSize int) ([]byte, error) {
	if uncompressedSize < 0 {
		return nil, fmt.Errorf("%w: negative uncompressed size %d", ErrCorruptBlock, uncompressedSize)
	}

	var (
		out []byte
		err error
	)
	switch method {
	case MethodStored:
		out, err = copyStored(compressed, uncompressedSize)
	case MethodLZNT1:
		out, err = decompressLZNT1(compressed, uncompressedSize)
	case MethodLZXPRESS:
		out, err = decompressLZXPRESS(compressed, uncompressedSize)
	default:
		return nil, fmt.Errorf("%w: method %d", ErrUnsupportedCompression, uint8(method))
	}
	if err != nil {
		return nil, err
	}

	if len(out) != uncompressedSize {
		return nil, fmt.Errorf("%w: decompressed to %d bytes, expected %d",
			ErrCorruptBlock, len(out), uncompressedSize)
	}
	return out, nil
}

// copyStored handles uncompressed blocks. The payload must match the
// declared size exactly.
func copyStored(compressed []byte, uncompressedSize int) ([]byte, error) {
	if len(compressed) != uncompressedSize {
		return nil, fmt.Errorf("%w: stored block carries %d bytes, expected %d",
			ErrCorruptBlock, len(compressed), uncompressedSize)
	}
	out := make([]byte, uncompressedSize)
	copy(out, compressed)
	return out, nil
}
