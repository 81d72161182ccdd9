package compression

import (
	"encoding/binary"
	"fmt"
)

// LZNT1 stream layout: a sequence of chunks, each prefixed by a 16-bit
// little-endian header. Header bits 0-11 hold the size of the chunk
// payload minus one, bits 12-14 a signature (always 3) and bit 15 the
// compressed flag. A zero header terminates the stream early; the
// remaining output is implicitly zero-filled by the flush below.
const (
	lznt1ChunkSize      = 4096
	lznt1SizeMask       = 0x0FFF
	lznt1SignatureMask  = 0x7000
	lznt1Signature      = 0x3000
	lznt1CompressedFlag = 0x8000
)

// decompressLZNT1 expands an LZNT1 compressed block.
func decompressLZNT1(in []byte, uncompressedSize int) ([]byte, error) {
	out := make([]byte, 0, uncompressedSize)
	pos := 0

	for pos < len(in) && len(out) < uncompressedSize {
		if pos+2 > len(in) {
			return nil, fmt.Errorf("%w: lznt1 chunk header truncated at %d", ErrCorruptBlock, pos)
		}
		header := binary.LittleEndian.Uint16(in[pos : pos+2])
		pos += 2

		if header == 0 {
			break
		}
		if header&lznt1SignatureMask != lznt1Signature {
			return nil, fmt.Errorf("%w: lznt1 chunk signature 0x%04x", ErrCorruptBlock, header)
		}

		chunkSize := int(header&lznt1SizeMask) + 1
		if pos+chunkSize > len(in) {
			return nil, fmt.Errorf("%w: lznt1 chunk payload truncated at %d", ErrCorruptBlock, pos)
		}
		chunk := in[pos : pos+chunkSize]
		pos += chunkSize

		if header&lznt1CompressedFlag == 0 {
			out = append(out, chunk...)
			continue
		}

		var err error
		out, err = decompressLZNT1Chunk(chunk, out)
		if err != nil {
			return nil, err
		}
	}

	// A stream may end before declaring every chunk; the remainder of
	// the block is zero bytes.
	for len(out) < uncompressedSize {
		out = append(out, 0)
	}
	return out, nil
}

// decompressLZNT1Chunk expands one compressed chunk, appending to out.
// Copy tuples use a position-dependent split: the further into the
// chunk the output cursor is, the more bits the displacement takes.
func decompressLZNT1Chunk(chunk []byte, out []byte) ([]byte, error) {
	chunkStart := len(out)
	pos := 0

	for pos < len(chunk) {
		flags := chunk[pos]
		pos++

		for bit := 0; bit < 8 && pos < len(chunk); bit++ {
			if flags&(1<<bit) == 0 {
				out = append(out, chunk[pos])
				pos++
				continue
			}

			if pos+2 > len(chunk) {
				return nil, fmt.Errorf("%w: lznt1 copy tuple truncated", ErrCorruptBlock)
			}
			tuple := binary.LittleEndian.Uint16(chunk[pos : pos+2])
			pos += 2

			written := len(out) - chunkStart
			if written == 0 {
				return nil, fmt.Errorf("%w: lznt1 copy tuple before any output", ErrCorruptBlock)
			}

			lengthMask := uint16(lznt1SizeMask)
			offsetShift := 12
			for p := written - 1; p >= 0x10; p >>= 1 {
				lengthMask >>= 1
				offsetShift--
			}

			length := int(tuple&lengthMask) + 3
			offset := int(tuple>>offsetShift) + 1

			if offset > written {
				return nil, fmt.Errorf("%w: lznt1 displacement %d exceeds chunk output %d",
					ErrCorruptBlock, offset, written)
			}

			// Overlapping copies are valid and replicate recent bytes.
			for i := 0; i < length; i++ {
				out = append(out, out[len(out)-offset])
			}
		}
	}
	if len(out)-chunkStart > lznt1ChunkSize {
		return nil, fmt.Errorf("%w: lznt1 chunk expands to %d bytes", ErrCorruptBlock, len(out)-chunkStart)
	}
	return out, nil
}
