package compression

import (
	"encoding/binary"
	"fmt"
)

// decompressLZXPRESS expands an LZXPRESS plain LZ77 block. The input
// interleaves 32-entry flag words with literals and 16-bit match
// tokens; a set flag bit marks a match. Match tokens pack
// (offset-1) << 3 | (length-3), with length escapes through a shared
// nibble byte, a full byte, a 16-bit and finally a 32-bit value.
func decompressLZXPRESS(in []byte, uncompressedSize int) ([]byte, error) {
	out := make([]byte, 0, uncompressedSize)

	var (
		pos          int
		flags        uint32
		flagCount    int
		nibbleOffset = -1
	)

	for len(out) < uncompressedSize {
		if flagCount == 0 {
			if pos+4 > len(in) {
				return nil, fmt.Errorf("%w: lzxpress flag word truncated at %d", ErrCorruptBlock, pos)
			}
			flags = binary.LittleEndian.Uint32(in[pos : pos+4])
			pos += 4
			flagCount = 32
		}
		flagCount--

		if flags&(1<<uint(flagCount)) == 0 {
			if pos >= len(in) {
				return nil, fmt.Errorf("%w: lzxpress literal truncated at %d", ErrCorruptBlock, pos)
			}
			out = append(out, in[pos])
			pos++
			continue
		}

		if pos+2 > len(in) {
			return nil, fmt.Errorf("%w: lzxpress match token truncated at %d", ErrCorruptBlock, pos)
		}
		token := binary.LittleEndian.Uint16(in[pos : pos+2])
		pos += 2

		offset := int(token>>3) + 1
		length := int(token & 7)

		if length == 7 {
			if nibbleOffset < 0 {
				if pos >= len(in) {
					return nil, fmt.Errorf("%w: lzxpress length nibble truncated", ErrCorruptBlock)
				}
				nibbleOffset = pos
				length = int(in[pos] & 0x0F)
				pos++
			} else {
				length = int(in[nibbleOffset] >> 4)
				nibbleOffset = -1
			}

			if length == 15 {
				if pos >= len(in) {
					return nil, fmt.Errorf("%w: lzxpress extended length truncated", ErrCorruptBlock)
				}
				length = int(in[pos])
				pos++

				if length == 255 {
					if pos+2 > len(in) {
						return nil, fmt.Errorf("%w: lzxpress 16-bit length truncated", ErrCorruptBlock)
					}
					length = int(binary.LittleEndian.Uint16(in[pos : pos+2]))
					pos += 2

					if length == 0 {
						if pos+4 > len(in) {
							return nil, fmt.Errorf("%w: lzxpress 32-bit length truncated", ErrCorruptBlock)
						}
						length = int(binary.LittleEndian.Uint32(in[pos : pos+4]))
						pos += 4
					}
					if length < 15+7 {
						return nil, fmt.Errorf("%w: lzxpress extended length %d below minimum", ErrCorruptBlock, length)
					}
					length -= 15 + 7
				}
				length += 15
			}
			length += 7
		}
		length += 3

		if offset > len(out) {
			return nil, fmt.Errorf("%w: lzxpress match offset %d exceeds output %d",
				ErrCorruptBlock, offset, len(out))
		}
		if len(out)+length > uncompressedSize {
			return nil, fmt.Errorf("%w: lzxpress match overruns declared size", ErrCorruptBlock)
		}

		// Byte-at-a-time copy, matches may overlap their own output.
		for i := 0; i < length; i++ {
			out = append(out, out[len(out)-offset])
		}
	}

	return out, nil
}
