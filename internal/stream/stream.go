// Package stream presents the concatenation of a database's compressed
// blocks as a single seekable, read-only logical stream. Blocks are
// enumerated once up front; payloads are decompressed lazily and the
// most recently used block is cached.
package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/scigolib/agdb/internal/compression"
	"github.com/scigolib/agdb/internal/utils"
)

// ErrInvalidOffset reports a seek or read outside the logical stream.
var ErrInvalidOffset = errors.New("offset outside logical stream")

// blockPrefixSize is the fixed per-block header: compressed size and
// uncompressed size, both 32-bit little-endian.
const blockPrefixSize = 8

// blockEntry describes one compressed block of the run.
type blockEntry struct {
	index            int
	logicalOffset    int64 // position of the block's data in the logical stream
	sourceOffset     int64 // position of the block's payload in the raw file
	compressedSize   int
	uncompressedSize int
}

// cachedBlock holds the most recently decompressed block.
type cachedBlock struct {
	m sync.Mutex

	index int
	data  []byte
}

func (c *cachedBlock) replace(index int, data []byte) {
	c.m.Lock()
	defer c.m.Unlock()

	c.index = index
	c.data = data
}

func (c *cachedBlock) get() (int, []byte) {
	c.m.Lock()
	defer c.m.Unlock()

	return c.index, c.data
}

// Reader is the seekable logical stream over the decompressed blocks.
type Reader struct {
	src    io.ReaderAt
	method compression.Method
	logger *zap.Logger

	index     *btree.BTreeG[*blockEntry]
	numBlocks int
	size      int64

	offset int64

	cached cachedBlock
}

var (
	_ io.Reader   = (*Reader)(nil)
	_ io.Seeker   = (*Reader)(nil)
	_ io.ReaderAt = (*Reader)(nil)
)

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the debug logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader enumerates the block run starting at compressedOffset in
// src and returns a logical stream of exactly uncompressedSize bytes.
// The sum of the blocks' declared uncompressed sizes must equal
// uncompressedSize.
func NewReader(src io.ReaderAt, method compression.Method, compressedOffset int64, uncompressedSize uint32, opts ...Option) (*Reader, error) {
	if src == nil {
		return nil, errors.New("stream: nil source")
	}

	r := &Reader{
		src:    src,
		method: method,
		logger: zap.NewNop(),
		index: btree.NewG[*blockEntry](8, func(a, b *blockEntry) bool {
			return a.logicalOffset < b.logicalOffset
		}),
		size: int64(uncompressedSize),
	}
	r.cached.index = -1

	for _, opt := range opts {
		opt(r)
	}

	if err := r.buildIndex(compressedOffset); err != nil {
		return nil, err
	}
	return r, nil
}

// buildIndex walks the block run, reading each prefix header and
// recording a descriptor keyed by cumulative logical offset.
func (r *Reader) buildIndex(compressedOffset int64) error {
	prefix := utils.GetBuffer(blockPrefixSize)
	defer utils.ReleaseBuffer(prefix)

	var (
		sourceOffset  = compressedOffset
		logicalOffset int64
	)

	for logicalOffset < r.size {
		if _, err := io.ReadFull(io.NewSectionReader(r.src, sourceOffset, blockPrefixSize), prefix); err != nil {
			return fmt.Errorf("%w: block %d prefix at offset %d: %v",
				compression.ErrCorruptBlock, r.numBlocks, sourceOffset, err)
		}

		compressedSize := int64(uint32(prefix[0]) | uint32(prefix[1])<<8 | uint32(prefix[2])<<16 | uint32(prefix[3])<<24)
		blockSize := int64(uint32(prefix[4]) | uint32(prefix[5])<<8 | uint32(prefix[6])<<16 | uint32(prefix[7])<<24)

		if compressedSize == 0 || blockSize == 0 {
			return fmt.Errorf("%w: block %d declares empty size", compression.ErrCorruptBlock, r.numBlocks)
		}
		if blockSize > utils.MaxUncompressedBlockSize {
			return fmt.Errorf("%w: block %d declares %d uncompressed bytes",
				compression.ErrCorruptBlock, r.numBlocks, blockSize)
		}
		if logicalOffset+blockSize > r.size {
			return fmt.Errorf("%w: blocks exceed declared data size %d", compression.ErrCorruptBlock, r.size)
		}

		entry := &blockEntry{
			index:            r.numBlocks,
			logicalOffset:    logicalOffset,
			sourceOffset:     sourceOffset + blockPrefixSize,
			compressedSize:   int(compressedSize),
			uncompressedSize: int(blockSize),
		}
		r.index.ReplaceOrInsert(entry)

		r.logger.Debug("indexed compressed block",
			zap.Int("block", entry.index),
			zap.Int64("logical_offset", entry.logicalOffset),
			zap.Int64("source_offset", entry.sourceOffset),
			zap.Int("compressed_size", entry.compressedSize),
			zap.Int("uncompressed_size", entry.uncompressedSize))

		sourceOffset += blockPrefixSize + compressedSize
		logicalOffset += blockSize
		r.numBlocks++
	}

	return nil
}

// Size returns the total logical stream size.
func (r *Reader) Size() int64 {
	return r.size
}

// NumBlocks returns the number of compressed blocks backing the stream.
func (r *Reader) NumBlocks() int {
	return r.numBlocks
}

// Seek positions the read cursor. Any offset in [0, Size()] is valid;
// a seek exactly to a block boundary selects the block starting there.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return 0, fmt.Errorf("stream: invalid whence %d", whence)
	}

	if abs < 0 || abs > r.size {
		return 0, fmt.Errorf("%w: seek to %d, stream size %d", ErrInvalidOffset, abs, r.size)
	}

	r.offset = abs
	return abs, nil
}

// Read reads up to len(p) bytes from the current position, crossing
// block boundaries transparently.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.offset)
	r.offset += int64(n)
	return n, err
}

// ReadAt reads from an absolute logical offset without moving the
// cursor. It returns io.EOF when off+len(p) reaches past the stream
// end.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > r.size {
		return 0, fmt.Errorf("%w: read at %d, stream size %d", ErrInvalidOffset, off, r.size)
	}
	if off == r.size {
		return 0, io.EOF
	}

	total := 0
	for total < len(p) && off < r.size {
		entry, ok := r.blockFor(off)
		if !ok {
			return total, fmt.Errorf("%w: no block for logical offset %d", compression.ErrCorruptBlock, off)
		}

		data, err := r.blockData(entry)
		if err != nil {
			return total, err
		}

		within := int(off - entry.logicalOffset)
		n := copy(p[total:], data[within:])
		total += n
		off += int64(n)
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// blockFor locates the descriptor containing the logical offset.
func (r *Reader) blockFor(off int64) (*blockEntry, bool) {
	var found *blockEntry
	r.index.DescendLessOrEqual(&blockEntry{logicalOffset: off}, func(e *blockEntry) bool {
		found = e
		return false
	})
	if found == nil {
		return nil, false
	}
	if off >= found.logicalOffset+int64(found.uncompressedSize) {
		return nil, false
	}
	return found, true
}

// blockData returns the decompressed payload of a block, serving it
// from the cache when resident. Replacing the cache releases the
// previous buffer, so at most two decompressed blocks are alive while
// a boundary is crossed.
func (r *Reader) blockData(entry *blockEntry) ([]byte, error) {
	if index, data := r.cached.get(); index == entry.index && data != nil {
		return data, nil
	}

	compressed := make([]byte, entry.compressedSize)
	if _, err := io.ReadFull(io.NewSectionReader(r.src, entry.sourceOffset, int64(entry.compressedSize)), compressed); err != nil {
		return nil, utils.WrapError(fmt.Sprintf("block %d read failed", entry.index), err)
	}

	data, err := compression.Decompress(r.method, compressed, entry.uncompressedSize)
	if err != nil {
		return nil, utils.WrapError(fmt.Sprintf("block %d decompression failed", entry.index), err)
	}

	r.logger.Debug("decompressed block",
		zap.Int("block", entry.index),
		zap.Int("uncompressed_size", entry.uncompressedSize))

	r.cached.replace(entry.index, data)
	return data, nil
}
