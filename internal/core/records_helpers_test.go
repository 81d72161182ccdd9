package core

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/agdb/internal/compression"
	"github.com/scigolib/agdb/internal/stream"
)

// newTestStream wraps logical bytes in a single stored block and
// returns the logical stream over it.
func newTestStream(t *testing.T, logical []byte) *stream.Reader {
	t.Helper()

	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[0:4], uint32(len(logical)))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(logical)))
	raw = append(raw, logical...)

	r, err := stream.NewReader(bytes.NewReader(raw), compression.MethodStored, 0, uint32(len(logical)))
	require.NoError(t, err)
	return r
}

// putU32 appends a little-endian 32-bit value.
func putU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// putU64 appends a little-endian 64-bit value.
func putU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

// utf16lePath encodes a string as UTF-16LE with the trailing NUL pair.
func utf16lePath(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], u)
		b = append(b, tmp[:]...)
	}
	return append(b, 0, 0)
}

// ctx32 returns a 32-bit mode IO context built through classification.
func ctx32(t *testing.T, fileEntrySize uint32) *IOContext {
	t.Helper()
	ctx, err := NewIOContext(testHeader(0, 0, 0), testParams(fileEntrySize))
	require.NoError(t, err)
	return ctx
}

// ctx64 returns a 64-bit mode IO context built through classification.
func ctx64(t *testing.T, fileEntrySize uint32) *IOContext {
	t.Helper()
	ctx, err := NewIOContext(testHeader(0, 0, 0), testParams(fileEntrySize))
	require.NoError(t, err)
	require.Equal(t, Mode64, ctx.Mode)
	return ctx
}
