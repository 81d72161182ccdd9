package agdb

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testDB assembles complete database images for tests: an outer
// header, a stored-block run and a logical stream holding the
// parameter block and records.
type testDB struct {
	signature []byte

	volEntrySize  uint32
	fileEntrySize uint32
	srcEntrySize  uint32
	execEntrySize uint32
	sub1Size      uint32
	sub2Size      uint32

	volumes     uint32
	files       uint32
	sources     uint32
	executables uint32

	// declaredFiles overrides the file count written to the header.
	declaredFiles *uint32

	records []byte

	// blockSize splits the logical stream into stored blocks of this
	// size; zero means a single block.
	blockSize int
}

func newTestDB32() *testDB {
	return &testDB{
		signature:     []byte{'M', 'A', 'M', 0x00},
		volEntrySize:  56,
		fileEntrySize: 36,
		srcEntrySize:  60,
		execEntrySize: 24,
		sub1Size:      16,
		sub2Size:      16,
	}
}

func newTestDB64() *testDB {
	return &testDB{
		signature:     []byte{'M', 'A', 'M', 0x00},
		volEntrySize:  88,
		fileEntrySize: 88,
		srcEntrySize:  64,
		execEntrySize: 24,
		sub1Size:      16,
		sub2Size:      16,
	}
}

func (d *testDB) alignment() int {
	switch d.fileEntrySize {
	case 64, 88, 112:
		return 8
	default:
		return 4
	}
}

// appendRecord adds raw record bytes to the logical stream.
func (d *testDB) appendRecord(rec []byte) {
	d.records = append(d.records, rec...)
}

// build assembles the raw database image.
func (d *testDB) build() []byte {
	logical := make([]byte, 84) // header region of the logical stream
	logical = appendU32(logical, d.volEntrySize)
	logical = appendU32(logical, d.fileEntrySize)
	logical = appendU32(logical, d.srcEntrySize)
	logical = appendU32(logical, d.execEntrySize)
	logical = appendU32(logical, d.sub1Size)
	logical = appendU32(logical, d.sub2Size)
	logical = appendU32(logical, d.sources)
	logical = appendU32(logical, 0) // unknown1
	for len(logical)%d.alignment() != 0 {
		logical = append(logical, 0)
	}
	logical = append(logical, d.records...)

	declaredFiles := d.files
	if d.declaredFiles != nil {
		declaredFiles = *d.declaredFiles
	}

	raw := make([]byte, 84)
	copy(raw[0:4], d.signature)
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(logical)))
	binary.LittleEndian.PutUint32(raw[8:12], 84) // header size
	binary.LittleEndian.PutUint32(raw[12:16], 1) // database type
	binary.LittleEndian.PutUint32(raw[52:56], d.volumes)
	binary.LittleEndian.PutUint32(raw[56:60], declaredFiles)
	binary.LittleEndian.PutUint32(raw[64:68], d.executables)

	blockSize := d.blockSize
	if blockSize <= 0 {
		blockSize = len(logical)
	}
	for start := 0; start < len(logical); start += blockSize {
		end := start + blockSize
		if end > len(logical) {
			end = len(logical)
		}
		payload := logical[start:end]

		prefix := make([]byte, 8)
		binary.LittleEndian.PutUint32(prefix[0:4], uint32(len(payload)))
		binary.LittleEndian.PutUint32(prefix[4:8], uint32(len(payload)))
		raw = append(raw, prefix...)
		raw = append(raw, payload...)
	}
	return raw
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func encodePath(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], u)
		b = append(b, tmp[:]...)
	}
	return append(b, 0, 0)
}

// fileRecord32 builds a 36-byte file record with optional path and
// sub-entries, padded for a record starting at an aligned offset.
func fileRecord32(nameHash, flags uint32, path string, pathFlagBits uint8, subEntries [][]byte) []byte {
	var rec []byte
	rec = appendU32(rec, 0) // unknown1
	rec = appendU32(rec, nameHash)
	rec = appendU32(rec, uint32(len(subEntries)))
	rec = appendU32(rec, flags)
	rec = appendU64(rec, 0) // unknown4
	rec = appendU32(rec, 0) // unknown5

	chars := uint32(len(utf16.Encode([]rune(path))))
	rec = appendU32(rec, chars<<2|uint32(pathFlagBits))
	rec = appendU32(rec, 0) // unknown7

	if chars > 0 {
		rec = append(rec, encodePath(path)...)
		for len(rec)%4 != 0 {
			rec = append(rec, 0)
		}
	}
	for _, sub := range subEntries {
		rec = append(rec, sub...)
	}
	return rec
}

// volumeRecord32 builds a 56-byte volume record with a device path.
func volumeRecord32(device string, creationTime uint64, serial uint32) []byte {
	var rec []byte
	chars := uint32(len(utf16.Encode([]rune(device))))
	rec = appendU32(rec, chars<<2)
	rec = appendU32(rec, 0) // unknown1
	rec = appendU64(rec, creationTime)
	rec = appendU32(rec, serial)
	rec = appendU32(rec, 0) // unknown2
	for len(rec) < 56 {
		rec = append(rec, 0)
	}
	if chars > 0 {
		rec = append(rec, encodePath(device)...)
		for len(rec)%4 != 0 {
			rec = append(rec, 0)
		}
	}
	return rec
}

// executableRecord32 builds a 24-byte executable record with a name.
func executableRecord32(name string, nameHash uint32) []byte {
	var rec []byte
	chars := uint32(len(utf16.Encode([]rune(name))))
	rec = appendU32(rec, chars<<2)
	rec = appendU32(rec, 0) // unknown1
	rec = appendU32(rec, nameHash)
	for len(rec) < 24 {
		rec = append(rec, 0)
	}
	if chars > 0 {
		rec = append(rec, encodePath(name)...)
		for len(rec)%4 != 0 {
			rec = append(rec, 0)
		}
	}
	return rec
}

// sourceRecord32 builds a 60-byte opaque source record.
func sourceRecord32() []byte {
	rec := make([]byte, 60)
	for i := 4; i < len(rec); i++ {
		rec[i] = byte(i)
	}
	return rec
}

func TestOpenMinimal(t *testing.T) {
	db := newTestDB32()
	db.files = 1
	db.appendRecord(fileRecord32(0x11, 0, "", 0, nil))

	f, err := OpenReader(bytes.NewReader(db.build()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, 1, f.FileCount())
	assert.Equal(t, 0, f.VolumeCount())
	assert.Equal(t, 0, f.SourceCount())
	assert.Equal(t, 0, f.ExecutableCount())

	entry, err := f.FileEntry(0)
	require.NoError(t, err)
	assert.Empty(t, entry.RawPath())
	assert.Equal(t, uint64(0x11), entry.NameHash())
}

func TestOpenEndToEnd(t *testing.T) {
	db := newTestDB32()
	db.volumes = 1
	db.files = 2
	db.sources = 1
	db.executables = 1
	// Split the logical stream into small blocks so records cross
	// block boundaries.
	db.blockSize = 48

	db.appendRecord(volumeRecord32("\\Device\\HarddiskVolume1", 0x01D0123456789ABC, 0xABCD1234))
	db.appendRecord(fileRecord32(0x51, 3, "\\WINDOWS\\system32\\ntdll.dll", 0, nil))
	sub := bytes.Repeat([]byte{0xA5}, 16)
	db.appendRecord(fileRecord32(0x52, 0, "\\WINDOWS\\notepad.exe", 0, [][]byte{sub, sub}))
	db.appendRecord(sourceRecord32())
	db.appendRecord(executableRecord32("NOTEPAD.EXE", 0xCAFEF00D))

	f, err := OpenReader(bytes.NewReader(db.build()), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, uint32(1), f.DatabaseType())
	require.Equal(t, 1, f.VolumeCount())
	require.Equal(t, 2, f.FileCount())
	require.Equal(t, 1, f.SourceCount())
	require.Equal(t, 1, f.ExecutableCount())

	vol, err := f.Volume(0)
	require.NoError(t, err)
	device, err := vol.DevicePath()
	require.NoError(t, err)
	assert.Equal(t, "\\Device\\HarddiskVolume1", device)
	assert.Equal(t, uint32(0xABCD1234), vol.SerialNumber())
	assert.Equal(t, uint64(0x01D0123456789ABC), vol.CreationTimeRaw())
	assert.False(t, vol.CreationTime().IsZero())

	file0, err := f.FileEntry(0)
	require.NoError(t, err)
	path0, err := file0.Path()
	require.NoError(t, err)
	assert.Equal(t, "\\WINDOWS\\system32\\ntdll.dll", path0)
	assert.Equal(t, uint32(3), file0.Flags())
	assert.Equal(t, 0, file0.SubEntryCount())

	file1, err := f.FileEntry(1)
	require.NoError(t, err)
	path1, err := file1.Path()
	require.NoError(t, err)
	assert.Equal(t, "\\WINDOWS\\notepad.exe", path1)
	require.Equal(t, 2, file1.SubEntryCount())
	got, err := file1.SubEntry(1)
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	src, err := f.Source(0)
	require.NoError(t, err)
	assert.Equal(t, 60, len(src.EntryData()))

	exe, err := f.Executable(0)
	require.NoError(t, err)
	name, err := exe.Name()
	require.NoError(t, err)
	assert.Equal(t, "NOTEPAD.EXE", name)
	assert.Equal(t, uint64(0xCAFEF00D), exe.NameHash())
}

func TestOpenWideMode(t *testing.T) {
	db := newTestDB64()
	db.files = 1

	// 88-byte entry: ten-character path, two sub-entries.
	var rec []byte
	rec = appendU32(rec, 0)                    // unknown1
	rec = appendU32(rec, 0)                    // unknown2
	rec = appendU64(rec, 0x1122334455667788)   // name hash
	rec = appendU32(rec, 2)                    // number of entries
	rec = appendU32(rec, 9)                    // flags
	rec = appendU64(rec, 0)                    // unknown4
	rec = appendU64(rec, 0)                    // unknown5
	rec = appendU64(rec, 0)                    // unknown6
	rec = appendU32(rec, 10<<2)                // path characters
	rec = appendU32(rec, 0)                    // unknown7
	rec = appendU64(rec, 0)                    // unknown8
	rec = append(rec, bytes.Repeat([]byte{0xEE}, 88-len(rec))...)
	rec = append(rec, encodePath("0123456789")...) // 22 bytes
	rec = append(rec, 0, 0)                        // pad 110 -> 112
	rec = append(rec, bytes.Repeat([]byte{0x01}, 16)...)
	rec = append(rec, bytes.Repeat([]byte{0x02}, 16)...)
	db.appendRecord(rec)

	f, err := OpenReader(bytes.NewReader(db.build()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	entry, err := f.FileEntry(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455667788), entry.NameHash())
	assert.Equal(t, 22, len(entry.RawPath()))
	assert.Equal(t, 2, entry.SubEntryCount())

	path, err := entry.Path()
	require.NoError(t, err)
	assert.Equal(t, "0123456789", path)
}

func TestOpenPreservesPathFlagBits(t *testing.T) {
	db := newTestDB32()
	db.files = 1
	// On-disk length 0x29 = (10 << 2) | 1.
	db.appendRecord(fileRecord32(0, 0, "0123456789", 1, nil))

	f, err := OpenReader(bytes.NewReader(db.build()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	entry, err := f.FileEntry(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), entry.PathFlags())
	assert.Equal(t, 22, len(entry.RawPath()))
}

func TestOpenCountMismatch(t *testing.T) {
	db := newTestDB32()
	db.files = 2
	declared := uint32(3)
	db.declaredFiles = &declared
	db.appendRecord(fileRecord32(1, 0, "", 0, nil))
	db.appendRecord(fileRecord32(2, 0, "", 0, nil))

	_, err := OpenReader(bytes.NewReader(db.build()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncatedRecord)
}

func TestOpenUnsupportedEntrySize(t *testing.T) {
	db := newTestDB32()
	db.fileEntrySize = 40

	_, err := OpenReader(bytes.NewReader(db.build()))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenUnknownSignature(t *testing.T) {
	db := newTestDB32()
	db.signature = []byte{'N', 'O', 'P', 'E'}

	_, err := OpenReader(bytes.NewReader(db.build()))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenNilReader(t *testing.T) {
	_, err := OpenReader(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLookupOutOfRange(t *testing.T) {
	db := newTestDB32()
	db.files = 1
	db.appendRecord(fileRecord32(1, 0, "", 0, nil))

	f, err := OpenReader(bytes.NewReader(db.build()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	_, err = f.FileEntry(1)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.FileEntry(-1)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.Volume(0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.Source(0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.Executable(0)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestOpenFromFile(t *testing.T) {
	db := newTestDB32()
	db.files = 1
	db.appendRecord(fileRecord32(7, 0, "", 0, nil))

	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, os.WriteFile(path, db.build(), 0o600))

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, f.FileCount())

	// Close is idempotent.
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does_not_exist.db"))
	require.Error(t, err)
}
