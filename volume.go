package agdb

import (
	"time"

	"github.com/scigolib/agdb/internal/core"
)

// VolumeInfo is a volume record of an open database.
type VolumeInfo struct {
	rec *core.VolumeInformation
}

// DevicePath returns the volume device path as a UTF-8 string.
func (v *VolumeInfo) DevicePath() (string, error) {
	return decodeUTF16String(v.rec.DevicePath)
}

// DevicePathUTF16 returns the device path as host-order UTF-16 code
// units.
func (v *VolumeInfo) DevicePathUTF16() []uint16 {
	return decodeUTF16Units(v.rec.DevicePath)
}

// RawDevicePath returns the device path exactly as stored: UTF-16LE
// bytes including the trailing NUL pair. Callers must not modify the
// returned slice.
func (v *VolumeInfo) RawDevicePath() []byte {
	return v.rec.DevicePath
}

// PathFlags returns the undocumented low bits of the on-disk path
// length field.
func (v *VolumeInfo) PathFlags() uint8 {
	return v.rec.PathFlags
}

// CreationTime returns the volume creation time.
func (v *VolumeInfo) CreationTime() time.Time {
	return filetimeToTime(v.rec.CreationTime)
}

// CreationTimeRaw returns the creation time as a raw FILETIME value.
func (v *VolumeInfo) CreationTimeRaw() uint64 {
	return v.rec.CreationTime
}

// SerialNumber returns the volume serial number.
func (v *VolumeInfo) SerialNumber() uint32 {
	return v.rec.SerialNumber
}

// EntryData returns the fixed record entry verbatim, including fields
// whose meaning is still unknown. Callers must not modify the returned
// slice.
func (v *VolumeInfo) EntryData() []byte {
	return v.rec.EntryData
}

// filetimeEpochDelta is the number of 100ns intervals between the
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochDelta = 116444736000000000

func filetimeToTime(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	return time.Unix(0, (int64(ft)-filetimeEpochDelta)*100).UTC()
}
