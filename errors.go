package agdb

import (
	"github.com/scigolib/agdb/internal/compression"
	"github.com/scigolib/agdb/internal/core"
)

// Error sentinels surfaced by the package. Wrapped errors satisfy
// errors.Is against these.
var (
	// ErrInvalidArgument reports a caller contract violation.
	ErrInvalidArgument = core.ErrInvalidArgument

	// ErrUnsupportedFormat reports header values or entry sizes outside
	// the recognized set.
	ErrUnsupportedFormat = core.ErrUnsupportedFormat

	// ErrCorruptRecord reports declared lengths or counts inconsistent
	// with the stream.
	ErrCorruptRecord = core.ErrCorruptRecord

	// ErrTruncatedRecord reports a record cut short by the end of the
	// stream.
	ErrTruncatedRecord = core.ErrTruncatedRecord

	// ErrOutOfRange reports an index at or beyond a collection count.
	ErrOutOfRange = core.ErrOutOfRange

	// ErrCorruptBlock reports a compressed block the codec rejected or
	// that produced wrong-sized output.
	ErrCorruptBlock = compression.ErrCorruptBlock

	// ErrUnsupportedCompression reports an unrecognized block
	// compression method.
	ErrUnsupportedCompression = compression.ErrUnsupportedCompression
)
