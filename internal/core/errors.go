package core

import "errors"

// Parse error sentinels. The root package re-exports these for callers.
var (
	// ErrInvalidArgument reports a caller contract violation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedFormat reports header values or entry sizes outside
	// the recognized set.
	ErrUnsupportedFormat = errors.New("unsupported database format")

	// ErrCorruptRecord reports declared lengths or counts inconsistent
	// with the stream.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrTruncatedRecord reports a record cut short by the end of the
	// stream.
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrOutOfRange reports an index at or beyond a collection count.
	ErrOutOfRange = errors.New("index out of range")
)
