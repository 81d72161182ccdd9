package agdb

import "go.uber.org/zap"

// Option configures a File while it is being opened.
type Option func(*File)

// WithLogger sets the debug logger used during parsing. The default is
// a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}
