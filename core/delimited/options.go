package delimited

import "go.uber.org/zap"

// DefaultDelimiter is the field separator used when none is configured.
const DefaultDelimiter = ','

// maxLineSize bounds a single input line; it matches the upload size limit.
const maxLineSize = 16 * 1024 * 1024

// Options configures a Parser or a Writer.
type Options struct {
	Delimiter    rune
	Strict       bool
	QuotedFields bool
	Logger       *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithDelimiter sets the field separator.
func WithDelimiter(r rune) Option {
	return func(o *Options) { o.Delimiter = r }
}

// WithStrict makes the parser reject rows whose value count differs from the
// header, and reject input without a header line.
func WithStrict() Option {
	return func(o *Options) { o.Strict = true }
}

// WithQuotedFields switches to an RFC 4180 reader that honours delimiters
// embedded in quoted values. The default naive split does not.
func WithQuotedFields() Option {
	return func(o *Options) { o.QuotedFields = true }
}

// WithLogger attaches a logger for lenient-mode diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func buildOptions(opts []Option) Options {
	o := Options{Delimiter: DefaultDelimiter}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
