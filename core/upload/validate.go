// Package upload validates incoming data files before they are parsed.
package upload

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultMaxSize is the largest accepted upload, in bytes.
const DefaultMaxSize int64 = 16 * 1024 * 1024

// DefaultAllowedTypes lists the accepted file extensions.
var DefaultAllowedTypes = []string{".xlsx", ".csv"}

// Issue codes.
const (
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeTooLarge        = "FILE_TOO_LARGE"
	CodeEmptyName       = "EMPTY_NAME"
)

// Issue describes one validation failure.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

// Result is the outcome of Validate.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Errors returns the issue messages.
func (r Result) Errors() []string {
	out := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Message
	}
	return out
}

// Err returns nil for a valid result and a combined error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid upload: %s", strings.Join(r.Errors(), "; "))
}

type options struct {
	allowed []string
	maxSize int64
}

// Option configures Validate.
type Option func(*options)

// WithAllowedTypes replaces the accepted extensions. Entries are matched
// case-insensitively and may omit the leading dot.
func WithAllowedTypes(types ...string) Option {
	return func(o *options) {
		o.allowed = make([]string, 0, len(types))
		for _, t := range types {
			t = strings.ToLower(strings.TrimSpace(t))
			if !strings.HasPrefix(t, ".") {
				t = "." + t
			}
			o.allowed = append(o.allowed, t)
		}
	}
}

// WithMaxSize replaces the size limit in bytes.
func WithMaxSize(n int64) Option {
	return func(o *options) { o.maxSize = n }
}

// Extension returns the lower-cased text from the last dot of name, dot
// included. A name without a dot has no extension and yields "".
func Extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return strings.ToLower(name[i:])
	}
	return ""
}

// Validate checks a file's extension and size.
func Validate(name string, size int64, opts ...Option) Result {
	o := options{allowed: DefaultAllowedTypes, maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&o)
	}

	var issues []Issue
	addIssue := func(code, message string) {
		issues = append(issues, Issue{Code: code, Message: message, Severity: "error"})
	}

	if strings.TrimSpace(name) == "" {
		addIssue(CodeEmptyName, "No file selected")
	} else if ext := Extension(name); ext == "" {
		addIssue(CodeUnsupportedType, fmt.Sprintf("File %s has no extension. Allowed types: %s",
			name, strings.Join(o.allowed, ", ")))
	} else if !slices.Contains(o.allowed, ext) {
		addIssue(CodeUnsupportedType, fmt.Sprintf("File type %s is not supported. Allowed types: %s",
			ext, strings.Join(o.allowed, ", ")))
	}

	if size > o.maxSize {
		addIssue(CodeTooLarge, fmt.Sprintf("File size (%.1fMB) exceeds maximum allowed size of %.1fMB",
			megabytes(size), megabytes(o.maxSize)))
	}

	return Result{Valid: len(issues) == 0, Issues: issues}
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
