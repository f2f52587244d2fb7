package delimited

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow is returned in strict mode for rows whose value count
	// does not match the header.
	ErrMalformedRow = errors.New("malformed row")
	// ErrNoHeader is returned in strict mode when the input has no header line.
	ErrNoHeader = errors.New("missing header line")
	// ErrNoData is returned when exporting a table without records.
	ErrNoData = errors.New("no data to export")
)

// MalformedRowError describes a row rejected by a strict parser.
type MalformedRowError struct {
	Line     int
	Expected int
	Got      int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("line %d: expected %d values, got %d", e.Line, e.Expected, e.Got)
}

func (e *MalformedRowError) Unwrap() error {
	return ErrMalformedRow
}
