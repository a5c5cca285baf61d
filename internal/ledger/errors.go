package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("empty file")

// ParseError reports a cell that could not be converted.
type ParseError struct {
	Row    int // 1-based, header is row 1
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingColumnError reports required header columns absent from the input.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return "missing required column(s): " + strings.Join(e.Columns, ", ")
}

// UploadError is the rejection of an uploaded file. Reason is safe to show
// to the user.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return "upload rejected: " + e.Reason + ": " + e.Err.Error()
	}
	return "upload rejected: " + e.Reason
}

func (e *UploadError) Unwrap() error { return e.Err }

// UserMessage returns a short, user-facing description of err.
func UserMessage(err error) string {
	var upErr *UploadError
	var colErr *MissingColumnError
	var parseErr *ParseError
	switch {
	case errors.As(err, &colErr):
		return colErr.Error()
	case errors.As(err, &parseErr):
		return parseErr.Error()
	case errors.As(err, &upErr):
		return upErr.Reason
	case errors.Is(err, ErrEmptyFile):
		return "the file is empty"
	default:
		return "the file could not be read"
	}
}
