package sheetdump

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a valid xlsx format.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrNoSheet indicates the workbook has no readable first sheet.
var ErrNoSheet = errors.New("workbook has no sheet")

// ErrNoPath indicates no file path was supplied.
var ErrNoPath = errors.New("no file path given")

// IOError is the single failure kind of a dump: missing or unreadable file,
// malformed document, or a write failure on the output.
type IOError struct {
	Op   string // "open", "select sheet", "read", "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
