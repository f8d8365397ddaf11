package parser

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedCommand  = errors.New("unsupported command")
	ErrUnknownType         = errors.New("unknown column type")
	ErrDanglingConstraint  = errors.New("constraint references a column not declared before it")
	ErrMalformedConstraint = errors.New("malformed key constraint")
	ErrMalformedColumn     = errors.New("malformed column definition")
)

// ParseError reports which clause of which table failed. Use errors.Is against the
// Err* values above to tell the kinds apart.
type ParseError struct {
	Table  string
	Clause string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Clause)
	}
	return fmt.Sprintf("table %s: %v: %q", e.Table, e.Err, e.Clause)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileError ties a parse failure to the file and statement position it came from.
type FileError struct {
	File  string
	Index int
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s (statement %d): %v", e.File, e.Index+1, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
