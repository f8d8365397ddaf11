package common

import (
	"errors"
	"fmt"
)

var ErrNotConnected = errors.New("database not connected")

// ErrorKind groups driver errors into the classes the seeder reacts to.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindSyntax
	KindUndefinedTable
	KindIntegrityViolation
	KindAccess
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindUndefinedTable:
		return "undefined table"
	case KindIntegrityViolation:
		return "integrity violation"
	case KindAccess:
		return "access error"
	default:
		return "execution error"
	}
}

// ExecError wraps a driver error with its class and the statement that caused it.
type ExecError struct {
	Kind  ErrorKind
	Query string
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

func NewExecError(kind ErrorKind, query string, err error) *ExecError {
	return &ExecError{Kind: kind, Query: query, Err: err}
}

// KindOf reports the class of err, KindOther when it is not an ExecError.
func KindOf(err error) ErrorKind {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return KindOther
}
