package seeder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyReference     = errors.New("referenced table has no rows")
	ErrUndefinedReference = errors.New("referenced table does not exist")
	ErrCyclicDependency   = errors.New("cyclic foreign key dependency")
	ErrNoRows             = errors.New("no rows to insert")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
)

// ReferenceError reports a foreign key whose target could not supply values.
type ReferenceError struct {
	Table  string
	Column string
	Err    error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference %s.%s: %v", e.Table, e.Column, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// CyclicDependencyError lists the tables that could not be ordered.
type CyclicDependencyError struct {
	Tables []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("%v between tables: %s", ErrCyclicDependency, strings.Join(e.Tables, ", "))
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}
