package parser

import (
	"fmt"
	"iter"
	"os"
	"strings"
)

// SplitStatements yields the statements of a DDL file. Statements are separated by a
// blank line; empty segments are dropped. A blank line inside a string literal or a
// comment will split a statement in two.
func SplitStatements(content string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, part := range strings.Split(content, "\n\n") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			if !yield(part) {
				return
			}
		}
	}
}

// ReadStatements reads a file and returns its blank-line separated statements.
func ReadStatements(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SQL file %s: %w", path, err)
	}

	var statements []string
	for stmt := range SplitStatements(string(data)) {
		statements = append(statements, stmt)
	}
	return statements, nil
}
