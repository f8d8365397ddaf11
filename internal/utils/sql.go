package utils

import (
	"strings"
)

// RemoveComments strips "--" line comments and "/* */" block comments. Comment
// markers inside quoted text are left alone. Line breaks are kept.
func RemoveComments(sql string) string {
	var result strings.Builder
	result.Grow(len(sql)) // Pre-allocate buffer

	var quote byte
	for i := 0; i < len(sql); i++ {
		char := sql[i]

		if quote != 0 {
			if char == quote {
				quote = 0
			}
			result.WriteByte(char)
			continue
		}

		switch {
		case char == '\'' || char == '"' || char == '`':
			quote = char
		case char == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			if i < len(sql) {
				result.WriteByte('\n')
			}
			continue
		case char == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return result.String()
			}
			i += end + 3
			continue
		}
		result.WriteByte(char)
	}

	return result.String()
}

// IsBlank reports whether sql holds nothing but whitespace and comments.
func IsBlank(sql string) bool {
	return strings.TrimSpace(RemoveComments(sql)) == ""
}

// SplitColumns splits a column list on top-level commas. Commas nested in
// parentheses or quoted text stay in their part, so numeric(10, 2) and
// DEFAULT 'a, b' survive intact. Parts are returned untrimmed.
func SplitColumns(columnsStr string) []string {
	result := make([]string, 0, 8) // Pre-allocate with reasonable capacity
	var current strings.Builder
	current.Grow(64) // Pre-allocate buffer for column strings
	parenDepth := 0
	var quote byte

	for i := 0; i < len(columnsStr); i++ {
		char := columnsStr[i]
		switch {
		case quote != 0:
			if char == quote {
				quote = 0
			}
		case char == '\'' || char == '"' || char == '`':
			quote = char
		case char == '(':
			parenDepth++
		case char == ')':
			if parenDepth > 0 {
				parenDepth--
			}
		case char == ',' && parenDepth == 0:
			result = append(result, current.String())
			current.Reset()
			continue
		}
		current.WriteByte(char)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}
