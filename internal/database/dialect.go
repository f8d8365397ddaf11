package database

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// Dialect covers the provider differences the insert builder cares about.
type Dialect struct {
	Name         string
	Placeholder  squirrel.PlaceholderFormat
	QuoteLiteral func(string) string
}

func DialectFor(provider string) Dialect {
	switch provider {
	case "mysql":
		return Dialect{Name: "mysql", Placeholder: squirrel.Question, QuoteLiteral: quoteMySQL}
	case "sqlite", "sqlite3":
		return Dialect{Name: "sqlite", Placeholder: squirrel.Question, QuoteLiteral: quoteStandard}
	default:
		return Dialect{Name: "postgresql", Placeholder: squirrel.Dollar, QuoteLiteral: pq.QuoteLiteral}
	}
}

// quoteStandard doubles single quotes, which is all standard SQL string literals need.
func quoteStandard(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteMySQL also escapes backslashes, which MySQL treats as escape characters by default.
func quoteMySQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
