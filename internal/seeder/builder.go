package seeder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Lumos-Labs-HQ/provision/internal/database"
	"github.com/Lumos-Labs-HQ/provision/internal/types"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

// isValidTable also accepts a schema-qualified name.
func isValidTable(name string) bool {
	schema, table, found := strings.Cut(name, ".")
	if !found {
		return isValidIdentifier(name)
	}
	return isValidIdentifier(schema) && isValidIdentifier(table)
}

const timestampLayout = "2006-01-02 15:04:05.999999Z07:00"

// InsertBuilder renders batch INSERT statements for one SQL dialect.
type InsertBuilder struct {
	dialect database.Dialect
	qb      squirrel.StatementBuilderType
}

func NewInsertBuilder(dialect database.Dialect) *InsertBuilder {
	return &InsertBuilder{
		dialect: dialect,
		qb:      squirrel.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
	}
}

// Validate checks the table and column names before they are spliced into SQL.
func (b *InsertBuilder) Validate(table *types.Table) error {
	if !isValidTable(table.Name) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table.Name)
	}
	for _, col := range table.Columns() {
		if !isValidIdentifier(col) {
			return fmt.Errorf("%w: column %q in table %s", ErrInvalidIdentifier, col, table.Name)
		}
	}
	return nil
}

// Build renders rows as a single textual INSERT. Integer fields are written as bare
// decimals, NULLs as NULL and everything else as a quoted literal. With no rows the
// VALUES list is empty and the statement is not executable.
func (b *InsertBuilder) Build(table *types.Table, rows []Row) (string, error) {
	if err := b.Validate(table); err != nil {
		return "", err
	}

	fields := table.Fields()
	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(fields) {
			return "", fmt.Errorf("row has %d values, table %s has %d fields", len(row), table.Name, len(fields))
		}
		values := make([]string, len(row))
		for i, value := range row {
			values[i] = b.formatValue(fields[i], value)
		}
		tuples = append(tuples, "("+strings.Join(values, ", ")+")")
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table.Name)
	sb.WriteString("(")
	sb.WriteString(strings.Join(table.Columns(), ", "))
	sb.WriteString(") VALUES")
	if len(tuples) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(tuples, ", "))
	}
	sb.WriteString(";")
	return sb.String(), nil
}

// BuildParameterized renders rows as an INSERT with placeholders and returns the bound
// values in placeholder order.
func (b *InsertBuilder) BuildParameterized(table *types.Table, rows []Row) (string, []interface{}, error) {
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("%w: table %s", ErrNoRows, table.Name)
	}
	if err := b.Validate(table); err != nil {
		return "", nil, err
	}

	insert := b.qb.Insert(table.Name).Columns(table.Columns()...)
	for _, row := range rows {
		if len(row) != table.Len() {
			return "", nil, fmt.Errorf("row has %d values, table %s has %d fields", len(row), table.Name, table.Len())
		}
		insert = insert.Values(row...)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build insert for %s: %w", table.Name, err)
	}
	return query, args, nil
}

func (b *InsertBuilder) formatValue(field *types.Field, value interface{}) string {
	if value == nil {
		return "NULL"
	}

	if field.Type.IsInteger() {
		switch v := value.(type) {
		case int:
			return strconv.Itoa(v)
		case int32:
			return strconv.FormatInt(int64(v), 10)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}

	return b.dialect.QuoteLiteral(literalText(value))
}

func literalText(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(timestampLayout)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
