package types

import (
	"errors"
	"fmt"
	"strings"
)

// DataType is the closed set of scalar column kinds the seeder knows how to fill.
type DataType int

const (
	Int DataType = iota + 1
	Serial
	UUID
	Numeric
	Varchar
	Timestamp
)

var dataTypeNames = map[DataType]string{
	Int:       "INT",
	Serial:    "SERIAL",
	UUID:      "UUID",
	Numeric:   "NUMERIC",
	Varchar:   "VARCHAR",
	Timestamp: "TIMESTAMP",
}

// AllDataTypes returns every DataType in declaration order.
func AllDataTypes() []DataType {
	return []DataType{Int, Serial, UUID, Numeric, Varchar, Timestamp}
}

// ParseDataType maps a lower- or upper-case base type token ("varchar", "INT") to a DataType.
// Length or precision parameters must already be stripped.
func ParseDataType(token string) (DataType, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "int":
		return Int, true
	case "serial":
		return Serial, true
	case "uuid":
		return UUID, true
	case "numeric":
		return Numeric, true
	case "varchar":
		return Varchar, true
	case "timestamp":
		return Timestamp, true
	}
	return 0, false
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// IsInteger reports whether values of this type are written as unquoted decimals.
func (d DataType) IsInteger() bool {
	return d == Int || d == Serial
}

type KeyRole int

const (
	KeyNone KeyRole = iota
	KeyPrimary
	KeyForeign
)

func (k KeyRole) String() string {
	switch k {
	case KeyPrimary:
		return "PRIMARY"
	case KeyForeign:
		return "FOREIGN"
	default:
		return "NONE"
	}
}

type Reference struct {
	Table  string
	Column string
}

func (r Reference) String() string {
	return r.Table + "." + r.Column
}

var ErrIncompleteReference = errors.New("foreign key reference needs both table and column")

type Field struct {
	Name      string
	Type      DataType
	Length    int // declared varchar(n) length, 0 when absent
	Nullable  bool
	Key       KeyRole
	Reference *Reference
}

// SetPrimary marks the field as part of the primary key. Calling it twice is harmless.
func (f *Field) SetPrimary() {
	f.Key = KeyPrimary
	f.Reference = nil
}

func (f *Field) SetForeign(table, column string) error {
	if table == "" || column == "" {
		return fmt.Errorf("%w: field %s -> %q.%q", ErrIncompleteReference, f.Name, table, column)
	}
	f.Key = KeyForeign
	f.Reference = &Reference{Table: table, Column: column}
	return nil
}

func (f *Field) IsForeign() bool {
	return f.Key == KeyForeign && f.Reference != nil
}

func (f *Field) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte(':')
	b.WriteString(f.Type.String())
	switch f.Key {
	case KeyPrimary:
		b.WriteString("/PRIMARY")
	case KeyForeign:
		b.WriteString("/FOREIGN(" + f.Reference.String() + ")")
	}
	if !f.Nullable {
		b.WriteString("/not-null")
	}
	return b.String()
}

// Table keeps its fields in declaration order; that order is the INSERT column order.
type Table struct {
	Name   string
	fields map[string]*Field
	order  []string
}

func NewTable(name string) *Table {
	return &Table{
		Name:   name,
		fields: make(map[string]*Field),
	}
}

// Add appends a field. Re-adding an existing name replaces the earlier definition
// but keeps its original position.
func (t *Table) Add(f *Field) {
	if _, exists := t.fields[f.Name]; !exists {
		t.order = append(t.order, f.Name)
	}
	t.fields[f.Name] = f
}

func (t *Table) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

func (t *Table) Fields() []*Field {
	fields := make([]*Field, 0, len(t.order))
	for _, name := range t.order {
		fields = append(fields, t.fields[name])
	}
	return fields
}

func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

func (t *Table) Len() int {
	return len(t.order)
}

// Dependencies returns the distinct tables this one references, excluding itself.
func (t *Table) Dependencies() []string {
	seen := make(map[string]bool)
	var deps []string
	for _, f := range t.Fields() {
		if !f.IsForeign() || f.Reference.Table == t.Name || seen[f.Reference.Table] {
			continue
		}
		seen[f.Reference.Table] = true
		deps = append(deps, f.Reference.Table)
	}
	return deps
}

// SelfReferences returns the foreign key fields pointing back at this table.
func (t *Table) SelfReferences() []*Field {
	var refs []*Field
	for _, f := range t.Fields() {
		if f.IsForeign() && f.Reference.Table == t.Name {
			refs = append(refs, f)
		}
	}
	return refs
}

func (t *Table) String() string {
	parts := make([]string, 0, len(t.order))
	for _, f := range t.Fields() {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("Table(%s)[%s]", t.Name, strings.Join(parts, ", "))
}

type CommandKind int

const (
	CommandCreate CommandKind = iota + 1
	CommandDrop
	CommandAlter
)

func ParseCommandKind(token string) (CommandKind, bool) {
	switch strings.ToLower(token) {
	case "create":
		return CommandCreate, true
	case "drop":
		return CommandDrop, true
	case "alter":
		return CommandAlter, true
	}
	return 0, false
}

func (c CommandKind) String() string {
	switch c {
	case CommandCreate:
		return "CREATE"
	case CommandDrop:
		return "DROP"
	case CommandAlter:
		return "ALTER"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(c))
	}
}

// Statement is one parsed DDL statement. Raw holds the source text so it can be
// forwarded to the database untouched.
type Statement struct {
	Table   *Table
	Command CommandKind
	Raw     string
}
