package parser

import (
	"strconv"
	"strings"

	"github.com/Lumos-Labs-HQ/provision/internal/types"
	"github.com/Lumos-Labs-HQ/provision/internal/utils"
)

// table constraints that carry no key role for seeding
var ignoredConstraints = map[string]bool{
	"unique":  true,
	"check":   true,
	"index":   true,
	"key":     true,
	"exclude": true,
}

// Parse turns a single DDL statement into a Statement. Only the body of a CREATE
// statement is inspected; DROP and ALTER only get their header parsed.
func Parse(text string) (*types.Statement, error) {
	line := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(utils.RemoveComments(text))

	header, body := splitHeader(line)
	command, tableName, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	table := types.NewTable(tableName)
	if command == types.CommandCreate {
		for _, clause := range splitClauses(body) {
			if err := parseClause(table, clause); err != nil {
				return nil, err
			}
		}
	}

	return &types.Statement{
		Table:   table,
		Command: command,
		Raw:     text,
	}, nil
}

// splitHeader cuts the statement at its first opening parenthesis. The body runs up
// to the last closing parenthesis.
func splitHeader(line string) (string, string) {
	open := strings.Index(line, "(")
	if open < 0 {
		return strings.TrimSpace(line), ""
	}

	header := strings.TrimSpace(line[:open])
	rest := line[open+1:]
	if end := strings.LastIndex(rest, ")"); end >= 0 {
		rest = rest[:end]
	}
	return header, rest
}

func parseHeader(header string) (types.CommandKind, string, error) {
	header = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(header), ";"))
	tokens := strings.Fields(header)
	if len(tokens) == 0 {
		return 0, "", &ParseError{Clause: header, Err: ErrUnsupportedCommand}
	}

	command, ok := types.ParseCommandKind(tokens[0])
	if !ok {
		return 0, "", &ParseError{Clause: header, Err: ErrUnsupportedCommand}
	}

	name := tokens[len(tokens)-1]
	if command != types.CommandCreate {
		name = targetTable(tokens)
	}
	return command, strings.ToLower(strings.Trim(name, "\"`")), nil
}

// targetTable finds the table named by DROP/ALTER TABLE [IF EXISTS] [ONLY] <name> ...
// where the name is not necessarily the last token.
func targetTable(tokens []string) string {
	for i, token := range tokens {
		if !strings.EqualFold(token, "table") {
			continue
		}
		for _, next := range tokens[i+1:] {
			switch strings.ToLower(next) {
			case "if", "exists", "only":
				continue
			}
			return strings.TrimRight(next, ",")
		}
	}
	return tokens[len(tokens)-1]
}

// splitClauses splits a CREATE body on top-level commas and drops empty clauses.
func splitClauses(body string) []string {
	var clauses []string
	for _, part := range utils.SplitColumns(body) {
		if clause := cleanClause(part); clause != "" {
			clauses = append(clauses, clause)
		}
	}
	return clauses
}

func cleanClause(clause string) string {
	clause = strings.TrimSpace(strings.Trim(strings.TrimSpace(clause), ";"))
	for strings.HasSuffix(clause, ")") && strings.Count(clause, ")") > strings.Count(clause, "(") {
		clause = strings.TrimSpace(strings.TrimSuffix(clause, ")"))
	}
	for strings.HasPrefix(clause, "(") && strings.Count(clause, "(") > strings.Count(clause, ")") {
		clause = strings.TrimSpace(strings.TrimPrefix(clause, "("))
	}
	return clause
}

func parseClause(table *types.Table, clause string) error {
	rc := GetRegexCache()
	lower := strings.ToLower(clause)

	if loc := rc.ConstraintName.FindStringIndex(lower); loc != nil {
		lower = lower[loc[1]:]
	}

	switch head := firstWord(lower); {
	case head == "primary" && strings.HasPrefix(strings.TrimSpace(lower[len(head):]), "key"):
		return parsePrimaryKey(table, lower)
	case head == "foreign":
		return parseForeignKey(table, lower)
	case isTableConstraint(lower, head):
		return nil
	}

	field, err := parseColumn(lower)
	if err != nil {
		return &ParseError{Table: table.Name, Clause: clause, Err: err}
	}
	table.Add(field)
	return nil
}

func parsePrimaryKey(table *types.Table, clause string) error {
	match := GetRegexCache().PrimaryKey.FindStringSubmatch(clause)
	if match == nil {
		return &ParseError{Table: table.Name, Clause: clause, Err: ErrMalformedConstraint}
	}

	var fields []*types.Field
	for _, name := range strings.Split(match[1], ",") {
		name = strings.Trim(strings.TrimSpace(name), "\"`")
		if name == "" {
			continue
		}
		field, ok := table.Field(name)
		if !ok {
			return &ParseError{Table: table.Name, Clause: clause, Err: ErrDanglingConstraint}
		}
		fields = append(fields, field)
	}
	if len(fields) == 0 {
		return &ParseError{Table: table.Name, Clause: clause, Err: ErrMalformedConstraint}
	}

	for _, field := range fields {
		field.SetPrimary()
	}
	return nil
}

func parseForeignKey(table *types.Table, clause string) error {
	match := GetRegexCache().ForeignKey.FindStringSubmatch(clause)
	if match == nil {
		return &ParseError{Table: table.Name, Clause: clause, Err: ErrMalformedConstraint}
	}

	field, ok := table.Field(match[1])
	if !ok {
		return &ParseError{Table: table.Name, Clause: clause, Err: ErrDanglingConstraint}
	}
	if err := field.SetForeign(match[2], match[3]); err != nil {
		return &ParseError{Table: table.Name, Clause: clause, Err: err}
	}
	return nil
}

// parseColumn reads "name type[(param)] [NOT NULL] [...]" from a lower-cased clause.
func parseColumn(clause string) (*types.Field, error) {
	tokens := strings.Fields(clause)
	if len(tokens) < 2 {
		return nil, ErrMalformedColumn
	}

	name := strings.Trim(tokens[0], "\"`")
	if name == "" {
		return nil, ErrMalformedColumn
	}

	typeToken := tokens[1]
	param := ""
	if idx := strings.Index(typeToken, "("); idx >= 0 {
		param = typeToken[idx:]
		typeToken = typeToken[:idx]
	} else if len(tokens) > 2 && strings.HasPrefix(tokens[2], "(") {
		param = tokens[2]
	}

	dataType, ok := types.ParseDataType(typeToken)
	if !ok {
		return nil, ErrUnknownType
	}

	field := &types.Field{
		Name:     name,
		Type:     dataType,
		Nullable: !strings.Contains(clause, "not null"),
	}

	if dataType == types.Varchar && param != "" {
		if m := GetRegexCache().TypeLength.FindStringSubmatch(param); m != nil {
			field.Length, _ = strconv.Atoi(m[1])
		}
	}

	rest := strings.Join(tokens[2:], " ")
	if GetRegexCache().InlinePrimary.MatchString(rest) {
		field.SetPrimary()
	}
	if m := GetRegexCache().InlineRef.FindStringSubmatch(rest); m != nil {
		if err := field.SetForeign(m[1], m[2]); err != nil {
			return nil, err
		}
	}

	return field, nil
}

// isTableConstraint tells an ignored table constraint ("unique (a)", "key idx (a)")
// from a column that happens to be named after the keyword ("key varchar").
func isTableConstraint(clause, head string) bool {
	if !ignoredConstraints[head] {
		return false
	}
	rest := strings.TrimSpace(clause[len(head):])
	if _, isType := types.ParseDataType(firstWord(rest)); isType {
		return false
	}
	return GetRegexCache().TableConstraint.MatchString(rest)
}

func firstWord(s string) string {
	end := strings.IndexAny(s, " \t(")
	if end < 0 {
		return s
	}
	return s[:end]
}
