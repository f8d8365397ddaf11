package parser

import (
	"github.com/Lumos-Labs-HQ/provision/internal/types"
	"github.com/Lumos-Labs-HQ/provision/internal/utils"
)

// Schema is everything parsed out of a set of DDL files.
type Schema struct {
	Raw        []string
	Statements []*types.Statement
	Failures   []*FileError
}

// Tables returns the tables of the CREATE statements, in source order.
func (s *Schema) Tables() []*types.Table {
	var tables []*types.Table
	for _, stmt := range s.Statements {
		if stmt.Command == types.CommandCreate {
			tables = append(tables, stmt.Table)
		}
	}
	return tables
}

type SchemaParser struct {
	// Strict stops at the first statement that fails to parse.
	Strict bool
}

func NewSchemaParser(strict bool) *SchemaParser {
	return &SchemaParser{Strict: strict}
}

// ParseFiles reads and parses every file in order, skipping comment-only segments.
// Read errors are always returned; parse errors are collected in Failures unless
// the parser is strict.
func (p *SchemaParser) ParseFiles(files []string) (*Schema, error) {
	schema := &Schema{}

	for _, file := range files {
		statements, err := ReadStatements(file)
		if err != nil {
			return nil, err
		}

		for i, raw := range statements {
			if utils.IsBlank(raw) {
				continue
			}
			schema.Raw = append(schema.Raw, raw)

			stmt, err := Parse(raw)
			if err != nil {
				fileErr := &FileError{File: file, Index: i, Err: err}
				if p.Strict {
					return nil, fileErr
				}
				schema.Failures = append(schema.Failures, fileErr)
				continue
			}
			schema.Statements = append(schema.Statements, stmt)
		}
	}

	return schema, nil
}
