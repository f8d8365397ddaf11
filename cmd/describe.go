package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Lumos-Labs-HQ/provision/internal/config"
	"github.com/Lumos-Labs-HQ/provision/internal/parser"
	"github.com/Lumos-Labs-HQ/provision/internal/seeder"
	"github.com/Lumos-Labs-HQ/provision/internal/types"
)

type schemaDescription struct {
	Order      []string       `yaml:"order,omitempty"`
	OrderError string         `yaml:"order_error,omitempty"`
	Tables     []*types.Table `yaml:"tables"`
	Failures   []string       `yaml:"failures,omitempty"`
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the parsed tables and their insertion order as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("schema-dir") {
			cfg.SchemaDir = opts.SchemaDir
		}

		files, err := schemaFiles(cfg, opts.File)
		if err != nil {
			return err
		}
		return describeSchema(cmd.OutOrStdout(), files, opts.Strict)
	},
}

func describeSchema(w io.Writer, files []string, strict bool) error {
	schema, err := parser.NewSchemaParser(strict).ParseFiles(files)
	if err != nil {
		return fmt.Errorf("failed to parse schema: %w", err)
	}

	desc := schemaDescription{Tables: schema.Tables()}
	for _, failure := range schema.Failures {
		desc.Failures = append(desc.Failures, failure.Error())
	}

	graph := seeder.NewDependencyGraph()
	for _, table := range desc.Tables {
		graph.AddTable(table)
	}
	if desc.Order, err = graph.Order(); err != nil {
		desc.OrderError = err.Error()
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(desc); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
