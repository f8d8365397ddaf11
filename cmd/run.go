package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/Lumos-Labs-HQ/provision/internal/config"
	"github.com/Lumos-Labs-HQ/provision/internal/database"
	"github.com/Lumos-Labs-HQ/provision/internal/logger"
	"github.com/Lumos-Labs-HQ/provision/internal/parser"
	"github.com/Lumos-Labs-HQ/provision/internal/seeder"
)

type runOptions struct {
	Insert      bool
	File        string
	SchemaDir   string
	Rows        int
	Concurrency int
	DryRun      bool
	Literal     bool
	Strict      bool
	Verbose     bool
	Seed        int64
}

func schemaFiles(cfg *config.Config, file string) ([]string, error) {
	if file != "" {
		return []string{file}, nil
	}
	return cfg.GetSchemaFiles()
}

// run executes one provision or insert pass. Dry-run output goes to out.
func run(ctx context.Context, cfg *config.Config, opts runOptions, log *logger.Logger, out io.Writer) (seeder.Report, error) {
	files, err := schemaFiles(cfg, opts.File)
	if err != nil {
		return seeder.Report{}, err
	}
	if len(files) == 0 {
		log.WithField("dir", cfg.SchemaDir).Warn("No .sql files found")
		return seeder.Report{}, nil
	}

	var exec database.Executor
	if !opts.DryRun {
		exec, err = connect(ctx, cfg)
		if err != nil {
			return seeder.Report{}, err
		}
		defer exec.Close()
	}

	s := seeder.New(exec, database.DialectFor(cfg.Provider()), seeder.SeedConfig{
		Rows:        cfg.Seed.Rows,
		Tables:      cfg.Seed.Tables,
		Concurrency: cfg.Seed.Concurrency,
		Literal:     opts.Literal,
		DryRun:      opts.DryRun,
		Out:         out,
		Progress:    !opts.Verbose,
		Seed:        opts.Seed,
	}, log)

	if !opts.Insert {
		var raw []string
		for _, file := range files {
			statements, err := parser.ReadStatements(file)
			if err != nil {
				return seeder.Report{}, err
			}
			raw = append(raw, statements...)
		}
		log.WithField("statements", len(raw)).Info("Provisioning database")
		return s.Provision(ctx, raw), nil
	}

	schema, err := parser.NewSchemaParser(opts.Strict).ParseFiles(files)
	if err != nil {
		return seeder.Report{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	for _, failure := range schema.Failures {
		log.WithField("file", failure.File).
			WithField("statement", failure.Index+1).
			WithError(failure.Err).
			Warn("Skipping statement that could not be parsed")
	}

	log.WithField("tables", len(schema.Tables())).Info("Seeding database")
	report, err := s.Insert(ctx, schema.Statements)
	for _, failure := range schema.Failures {
		report.Failed = append(report.Failed, failureLabel(failure))
	}
	return report, err
}

// failureLabel names an unparsed statement by its table when known, else by position.
func failureLabel(failure *parser.FileError) string {
	var parseErr *parser.ParseError
	if errors.As(failure.Err, &parseErr) && parseErr.Table != "" {
		return parseErr.Table
	}
	return fmt.Sprintf("%s (statement %d)", filepath.Base(failure.File), failure.Index+1)
}

func connect(ctx context.Context, cfg *config.Config) (database.Executor, error) {
	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}

	adapter := database.NewAdapter(cfg.Provider(), cfg.PoolOptions())
	if err := adapter.Connect(ctx, dbURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := adapter.Ping(ctx); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return adapter, nil
}

func printSummary(report seeder.Report, opts runOptions) {
	if opts.DryRun {
		return
	}

	fmt.Println()
	if opts.Insert {
		color.Green("✅ %d tables seeded, %d rows inserted", len(report.Succeeded), report.Rows)
	} else {
		color.Green("✅ %d statements applied", len(report.Succeeded))
	}
	if len(report.Skipped) > 0 {
		color.Yellow("⚠️  Skipped: %s", strings.Join(report.Skipped, ", "))
	}
	if len(report.Failed) > 0 {
		color.Red("❌ Failed: %s", strings.Join(report.Failed, ", "))
	}
}
