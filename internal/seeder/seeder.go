package seeder

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Lumos-Labs-HQ/provision/internal/database"
	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
	"github.com/Lumos-Labs-HQ/provision/internal/logger"
	"github.com/Lumos-Labs-HQ/provision/internal/progress"
	"github.com/Lumos-Labs-HQ/provision/internal/types"
	"github.com/Lumos-Labs-HQ/provision/internal/utils"
)

// Seeder is the state of one run: the executor, the key cache and the generators.
type Seeder struct {
	exec      database.Executor
	cfg       SeedConfig
	log       *logger.Logger
	resolver  *KeyResolver
	generator *DataGenerator
	builder   *InsertBuilder

	outMu sync.Mutex
}

// New creates a Seeder. exec may be nil for a dry run.
func New(exec database.Executor, dialect database.Dialect, cfg SeedConfig, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	var fetcher database.Fetcher
	if exec != nil && !cfg.DryRun {
		fetcher = exec
	}

	return &Seeder{
		exec:      exec,
		cfg:       cfg,
		log:       log,
		resolver:  NewKeyResolver(fetcher, cfg.Seed),
		generator: NewDataGenerator(cfg.Seed),
		builder:   NewInsertBuilder(dialect),
	}
}

func (s *Seeder) Resolver() *KeyResolver {
	return s.resolver
}

// Provision forwards every statement to the database unchanged. Comment-only
// statements are skipped. Failures are logged and the run moves on.
func (s *Seeder) Provision(ctx context.Context, raw []string) Report {
	var report reportBuilder

	for _, stmt := range raw {
		if ctx.Err() != nil {
			break
		}

		summary := summarize(stmt)
		if utils.IsBlank(stmt) {
			report.skipped(summary)
			continue
		}
		if s.cfg.DryRun {
			s.write(stmt)
			report.succeeded(summary, 0)
			continue
		}

		s.log.WithField("statement", stmt).Debug("Executing statement")
		if err := s.execute(ctx, stmt); err != nil {
			s.logExecError(s.log.WithField("statement", stmt), err, "Statement failed")
			report.failed(summary)
			continue
		}
		report.succeeded(summary, 0)
	}

	return report.result()
}

// Insert seeds every CREATE'd table with generated rows in foreign key order.
// DROP statements are forwarded first, ALTER statements are skipped.
func (s *Seeder) Insert(ctx context.Context, statements []*types.Statement) (Report, error) {
	var report reportBuilder
	graph := NewDependencyGraph()

	for _, stmt := range statements {
		switch stmt.Command {
		case types.CommandCreate:
			graph.AddTable(stmt.Table)
		case types.CommandDrop:
			s.forwardDrop(ctx, stmt, &report)
		case types.CommandAlter:
			s.log.Table(stmt.Table.Name).Warn("ALTER statements are not supported in insert mode, skipping")
			report.skipped(stmt.Table.Name)
		}
	}

	levels, err := graph.Levels()
	if err != nil {
		return report.result(), err
	}

	total := 0
	for _, level := range levels {
		total += len(level)
	}

	var bar *progress.Bar
	if s.cfg.Progress && !s.cfg.DryRun && total > 0 {
		bar = progress.NewBar(int64(total), "Seeding tables")
		defer bar.Finish()
	}

	referenced := referencedColumns(graph, levels)
	s.registerReferences(graph, levels)

	for _, level := range levels {
		outputs := make([]string, len(level))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.concurrency())
		for i, name := range level {
			table, _ := graph.Table(name)
			g.Go(func() error {
				bar.Describe("Seeding " + name)
				outputs[i] = s.seedTable(gctx, table, referenced[name], &report)
				bar.Increment()
				return nil
			})
		}
		_ = g.Wait()

		for _, out := range outputs {
			if out != "" {
				s.write(out)
			}
		}

		if err := ctx.Err(); err != nil {
			return report.result(), err
		}
	}

	return report.result(), nil
}

func (s *Seeder) forwardDrop(ctx context.Context, stmt *types.Statement, report *reportBuilder) {
	if s.cfg.DryRun {
		s.write(stmt.Raw)
		report.succeeded(stmt.Table.Name, 0)
		return
	}

	entry := s.log.Table(stmt.Table.Name)
	if err := s.execute(ctx, stmt.Raw); err != nil {
		s.logExecError(entry.WithField("statement", stmt.Raw), err, "DROP failed")
		report.failed(stmt.Table.Name)
		return
	}
	entry.Info("Table dropped")
	report.succeeded(stmt.Table.Name, 0)
}

// seedTable generates and inserts the rows of one table. In a dry run it returns the
// statement text instead of executing it.
func (s *Seeder) seedTable(ctx context.Context, table *types.Table, primeColumns []string, report *reportBuilder) string {
	entry := s.log.Table(table.Name)
	count := s.cfg.RowsFor(table.Name)

	rows, err := s.generator.Generate(ctx, table, count, s.resolver)
	if err != nil {
		var refErr *ReferenceError
		if errors.As(err, &refErr) {
			entry.WithError(err).Error("Cannot resolve foreign key, skipping table")
		} else {
			entry.WithError(err).Error("Failed to generate rows")
		}
		report.failed(table.Name)
		return ""
	}

	if len(rows) == 0 {
		entry.Info("No rows requested, skipping")
		report.skipped(table.Name)
		return ""
	}

	if s.cfg.DryRun {
		query, err := s.builder.Build(table, rows)
		if err != nil {
			entry.WithError(err).Error("Failed to build insert")
			report.failed(table.Name)
			return ""
		}
		s.prime(table, rows, primeColumns)
		report.succeeded(table.Name, len(rows))
		return query
	}

	var (
		query string
		args  []interface{}
	)
	if s.cfg.Literal {
		query, err = s.builder.Build(table, rows)
	} else {
		query, args, err = s.builder.BuildParameterized(table, rows)
	}
	if err != nil {
		entry.WithError(err).Error("Failed to build insert")
		report.failed(table.Name)
		return ""
	}

	entry.WithField("statement", query).Debug("Executing insert")
	if err := s.execute(ctx, query, args...); err != nil {
		s.logExecError(entry, err, "Insert failed")
		report.failed(table.Name)
		return ""
	}

	entry.WithField("rows", len(rows)).Info("Rows inserted")
	report.succeeded(table.Name, len(rows))
	return ""
}

func (s *Seeder) execute(ctx context.Context, query string, args ...interface{}) error {
	if s.exec == nil {
		return common.ErrNotConnected
	}
	return s.exec.Execute(ctx, query, args...)
}

// prime makes the generated values of referenced columns available to dependent
// tables, since nothing was written to the database.
func (s *Seeder) prime(table *types.Table, rows []Row, columns []string) {
	fields := table.Columns()
	for _, column := range columns {
		idx := slices.Index(fields, column)
		if idx < 0 {
			continue
		}
		values := make([]interface{}, 0, len(rows))
		for _, row := range rows {
			if row[idx] != nil {
				values = append(values, row[idx])
			}
		}
		s.resolver.Prime(table.Name, column, values)
	}
}

func (s *Seeder) write(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := io.WriteString(s.cfg.Out, strings.TrimRight(text, "\n")+"\n\n"); err != nil {
		s.log.WithError(err).Warn("Failed to write output")
	}
}

func (s *Seeder) logExecError(entry *logrus.Entry, err error, msg string) {
	entry.WithField("kind", common.KindOf(err).String()).WithError(err).Error(msg)
}

// registerReferences declares every foreign key target up front so each referenced
// table is bootstrapped with a single query.
func (s *Seeder) registerReferences(graph *DependencyGraph, levels [][]string) {
	for _, level := range levels {
		for _, name := range level {
			table, _ := graph.Table(name)
			for _, field := range table.Fields() {
				if field.IsForeign() && field.Reference.Table != name {
					s.resolver.Register(field.Reference.Table, field.Reference.Column)
				}
			}
		}
	}
}

// referencedColumns maps each table to the columns other tables in the run point at.
func referencedColumns(graph *DependencyGraph, levels [][]string) map[string][]string {
	referenced := make(map[string][]string)
	seen := make(map[string]bool)

	for _, level := range levels {
		for _, name := range level {
			table, _ := graph.Table(name)
			for _, field := range table.Fields() {
				if !field.IsForeign() || field.Reference.Table == name {
					continue
				}
				if _, ok := graph.Table(field.Reference.Table); !ok {
					continue
				}
				key := field.Reference.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				referenced[field.Reference.Table] = append(referenced[field.Reference.Table], field.Reference.Column)
			}
		}
	}
	return referenced
}

// summarize shortens a statement to its first line for reports.
func summarize(stmt string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(stmt), "\n")
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line
}
