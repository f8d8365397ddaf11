package seeder

import (
	"io"
	"sync"
)

// Row holds one generated value per table field, in field order.
type Row []interface{}

type SeedConfig struct {
	Rows        int            // Default rows per table
	Tables      map[string]int // Per-table row counts
	Concurrency int            // Tables seeded at once within a dependency level
	Literal     bool           // Send textual INSERTs instead of parameterized ones
	DryRun      bool           // Write statements to Out instead of executing them
	Out         io.Writer      // Dry-run destination
	Progress    bool           // Show a progress bar while seeding
	Seed        int64          // Random seed, 0 picks one from the clock
}

const (
	DefaultRows        = 5
	DefaultConcurrency = 4
)

// RowsFor returns the row count for a table, honoring per-table overrides.
func (c SeedConfig) RowsFor(table string) int {
	if n, ok := c.Tables[table]; ok {
		return n
	}
	return c.Rows
}

func (c SeedConfig) concurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

// Report summarizes a run. Succeeded, Failed and Skipped hold table names in insert
// mode and statement summaries in provision mode.
type Report struct {
	Succeeded  []string
	Failed     []string
	Skipped    []string
	Rows       int
	Statements int
}

func (r Report) OK() bool {
	return len(r.Failed) == 0
}

type reportBuilder struct {
	mu     sync.Mutex
	report Report
}

func (b *reportBuilder) succeeded(name string, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Succeeded = append(b.report.Succeeded, name)
	b.report.Rows += rows
	b.report.Statements++
}

func (b *reportBuilder) failed(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Failed = append(b.report.Failed, name)
}

func (b *reportBuilder) skipped(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Skipped = append(b.report.Skipped, name)
}

func (b *reportBuilder) result() Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.report
}
