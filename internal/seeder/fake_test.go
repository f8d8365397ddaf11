package seeder

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
	"github.com/Lumos-Labs-HQ/provision/internal/parser"
	"github.com/Lumos-Labs-HQ/provision/internal/types"
)

type execCall struct {
	query string
	args  []interface{}
}

// fakeExecutor records statements and answers fetches from a fixed table of results.
type fakeExecutor struct {
	mu       sync.Mutex
	results  map[string]*common.QueryResult
	failures map[string]error // keyed by query prefix
	executed []execCall
	fetched  []string
	delay    time.Duration
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		results:  make(map[string]*common.QueryResult),
		failures: make(map[string]error),
	}
}

func (f *fakeExecutor) withKeys(query, column string, values ...interface{}) *fakeExecutor {
	result := &common.QueryResult{Columns: []string{column}}
	for _, v := range values {
		result.Rows = append(result.Rows, map[string]interface{}{column: v})
	}
	f.results[query] = result
	return f
}

// withRows answers query with full rows, one value per column.
func (f *fakeExecutor) withRows(query string, columns []string, rows ...[]interface{}) *fakeExecutor {
	result := &common.QueryResult{Columns: columns}
	for _, values := range rows {
		row := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	f.results[query] = result
	return f
}

func (f *fakeExecutor) failOn(prefix string, err error) *fakeExecutor {
	f.failures[prefix] = err
	return f
}

func (f *fakeExecutor) Connect(ctx context.Context, url string) error { return nil }
func (f *fakeExecutor) Close() error                                  { return nil }
func (f *fakeExecutor) Ping(ctx context.Context) error                { return nil }

func (f *fakeExecutor) failure(query string) error {
	for prefix, err := range f.failures {
		if strings.HasPrefix(query, prefix) {
			return err
		}
	}
	return nil
}

func (f *fakeExecutor) Execute(ctx context.Context, query string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(query); err != nil {
		return err
	}
	f.executed = append(f.executed, execCall{query: query, args: args})
	return nil
}

func (f *fakeExecutor) Fetch(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, query)
	if err := f.failure(query); err != nil {
		return nil, err
	}
	if result, ok := f.results[query]; ok {
		return result, nil
	}
	return &common.QueryResult{}, nil
}

func (f *fakeExecutor) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.executed))
	for i, call := range f.executed {
		out[i] = call.query
	}
	return out
}

const locationDDL = `CREATE TABLE IF NOT EXISTS Location (
    id serial PRIMARY KEY,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    address VARCHAR NOT NULL
);`

const sensorDDL = `CREATE TABLE IF NOT EXISTS Sensor (
    id uuid DEFAULT gen_random_uuid(),
    location_id int,
    type VARCHAR NOT NULL,
    PRIMARY KEY (id),
    FOREIGN KEY (location_id) REFERENCES "location" (id)
);`

const measurementDDL = `CREATE TABLE IF NOT EXISTS Measurement (
    id uuid PRIMARY KEY,
    sensor_id uuid NOT NULL REFERENCES sensor (id),
    value numeric NOT NULL,
    taken_at timestamp
);`

func mustParse(ddl string) *types.Statement {
	stmt, err := parser.Parse(ddl)
	if err != nil {
		panic(err)
	}
	return stmt
}

func mustTable(ddl string) *types.Table {
	return mustParse(ddl).Table
}
