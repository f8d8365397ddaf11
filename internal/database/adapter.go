package database

import (
	"context"

	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
)

// Fetcher runs a query and returns its rows.
type Fetcher interface {
	Fetch(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error)
}

// Executor is what the seeder needs from a database. Errors from Execute and Fetch
// are *common.ExecError values.
type Executor interface {
	Fetcher
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error
	Execute(ctx context.Context, query string, args ...interface{}) error
}
