package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Adapter struct {
	pool *pgxpool.Pool
	opts common.PoolOptions
}

func New(opts common.PoolOptions) *Adapter {
	return &Adapter{opts: opts}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	if p.opts.MaxConns > 0 {
		config.MaxConns = int32(p.opts.MaxConns)
	}
	if p.opts.MinConns > 0 && int32(p.opts.MinConns) <= config.MaxConns {
		config.MinConns = int32(p.opts.MinConns)
	}
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	if p.pool == nil {
		return common.ErrNotConnected
	}
	return p.pool.Ping(ctx)
}

// Execute runs a statement. Statements without arguments go over the simple protocol
// so raw DDL with several commands is accepted.
func (p *Adapter) Execute(ctx context.Context, query string, args ...interface{}) error {
	if p.pool == nil {
		return common.ErrNotConnected
	}

	var err error
	if len(args) == 0 {
		_, err = p.pool.Exec(ctx, query, pgx.QueryExecModeSimpleProtocol)
	} else {
		_, err = p.pool.Exec(ctx, query, args...)
	}
	if err != nil {
		return common.NewExecError(Classify(err), query, err)
	}
	return nil
}

func (p *Adapter) Fetch(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	if p.pool == nil {
		return nil, common.ErrNotConnected
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, common.NewExecError(Classify(err), query, err)
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columns[i] = fd.Name
	}

	var results []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalize(values[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, common.NewExecError(Classify(err), query, err)
	}

	return &common.QueryResult{
		Columns: columns,
		Rows:    results,
	}, nil
}

// normalize turns driver-specific values into ones that can be written back as
// literals. pgx decodes uuid columns to [16]byte.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return string(val)
	default:
		return v
	}
}

// Classify maps a SQLSTATE to an error kind.
func Classify(err error) common.ErrorKind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return common.KindOther
	}

	switch {
	case pgErr.Code == "42601":
		return common.KindSyntax
	case pgErr.Code == "42P01":
		return common.KindUndefinedTable
	case strings.HasPrefix(pgErr.Code, "23"):
		return common.KindIntegrityViolation
	case strings.HasPrefix(pgErr.Code, "42"), strings.HasPrefix(pgErr.Code, "28"):
		return common.KindAccess
	default:
		return common.KindOther
	}
}
