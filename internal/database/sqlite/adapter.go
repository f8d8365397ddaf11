package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
	"github.com/mattn/go-sqlite3"
)

type Adapter struct {
	db   *sql.DB
	opts common.PoolOptions
}

func New(opts common.PoolOptions) *Adapter {
	return &Adapter{opts: opts}
}

// ToPath strips the sqlite:// scheme and adds shared-cache WAL options when the URL
// carries no query string of its own.
func ToPath(url string) string {
	dbPath := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite3://"), "sqlite://")
	if !strings.Contains(dbPath, "?") {
		dbPath += "?cache=shared&_journal_mode=WAL&_foreign_keys=on"
	}
	return dbPath
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open("sqlite3", ToPath(url))
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	maxConns := s.opts.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(min(s.opts.MinConns, maxConns))
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s.db = db
	return nil
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	if s.db == nil {
		return common.ErrNotConnected
	}
	return s.db.PingContext(ctx)
}

func (s *Adapter) Execute(ctx context.Context, query string, args ...interface{}) error {
	if s.db == nil {
		return common.ErrNotConnected
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return common.NewExecError(Classify(err), query, err)
	}
	return nil
}

func (s *Adapter) Fetch(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	if s.db == nil {
		return nil, common.ErrNotConnected
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewExecError(Classify(err), query, err)
	}
	return common.ScanRows(rows)
}

// Classify maps a sqlite3 result code to an error kind. SQLite reports syntax errors
// and missing tables as SQLITE_ERROR, so those fall back to the message.
func Classify(err error) common.ErrorKind {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return common.KindIntegrityViolation
		case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
			return common.KindAccess
		}
	}

	if err == nil {
		return common.KindOther
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return common.KindUndefinedTable
	case strings.Contains(msg, "syntax error"):
		return common.KindSyntax
	default:
		return common.KindOther
	}
}
