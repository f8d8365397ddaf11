package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Masterminds/squirrel"
	"golang.org/x/sync/singleflight"

	"github.com/Lumos-Labs-HQ/provision/internal/database"
	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
)

// ReferenceLimit caps how many existing keys are sampled from a referenced table.
const ReferenceLimit = 1000

// KeyResolver caches existing values of referenced columns for one run. The first
// request for a table fetches every column registered for it in one query;
// concurrent requests for the same table share that fetch.
type KeyResolver struct {
	fetcher database.Fetcher

	mu      sync.RWMutex
	columns map[string][]string
	pools   map[string]map[string][]interface{}
	group   singleflight.Group

	fetches atomic.Int64

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewKeyResolver creates a resolver. fetcher may be nil, in which case only primed
// pools can be sampled.
func NewKeyResolver(fetcher database.Fetcher, seed int64) *KeyResolver {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &KeyResolver{
		fetcher: fetcher,
		columns: make(map[string][]string),
		pools:   make(map[string]map[string][]interface{}),
		rand:    rand.New(rand.NewSource(seed)),
	}
}

// Register declares that column of table will be sampled, so the table's bootstrap
// query selects it alongside the other registered columns.
func (r *KeyResolver) Register(table, column string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.columns[table], column) {
		r.columns[table] = append(r.columns[table], column)
	}
}

// Sample returns one value picked uniformly from the pool of table.column.
func (r *KeyResolver) Sample(ctx context.Context, table, column string) (interface{}, error) {
	pool, err := r.Pool(ctx, table, column)
	if err != nil {
		return nil, err
	}

	r.randMu.Lock()
	i := r.rand.Intn(len(pool))
	r.randMu.Unlock()
	return pool[i], nil
}

// Pool returns the cached values of table.column, fetching the table on first use.
// Failed fetches are not cached.
func (r *KeyResolver) Pool(ctx context.Context, table, column string) ([]interface{}, error) {
	r.Register(table, column)

	// a fetch already in flight may predate the registration, so allow a second one
	for attempt := 0; attempt < 2; attempt++ {
		if pool, ok := r.cached(table, column); ok {
			return nonEmpty(table, column, pool)
		}

		_, err, _ := r.group.Do(table, func() (interface{}, error) {
			return nil, r.fetch(ctx, table)
		})
		if err != nil {
			return nil, &ReferenceError{Table: table, Column: column, Err: err}
		}
	}

	pool, _ := r.cached(table, column)
	return nonEmpty(table, column, pool)
}

func nonEmpty(table, column string, pool []interface{}) ([]interface{}, error) {
	if len(pool) == 0 {
		return nil, &ReferenceError{Table: table, Column: column, Err: ErrEmptyReference}
	}
	return pool, nil
}

func (r *KeyResolver) cached(table, column string) ([]interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.pools[table][column]
	return pool, ok
}

// pending lists the registered columns of table that have no pool yet.
func (r *KeyResolver) pending(table string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var columns []string
	for _, column := range r.columns[table] {
		if _, ok := r.pools[table][column]; !ok {
			columns = append(columns, column)
		}
	}
	return columns
}

func (r *KeyResolver) fetch(ctx context.Context, table string) error {
	columns := r.pending(table)
	if len(columns) == 0 {
		return nil
	}
	if r.fetcher == nil {
		return ErrUndefinedReference
	}

	query, args, err := ReferenceQuery(table, columns...)
	if err != nil {
		return err
	}

	r.fetches.Add(1)
	result, err := r.fetcher.Fetch(ctx, query, args...)
	if err != nil {
		if common.KindOf(err) == common.KindUndefinedTable {
			return fmt.Errorf("%w: %w", ErrUndefinedReference, err)
		}
		return fmt.Errorf("failed to fetch keys: %w", err)
	}
	if len(result.Rows) == 0 {
		return ErrEmptyReference
	}

	pools := make(map[string][]interface{}, len(columns))
	for _, column := range columns {
		values := make([]interface{}, 0, len(result.Rows))
		for _, row := range result.Rows {
			if v := row[column]; v != nil {
				values = append(values, v)
			}
		}
		pools[column] = values
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pools[table] == nil {
		r.pools[table] = make(map[string][]interface{})
	}
	for column, values := range pools {
		r.pools[table][column] = values
	}
	return nil
}

// ReferenceQuery builds the bootstrap query selecting the referenced columns of a table.
func ReferenceQuery(table string, columns ...string) (string, []interface{}, error) {
	if !isValidTable(table) || len(columns) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrInvalidIdentifier, table)
	}
	for _, column := range columns {
		if !isValidIdentifier(column) {
			return "", nil, fmt.Errorf("%w: %s.%s", ErrInvalidIdentifier, table, column)
		}
	}
	return squirrel.Select(columns...).From(table).Limit(ReferenceLimit).ToSql()
}

// Prime sets the pool of table.column, replacing any cached values.
func (r *KeyResolver) Prime(table, column string, values []interface{}) {
	if len(values) == 0 {
		return
	}
	pool := make([]interface{}, len(values))
	copy(pool, values)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pools[table] == nil {
		r.pools[table] = make(map[string][]interface{})
	}
	r.pools[table][column] = pool
}

// Fetches reports how many bootstrap queries were sent.
func (r *KeyResolver) Fetches() int {
	return int(r.fetches.Load())
}
