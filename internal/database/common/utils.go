package common

import (
	"database/sql"
	"fmt"
)

type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Values returns the values of the first column in row order.
func (r *QueryResult) Values() []interface{} {
	if r == nil || len(r.Columns) == 0 {
		return nil
	}
	col := r.Columns[0]
	values := make([]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		values = append(values, row[col])
	}
	return values
}

// PoolOptions sizes the connection pool. MinConns connections are kept open,
// MaxConns caps concurrent use.
type PoolOptions struct {
	MinConns int
	MaxConns int
}

// ScanRows drains rows into a QueryResult. []byte values are copied into strings.
func ScanRows(rows *sql.Rows) (*QueryResult, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &QueryResult{
		Columns: columns,
		Rows:    results,
	}, nil
}
