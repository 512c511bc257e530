package database

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLTable runs a query through database/sql and exposes its result as a row
// stream. Every Iterate runs the query again.
type SQLTable struct {
	db    *sql.DB
	query string
	args  []interface{}
}

func NewSQLTable(db *sql.DB, query string, args ...interface{}) *SQLTable {
	return &SQLTable{db: db, query: query, args: args}
}

func (t *SQLTable) Iterate() (RowIterator, error) {
	return t.IterateContext(context.Background())
}

// IterateContext runs the query bound to ctx; cancelling ctx fails the
// iteration.
func (t *SQLTable) IterateContext(ctx context.Context) (RowIterator, error) {
	rows, err := t.db.QueryContext(ctx, t.query, t.args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}
	return &sqlIterator{rows: rows, columns: columns, index: index}, nil
}

// SQLRow is one scanned row of a query result.
type SQLRow struct {
	columns []string
	index   map[string]int
	values  []interface{}
}

func (r *SQLRow) Get(column string) (interface{}, error) {
	i, ok := r.index[column]
	if !ok {
		return nil, ErrNoSuchColumn
	}
	return r.values[i], nil
}

func (r *SQLRow) Primitive() interface{} {
	m := make(map[string]interface{}, len(r.columns))
	for i, c := range r.columns {
		if _, ok := m[c]; !ok {
			m[c] = r.values[i]
		}
	}
	return m
}

type sqlIterator struct {
	rows    *sql.Rows
	columns []string
	index   map[string]int
	current Row
	err     error
}

func (it *sqlIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		it.current = nil
		return false
	}

	values := make([]interface{}, len(it.columns))
	dest := make([]interface{}, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := it.rows.Scan(dest...); err != nil {
		it.err = fmt.Errorf("failed to scan row: %w", err)
		it.current = nil
		return false
	}
	it.current = &SQLRow{columns: it.columns, index: it.index, values: values}
	return true
}

func (it *sqlIterator) Row() Row {
	return it.current
}

func (it *sqlIterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *sqlIterator) Close() error {
	return it.rows.Close()
}
