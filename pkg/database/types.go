package database

import "errors"

// ErrNoSuchColumn is returned by Row.Get for a column the row does not carry.
var ErrNoSuchColumn = errors.New("no such column")

// Row represents a single physical row of a flat, denormalized result.
type Row interface {
	// Get returns the value of a column, or ErrNoSuchColumn.
	Get(column string) (interface{}, error)
	// Primitive returns the underlying data structure.
	Primitive() interface{}
}

// RowIterator is a forward-only pass over rows.
type RowIterator interface {
	// Next advances the iterator. Returns false if no more rows or error.
	Next() bool
	// Row returns the current row.
	Row() Row
	// Error returns any error that occurred during iteration.
	Error() error
	// Close releases resources.
	Close() error
}

// Table represents a row source that can be scanned.
type Table interface {
	// Iterate returns a new iterator for scanning the table.
	Iterate() (RowIterator, error)
}
