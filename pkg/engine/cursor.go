package engine

import (
	"fmt"

	"github.com/bisegni/rowtree/pkg/database"
)

// Cursor is a forward-only pass over a row stream with one row of lookahead.
// It is the only component that looks beyond the current row. Every physical
// row is pulled from the iterator exactly once, however often it is peeked.
//
// Rows returned by the iterator must stay valid after the following Next.
type Cursor struct {
	rows database.RowIterator

	current database.Row
	next    database.Row
	peeked  bool

	done     bool
	err      error
	fetched  int
	position int
}

// NewCursor wraps rows. The cursor does not close the iterator.
func NewCursor(rows database.RowIterator) *Cursor {
	return &Cursor{rows: rows}
}

// Advance makes the next row current, promoting a peeked row without a new
// fetch. It returns false once the stream is exhausted.
func (c *Cursor) Advance() (bool, error) {
	var err error
	if c.peeked {
		c.current, c.next, c.peeked = c.next, nil, false
		err = c.err
	} else {
		c.current, err = c.fetch()
	}
	if c.current != nil {
		c.position++
	}
	return c.current != nil, err
}

// Get returns the current row's value for column. Missing columns and a
// cursor without a current row yield nil.
func (c *Cursor) Get(column string) interface{} {
	return valueOf(c.current, column)
}

// Peek returns the next row's value for column without consuming the row.
// The second result is false when there is no next row.
func (c *Cursor) Peek(column string) (interface{}, bool, error) {
	if !c.peeked {
		c.next, c.err = c.fetch()
		c.peeked = true
	}
	if c.err != nil {
		return nil, false, c.err
	}
	if c.next == nil {
		return nil, false, nil
	}
	return valueOf(c.next, column), true, nil
}

// HasNext reports whether another row follows the current one.
func (c *Cursor) HasNext() (bool, error) {
	_, ok, err := c.Peek("")
	return ok, err
}

// Position is the 1-based index of the current row.
func (c *Cursor) Position() int {
	return c.position
}

// Rows is the number of physical rows pulled from the stream so far.
func (c *Cursor) Rows() int {
	return c.fetched
}

func (c *Cursor) fetch() (database.Row, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.done {
		return nil, nil
	}
	if c.rows.Next() {
		c.fetched++
		return c.rows.Row(), nil
	}
	c.done = true
	if err := c.rows.Error(); err != nil {
		c.err = fmt.Errorf("row stream failed after %d rows: %w", c.fetched, err)
		return nil, c.err
	}
	return nil, nil
}

func valueOf(row database.Row, column string) interface{} {
	if row == nil || column == "" {
		return nil
	}
	v, err := row.Get(column)
	if err != nil {
		return nil
	}
	return v
}
