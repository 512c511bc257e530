package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorPeekIsIdempotent(t *testing.T) {
	it := rowsOf([]string{"id"}, []interface{}{1}, []interface{}{2}, []interface{}{3}).iterator()
	c := NewCursor(it)

	ok, err := c.Advance()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, c.Get("id"))

	for i := 0; i < 3; i++ {
		v, ok, err := c.Peek("id")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 2, v)
	}
	assert.Equal(t, 2, it.fetched, "peeking reads the next row once")
	assert.Equal(t, 1, c.Get("id"), "peeking does not move the cursor")

	ok, err = c.Advance()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, c.Get("id"))
	assert.Equal(t, 2, it.fetched, "advancing promotes the peeked row")
	assert.Equal(t, 2, c.Position())
}

func TestCursorEnd(t *testing.T) {
	c := NewCursor(rowsOf([]string{"id"}, []interface{}{1}).iterator())

	ok, err := c.Advance()
	require.NoError(t, err)
	require.True(t, ok)

	v, ok, err := c.Peek("id")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)

	hasNext, err := c.HasNext()
	require.NoError(t, err)
	assert.False(t, hasNext)

	ok, err = c.Advance()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, c.Get("id"))
	assert.Equal(t, 1, c.Rows())
}

func TestCursorMissingColumn(t *testing.T) {
	c := NewCursor(rowsOf([]string{"id"}, []interface{}{1}, []interface{}{2}).iterator())
	_, err := c.Advance()
	require.NoError(t, err)

	assert.Nil(t, c.Get("nope"))
	v, ok, err := c.Peek("nope")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestCursorStreamError(t *testing.T) {
	table := rowsOf([]string{"id"}, []interface{}{1}, []interface{}{2})
	table.failAfter = 1
	c := NewCursor(table.iterator())

	ok, err := c.Advance()
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = c.Peek("id")
	assert.ErrorIs(t, err, errBoom)

	ok, err = c.Advance()
	assert.False(t, ok)
	assert.ErrorIs(t, err, errBoom, "the failure sticks")
}
